/*
Copyright 2025 Crewmark Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package model

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/crewmark/crewmark/model"
)

func (c *CreateCampaign) ValidateCreateCampaign() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Type, validation.Required, validation.In("single_step", "two_step", "four_step", "other")),
		validation.Field(&c.TotalSteps, validation.Min(0), validation.By(func(value interface{}) error {
			if c.Type == "other" && c.TotalSteps == 0 {
				return errors.New("total_steps is required for campaign type 'other'")
			}
			return nil
		})),
		validation.Field(&c.RewardAmount, validation.Min(0)),
	)
}

func (a *CreateApplication) ValidateCreateApplication() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.UserId, validation.Required),
	)
}

func (s *SubmitSns) ValidateSubmitSns() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.PostUrl, validation.Required),
	)
}

func (r *ReviewDecision) ValidateReviewDecision() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Decision, validation.Required, validation.In("approve", "request_revision")),
		validation.Field(&r.Notes, validation.When(r.Decision == "request_revision",
			validation.Required.Error("notes are required when requesting a revision"))),
	)
}

func (r *ResetStep) ValidateResetStep() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Target, validation.Required, validation.In("guide_pending", "guide_confirmed", "video_uploaded")),
	)
}

func (p *AdjustPoints) ValidateAdjustPoints() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.UserId, validation.Required),
		validation.Field(&p.Amount, validation.Required, validation.Min(1)),
		validation.Field(&p.Type, validation.Required, validation.In("earn", "bonus", "admin_add", "spend", "admin_subtract")),
		validation.Field(&p.Description, validation.Required),
	)
}

func (w *CreateWithdrawal) ValidateCreateWithdrawal() error {
	return validation.ValidateStruct(w,
		validation.Field(&w.UserId, validation.Required),
		validation.Field(&w.Amount, validation.Required, validation.Min(1)),
		validation.Field(&w.BankName, validation.Required),
		validation.Field(&w.AccountNumber, validation.Required),
		validation.Field(&w.AccountHolder, validation.Required),
	)
}

func (u *WithdrawalStatusUpdate) ValidateWithdrawalStatusUpdate() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Status, validation.Required, validation.In("approved", "rejected", "transfer_processing", "completed")),
	)
}

func (c *CreateCampaign) ToCampaign() model.Campaign {
	return model.Campaign{
		Name:         c.Name,
		Type:         model.CampaignType(c.Type),
		TotalSteps:   c.TotalSteps,
		RewardAmount: c.RewardAmount,
		MetaData:     c.MetaData,
	}
}

func (w *CreateWithdrawal) ToPayoutDetails() model.PayoutDetails {
	return model.PayoutDetails{
		BankName:      w.BankName,
		BranchName:    w.BranchName,
		AccountNumber: w.AccountNumber,
		AccountHolder: w.AccountHolder,
	}
}
