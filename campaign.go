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

package crewmark

import (
	"context"
	"fmt"
	"time"

	"github.com/crewmark/crewmark/internal/apierror"
	"github.com/crewmark/crewmark/internal/notification"
	"github.com/crewmark/crewmark/model"
)

// CreateCampaign registers a new campaign. The step count defaults from the
// campaign type and may be overridden; type "other" requires an explicit one.
func (c *Crewmark) CreateCampaign(ctx context.Context, campaign model.Campaign) (*model.Campaign, error) {
	if !campaign.Type.Valid() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("Unknown campaign type '%s'", campaign.Type), nil)
	}
	if campaign.TotalSteps == 0 {
		campaign.TotalSteps = campaign.Type.DefaultSteps()
	}
	if campaign.TotalSteps <= 0 {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Campaign requires a positive step count", nil)
	}
	if campaign.RewardAmount < 0 {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Reward amount cannot be negative", nil)
	}

	campaign.CampaignID = model.GenerateUUIDWithSuffix("cmp")
	campaign.CreatedAt = time.Now()
	return c.datasource.CreateCampaign(ctx, &campaign)
}

// GetCampaign returns one campaign by ID.
func (c *Crewmark) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	return c.datasource.GetCampaignByID(ctx, id)
}

// ApplyToCampaign creates a creator's application to a campaign.
func (c *Crewmark) ApplyToCampaign(ctx context.Context, campaignID, userID string) (*model.Application, error) {
	if userID == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "A user ID is required", nil)
	}
	campaign, err := c.datasource.GetCampaignByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	application := &model.Application{
		ApplicationID: model.GenerateUUIDWithSuffix("app"),
		CampaignID:    campaign.CampaignID,
		UserID:        userID,
		CreatedAt:     time.Now(),
	}
	created, err := c.datasource.CreateApplication(ctx, application)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := SendWebhook(NewWebhook{
			Event:   "application.created",
			Payload: created,
		}); err != nil {
			notification.NotifyError(err)
		}
	}()
	return created, nil
}

// GetApplication returns one application by ID.
func (c *Crewmark) GetApplication(ctx context.Context, id string) (*model.Application, error) {
	return c.datasource.GetApplicationByID(ctx, id)
}

// GetApplicationSubmissions returns every materialized submission of an
// application, ordered by step.
func (c *Crewmark) GetApplicationSubmissions(ctx context.Context, applicationID string) ([]*model.Submission, error) {
	if _, err := c.datasource.GetApplicationByID(ctx, applicationID); err != nil {
		return nil, err
	}
	return c.datasource.GetSubmissionsByApplication(ctx, applicationID)
}
