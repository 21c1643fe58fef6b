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

import "time"

// CampaignType determines how many deliverable steps a campaign requires.
type CampaignType string

const (
	CampaignSingleStep CampaignType = "single_step"
	CampaignTwoStep    CampaignType = "two_step"
	CampaignFourStep   CampaignType = "four_step"
	CampaignOther      CampaignType = "other"
)

// Valid reports whether t is a known campaign type.
func (t CampaignType) Valid() bool {
	switch t {
	case CampaignSingleStep, CampaignTwoStep, CampaignFourStep, CampaignOther:
		return true
	}
	return false
}

// DefaultSteps returns the step count implied by the campaign type. "other"
// has no implied count and must carry an explicit override.
func (t CampaignType) DefaultSteps() int {
	switch t {
	case CampaignSingleStep:
		return 1
	case CampaignTwoStep:
		return 2
	case CampaignFourStep:
		return 4
	default:
		return 0
	}
}

// Campaign is one brand's paid content campaign. RewardAmount is the points
// credited per completed step.
type Campaign struct {
	ID           int64                  `json:"-"`
	CampaignID   string                 `json:"campaign_id"`
	Name         string                 `json:"name"`
	Type         CampaignType           `json:"type"`
	TotalSteps   int                    `json:"total_steps"`
	RewardAmount int64                  `json:"reward_amount"`
	CreatedAt    time.Time              `json:"created_at"`
	MetaData     map[string]interface{} `json:"meta_data,omitempty"`
}

// Application links a creator to a campaign. Submissions hang off it, one per
// step number, created lazily.
type Application struct {
	ID            int64     `json:"-"`
	ApplicationID string    `json:"application_id"`
	CampaignID    string    `json:"campaign_id"`
	UserID        string    `json:"user_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// StepProgress is the derived per-step view of an application.
type StepProgress struct {
	StepNumber int            `json:"step_number"`
	Status     WorkflowStatus `json:"workflow_status"`
	Progress   int            `json:"progress"`
}

// ApplicationProgress is the derived completion view of one application. It is
// recomputed from current state on every read and never persisted.
type ApplicationProgress struct {
	ApplicationID  string         `json:"application_id"`
	CampaignID     string         `json:"campaign_id"`
	TotalSteps     int            `json:"total_steps"`
	CompletedSteps int            `json:"completed_steps"`
	Progress       int            `json:"progress"`
	Steps          []StepProgress `json:"steps"`
}
