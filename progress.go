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
	"math"

	"github.com/crewmark/crewmark/model"
)

// GetApplicationProgress computes the progress view for one application.
// Progress is derived on every read from workflow statuses alone; nothing
// here is persisted. Steps without a row report as untouched guide_pending.
func (c *Crewmark) GetApplicationProgress(ctx context.Context, applicationID string) (*model.ApplicationProgress, error) {
	application, err := c.datasource.GetApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	campaign, err := c.datasource.GetCampaignByID(ctx, application.CampaignID)
	if err != nil {
		return nil, err
	}
	submissions, err := c.datasource.GetSubmissionsByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	byStep := make(map[int]*model.Submission, len(submissions))
	for _, sub := range submissions {
		byStep[sub.StepNumber] = sub
	}

	progress := &model.ApplicationProgress{
		ApplicationID: application.ApplicationID,
		CampaignID:    campaign.CampaignID,
		TotalSteps:    campaign.TotalSteps,
		Steps:         make([]model.StepProgress, 0, campaign.TotalSteps),
	}

	for step := 1; step <= campaign.TotalSteps; step++ {
		status := model.StatusGuidePending
		if sub, ok := byStep[step]; ok {
			status = sub.Status
		}
		if status.Done() {
			progress.CompletedSteps++
		}
		progress.Steps = append(progress.Steps, model.StepProgress{
			StepNumber: step,
			Status:     status,
			Progress:   status.Progress(),
		})
	}

	if campaign.TotalSteps > 0 {
		progress.Progress = int(math.Round(float64(progress.CompletedSteps) / float64(campaign.TotalSteps) * 100))
	}
	return progress, nil
}
