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

	"github.com/crewmark/crewmark/model"
)

// NextVersion returns the version number the next upload should take. A
// submission that carries a current file with no history rows predates
// version tracking; that file is backfilled as version 1 first, so version
// numbers stay gapless.
func (c *Crewmark) NextVersion(ctx context.Context, submission *model.Submission) (int, error) {
	max, err := c.datasource.GetMaxVideoVersion(ctx, submission.SubmissionID)
	if err != nil {
		return 0, err
	}
	if max == 0 && submission.HasLegacyFile() {
		if _, err := c.datasource.BackfillLegacyVersion(ctx, submission); err != nil {
			return 0, err
		}
		max = 1
	}
	return max + 1, nil
}

// GetVideoVersions returns a submission's upload history, newest first, with
// the latest entry flagged.
func (c *Crewmark) GetVideoVersions(ctx context.Context, applicationID string, step int) ([]model.VideoVersion, error) {
	submission, err := c.GetStepSubmission(ctx, applicationID, step)
	if err != nil {
		return nil, err
	}
	if !submission.Materialized() {
		return []model.VideoVersion{}, nil
	}
	versions, err := c.datasource.GetVideoVersions(ctx, submission.SubmissionID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 && submission.HasLegacyFile() {
		legacy, err := c.datasource.BackfillLegacyVersion(ctx, submission)
		if err != nil {
			return nil, err
		}
		legacy.Latest = true
		return []model.VideoVersion{*legacy}, nil
	}
	return versions, nil
}
