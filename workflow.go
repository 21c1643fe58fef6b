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
	"io"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/crewmark/crewmark/internal/apierror"
	"github.com/crewmark/crewmark/internal/notification"
	"github.com/crewmark/crewmark/model"
)

var workflowTracer = otel.Tracer("crewmark.workflow")

// UploadProgressFunc receives upload progress as a percentage. Values are
// monotonically non-decreasing and end at 100 on success.
type UploadProgressFunc func(percent int)

// VideoUploadInput carries the main deliverable file and an optional clean
// (no-subtitle) variant for one upload request.
type VideoUploadInput struct {
	FileName string
	FileSize int64
	Body     io.Reader

	CleanFileName string
	CleanFileSize int64
	CleanBody     io.Reader
}

// GetStepSubmission returns the submission for one step of an application.
// A step that has never been touched yields a virtual guide_pending record;
// the first mutating operation materializes it.
func (c *Crewmark) GetStepSubmission(ctx context.Context, applicationID string, step int) (*model.Submission, error) {
	application, err := c.datasource.GetApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	campaign, err := c.datasource.GetCampaignByID(ctx, application.CampaignID)
	if err != nil {
		return nil, err
	}
	if step < 1 || step > campaign.TotalSteps {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("Step %d is out of range for campaign '%s' (1-%d)", step, campaign.CampaignID, campaign.TotalSteps), nil)
	}

	submission, err := c.datasource.GetSubmission(ctx, applicationID, step)
	if err != nil {
		if apiErr, ok := err.(apierror.APIError); ok && apiErr.Code == apierror.ErrNotFound {
			return model.NewSubmission(application.ApplicationID, application.CampaignID, application.UserID, step), nil
		}
		return nil, err
	}
	return submission, nil
}

// materializeSubmission persists a virtual submission row. A concurrent
// materialization of the same step is not an error; the winner's row is
// re-read and used.
func (c *Crewmark) materializeSubmission(ctx context.Context, submission *model.Submission) (*model.Submission, error) {
	if submission.Materialized() {
		return submission, nil
	}
	created, err := c.datasource.CreateSubmission(ctx, submission)
	if err != nil {
		if apiErr, ok := err.(apierror.APIError); ok && apiErr.Code == apierror.ErrConflict {
			return c.datasource.GetSubmission(ctx, submission.ApplicationID, submission.StepNumber)
		}
		return nil, err
	}
	return created, nil
}

// ConfirmGuide acknowledges the campaign guide for one step. Only the first
// confirmation succeeds; repeats are conflicts and leave the row untouched.
func (c *Crewmark) ConfirmGuide(ctx context.Context, applicationID string, step int) (*model.Submission, error) {
	ctx, span := workflowTracer.Start(ctx, "Confirming campaign guide")
	defer span.End()

	submission, err := c.GetStepSubmission(ctx, applicationID, step)
	if err != nil {
		return nil, err
	}
	submission, err = c.materializeSubmission(ctx, submission)
	if err != nil {
		return nil, err
	}

	if err := c.datasource.UpdateSubmissionStatus(ctx, submission.SubmissionID, submission.Status, model.StatusGuideConfirmed); err != nil {
		span.RecordError(err)
		return nil, err
	}
	submission.Status = model.StatusGuideConfirmed
	c.postSubmissionActions(ctx, submission)
	return submission, nil
}

// UploadVideo stores a new deliverable file and appends it to the version
// history. The size limit is enforced before any storage call. Allowed from
// guide_confirmed, video_uploading (a retry of an interrupted upload), and
// video_uploaded (a replacement).
func (c *Crewmark) UploadVideo(ctx context.Context, applicationID string, step int, input VideoUploadInput, progress UploadProgressFunc) (*model.Submission, error) {
	ctx, span := workflowTracer.Start(ctx, "Uploading deliverable video")
	defer span.End()

	if input.Body == nil || input.FileName == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "A video file is required", nil)
	}
	if input.FileSize > model.MaxVideoFileSize {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("Video file exceeds the %d byte limit", model.MaxVideoFileSize), nil)
	}
	if input.CleanBody != nil && input.CleanFileSize > model.MaxVideoFileSize {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("Clean video file exceeds the %d byte limit", model.MaxVideoFileSize), nil)
	}

	submission, err := c.GetStepSubmission(ctx, applicationID, step)
	if err != nil {
		return nil, err
	}
	if !submission.Materialized() {
		return nil, apierror.NewAPIError(apierror.ErrConflict,
			fmt.Sprintf("Submission for step %d has not confirmed the guide", step), nil)
	}

	switch submission.Status {
	case model.StatusGuideConfirmed, model.StatusVideoUploaded:
		if err := c.datasource.UpdateSubmissionStatus(ctx, submission.SubmissionID, submission.Status, model.StatusVideoUploading); err != nil {
			span.RecordError(err)
			return nil, err
		}
	case model.StatusVideoUploading:
		// A previous upload was interrupted; this attempt takes over.
	default:
		return nil, apierror.NewAPIError(apierror.ErrConflict,
			fmt.Sprintf("Submission '%s' cannot accept an upload while '%s'", submission.SubmissionID, submission.Status), nil)
	}

	version, err := c.NextVersion(ctx, submission)
	if err != nil {
		return nil, err
	}

	mainKey := BuildObjectKey(submission.UserID, submission.CampaignID, submission.SubmissionID, version, "main", input.FileName)
	mainURL, err := c.storage.Upload(ctx, mainKey, input.Body, input.FileSize, uploadProgress(progress))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var cleanKey, cleanURL string
	if input.CleanBody != nil {
		cleanKey = BuildObjectKey(submission.UserID, submission.CampaignID, submission.SubmissionID, version, "clean", input.CleanFileName)
		cleanURL, err = c.storage.Upload(ctx, cleanKey, input.CleanBody, input.CleanFileSize, nil)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	submission.VideoFilePath = mainKey
	submission.VideoFileURL = mainURL
	submission.VideoFileName = input.FileName
	submission.VideoFileSize = input.FileSize
	submission.CleanFilePath = cleanKey
	submission.CleanFileURL = cleanURL

	record := &model.VideoVersion{
		VersionID:    model.GenerateUUIDWithSuffix("ver"),
		SubmissionID: submission.SubmissionID,
		Version:      version,
		FilePath:     mainKey,
		FileURL:      mainURL,
		FileName:     input.FileName,
		FileSize:     input.FileSize,
		UploadedAt:   time.Now(),
	}
	if err := c.datasource.RecordVideoUpload(ctx, submission, record); err != nil {
		span.RecordError(err)
		return nil, err
	}
	submission.Status = model.StatusVideoUploaded

	if progress != nil {
		progress(100)
	}
	c.postSubmissionActions(ctx, submission)
	return submission, nil
}

// uploadProgress adapts byte-level storage progress to whole percentages that
// never regress.
func uploadProgress(fn UploadProgressFunc) ProgressFunc {
	if fn == nil {
		return nil
	}
	last := -1
	return func(transferred, total int64) {
		if total <= 0 {
			return
		}
		percent := int(transferred * 100 / total)
		if percent > 100 {
			percent = 100
		}
		if percent > last {
			last = percent
			fn(percent)
		}
	}
}

// SubmitSns records the public social post for an uploaded deliverable. The
// platform is inferred from the URL's domain.
func (c *Crewmark) SubmitSns(ctx context.Context, applicationID string, step int, postURL, adCode string) (*model.Submission, error) {
	ctx, span := workflowTracer.Start(ctx, "Recording social post")
	defer span.End()

	if postURL == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "A post URL is required", nil)
	}
	parsed, err := url.ParseRequestURI(postURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("Post URL '%s' is not a valid http(s) URL", postURL), err)
	}

	submission, err := c.GetStepSubmission(ctx, applicationID, step)
	if err != nil {
		return nil, err
	}
	if !submission.Materialized() {
		return nil, apierror.NewAPIError(apierror.ErrConflict,
			fmt.Sprintf("Submission for step %d is not awaiting a social post", step), nil)
	}

	platform := model.InferSnsPlatform(postURL)
	if err := c.datasource.UpdateSubmissionSns(ctx, submission.SubmissionID, platform, postURL, adCode); err != nil {
		span.RecordError(err)
		return nil, err
	}

	submission.SnsPlatform = platform
	submission.SnsURL = postURL
	submission.SnsAdCode = adCode
	submission.Status = model.StatusSnsSubmitted
	c.postSubmissionActions(ctx, submission)
	return submission, nil
}

// StartReview moves a submitted step into the review queue.
func (c *Crewmark) StartReview(ctx context.Context, submissionID string) (*model.Submission, error) {
	submission, err := c.datasource.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := c.datasource.UpdateSubmissionStatus(ctx, submissionID, model.StatusSnsSubmitted, model.StatusReviewPending); err != nil {
		return nil, err
	}
	submission.Status = model.StatusReviewPending
	c.postSubmissionActions(ctx, submission)
	return submission, nil
}

// ReviewSubmission records the review decision for a step. Approval completes
// the step; otherwise it is sent back for revision with the reviewer's notes.
func (c *Crewmark) ReviewSubmission(ctx context.Context, submissionID string, approve bool, notes string) (*model.Submission, error) {
	ctx, span := workflowTracer.Start(ctx, "Recording review decision")
	defer span.End()

	submission, err := c.datasource.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	to := model.StatusCompleted
	if !approve {
		to = model.StatusRevisionRequired
	}
	if err := c.datasource.UpdateSubmissionReview(ctx, submissionID, to, notes); err != nil {
		span.RecordError(err)
		return nil, err
	}

	submission.Status = to
	submission.RevisionNotes = notes
	c.postSubmissionActions(ctx, submission)
	return submission, nil
}

// PayStep pays out a completed step. The status move and the earn credit land
// in one database transaction; a paid step always has its ledger entry.
func (c *Crewmark) PayStep(ctx context.Context, submissionID string) (*model.Submission, error) {
	ctx, span := workflowTracer.Start(ctx, "Paying out completed step")
	defer span.End()

	submission, err := c.datasource.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	campaign, err := c.datasource.GetCampaignByID(ctx, submission.CampaignID)
	if err != nil {
		return nil, err
	}

	paidAt := time.Now()
	credit := &model.PointTransaction{
		TransactionID: model.GenerateUUIDWithSuffix("ptx"),
		UserID:        submission.UserID,
		Amount:        campaign.RewardAmount,
		Type:          model.PointEarn,
		Description:   fmt.Sprintf("Reward for campaign '%s' step %d", campaign.CampaignID, submission.StepNumber),
		CreatedAt:     paidAt,
	}

	if err := c.datasource.PaySubmission(ctx, submissionID, paidAt, credit); err != nil {
		span.RecordError(err)
		return nil, err
	}

	submission.Status = model.StatusPointsPaid
	submission.PointsAmount = credit.Amount
	submission.PointsPaidAt = &paidAt
	c.postSubmissionActions(ctx, submission)
	go func() {
		if err := c.queue.queueIndexData(credit.TransactionID, "point_transactions", credit); err != nil {
			notification.NotifyError(err)
		}
	}()
	return submission, nil
}

// ResetStep is the admin path out of revision_required. It rewinds the step to
// an earlier status so the creator can redo the flagged work.
func (c *Crewmark) ResetStep(ctx context.Context, submissionID string, to model.WorkflowStatus, notes string) (*model.Submission, error) {
	submission, err := c.datasource.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := c.datasource.ResetSubmission(ctx, submissionID, to, notes); err != nil {
		return nil, err
	}
	submission.Status = to
	submission.RevisionNotes = notes
	c.postSubmissionActions(ctx, submission)
	return submission, nil
}

// postSubmissionActions indexes the submission and fires its status webhook.
// Both are best-effort; failures are reported, never returned.
func (c *Crewmark) postSubmissionActions(_ context.Context, submission *model.Submission) {
	go func() {
		if err := c.queue.queueIndexData(submission.SubmissionID, "submissions", submission); err != nil {
			notification.NotifyError(err)
		}
		if err := SendWebhook(NewWebhook{
			Event:   getEventFromStatus(submission.Status),
			Payload: submission,
		}); err != nil {
			notification.NotifyError(err)
		}
	}()
}
