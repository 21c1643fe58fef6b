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
	"math"
	"strings"
	"time"
)

// WorkflowStatus is the lifecycle status of one deliverable step. The set is
// closed; transitions are validated against the table below rather than
// compared as free-form strings.
type WorkflowStatus string

const (
	StatusGuidePending     WorkflowStatus = "guide_pending"
	StatusGuideConfirmed   WorkflowStatus = "guide_confirmed"
	StatusVideoUploading   WorkflowStatus = "video_uploading"
	StatusVideoUploaded    WorkflowStatus = "video_uploaded"
	StatusSnsPending       WorkflowStatus = "sns_pending"
	StatusSnsSubmitted     WorkflowStatus = "sns_submitted"
	StatusReviewPending    WorkflowStatus = "review_pending"
	StatusCompleted        WorkflowStatus = "completed"
	StatusRevisionRequired WorkflowStatus = "revision_required"
	StatusPointsPaid       WorkflowStatus = "points_paid"
)

// MaxVideoFileSize is the upper bound for a single deliverable upload.
// Oversized files are rejected before any storage call is made.
const MaxVideoFileSize = 500 << 20 // 500 MB

// workflowOrder is the linear chain a step walks from first touch to payout.
// revision_required sits outside the chain; it shares review_pending's
// position for progress reporting.
var workflowOrder = []WorkflowStatus{
	StatusGuidePending,
	StatusGuideConfirmed,
	StatusVideoUploading,
	StatusVideoUploaded,
	StatusSnsPending,
	StatusSnsSubmitted,
	StatusReviewPending,
	StatusCompleted,
	StatusPointsPaid,
}

// workflowTransitions is the exhaustive edge set. Statuses never regress
// except out of revision_required, which only an admin reset leaves.
var workflowTransitions = map[WorkflowStatus][]WorkflowStatus{
	StatusGuidePending:     {StatusGuideConfirmed},
	StatusGuideConfirmed:   {StatusVideoUploading, StatusVideoUploaded},
	StatusVideoUploading:   {StatusVideoUploaded},
	StatusVideoUploaded:    {StatusVideoUploading, StatusSnsPending, StatusSnsSubmitted},
	StatusSnsPending:       {StatusSnsSubmitted},
	StatusSnsSubmitted:     {StatusReviewPending},
	StatusReviewPending:    {StatusCompleted, StatusRevisionRequired},
	StatusCompleted:        {StatusPointsPaid},
	StatusRevisionRequired: {StatusGuidePending, StatusGuideConfirmed, StatusVideoUploaded},
	StatusPointsPaid:       {},
}

// Valid reports whether s is a member of the closed status set.
func (s WorkflowStatus) Valid() bool {
	_, ok := workflowTransitions[s]
	return ok
}

// CanTransitionTo reports whether the edge s -> next exists in the workflow.
func (s WorkflowStatus) CanTransitionTo(next WorkflowStatus) bool {
	for _, t := range workflowTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Position returns the index of s along the linear workflow chain.
func (s WorkflowStatus) Position() int {
	if s == StatusRevisionRequired {
		s = StatusReviewPending
	}
	for i, st := range workflowOrder {
		if st == s {
			return i
		}
	}
	return 0
}

// Progress returns the percentage position of s along the workflow chain,
// rounded to the nearest integer.
func (s WorkflowStatus) Progress() int {
	return int(math.Round(float64(s.Position()) / float64(len(workflowOrder)-1) * 100))
}

// Done reports whether the step counts toward campaign completion.
func (s WorkflowStatus) Done() bool {
	return s == StatusCompleted || s == StatusPointsPaid
}

// SnsPlatform identifies the social network a post link points at.
type SnsPlatform string

const (
	PlatformInstagram SnsPlatform = "instagram"
	PlatformTiktok    SnsPlatform = "tiktok"
	PlatformYoutube   SnsPlatform = "youtube"
	PlatformOther     SnsPlatform = "other"
)

// InferSnsPlatform derives the platform from a post URL by substring match
// against the known domains.
func InferSnsPlatform(rawURL string) SnsPlatform {
	u := strings.ToLower(rawURL)
	switch {
	case strings.Contains(u, "instagram.com"):
		return PlatformInstagram
	case strings.Contains(u, "tiktok.com"):
		return PlatformTiktok
	case strings.Contains(u, "youtube.com"), strings.Contains(u, "youtu.be"):
		return PlatformYoutube
	default:
		return PlatformOther
	}
}

// Submission is one creator's deliverable record for one step of one campaign
// application. The video file fields mirror the latest entry of the version
// history for fast access; the full ordered history lives in VideoVersion.
type Submission struct {
	ID            int64          `json:"-"`
	SubmissionID  string         `json:"submission_id"`
	ApplicationID string         `json:"application_id"`
	CampaignID    string         `json:"campaign_id"`
	UserID        string         `json:"user_id"`
	StepNumber    int            `json:"step_number"`
	Status        WorkflowStatus `json:"workflow_status"`

	VideoFilePath string `json:"video_file_path,omitempty"`
	VideoFileURL  string `json:"video_file_url,omitempty"`
	VideoFileName string `json:"video_file_name,omitempty"`
	VideoFileSize int64  `json:"video_file_size,omitempty"`
	CleanFilePath string `json:"clean_file_path,omitempty"`
	CleanFileURL  string `json:"clean_file_url,omitempty"`

	SnsPlatform SnsPlatform `json:"sns_platform,omitempty"`
	SnsURL      string      `json:"sns_url,omitempty"`
	SnsAdCode   string      `json:"sns_ad_code,omitempty"`

	RevisionNotes string     `json:"revision_notes,omitempty"`
	PointsAmount  int64      `json:"points_amount,omitempty"`
	PointsPaidAt  *time.Time `json:"points_paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Versions []VideoVersion `json:"versions,omitempty"`
}

// NewSubmission returns the virtual default for a step that has no persisted
// row yet. The first mutating operation materializes it.
func NewSubmission(applicationID, campaignID, userID string, step int) *Submission {
	return &Submission{
		SubmissionID:  GenerateUUIDWithSuffix("sub"),
		ApplicationID: applicationID,
		CampaignID:    campaignID,
		UserID:        userID,
		StepNumber:    step,
		Status:        StatusGuidePending,
		CreatedAt:     time.Now(),
	}
}

// Materialized reports whether the submission is backed by a persisted row.
func (s *Submission) Materialized() bool {
	return s.ID != 0
}

// HasLegacyFile reports whether the submission carries a current file with no
// version history row. Such a file predates version tracking and counts as
// version 1.
func (s *Submission) HasLegacyFile() bool {
	return s.VideoFilePath != ""
}

// VideoVersion is one immutable entry in a submission's upload history.
// Version numbers are strictly increasing with no gaps, starting at 1.
type VideoVersion struct {
	ID           int64     `json:"-"`
	VersionID    string    `json:"version_id"`
	SubmissionID string    `json:"submission_id"`
	Version      int       `json:"version"`
	FilePath     string    `json:"file_path"`
	FileURL      string    `json:"file_url"`
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size"`
	Latest       bool      `json:"latest"`
	UploadedAt   time.Time `json:"uploaded_at"`
}
