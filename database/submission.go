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

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/crewmark/crewmark/internal/apierror"
	"github.com/crewmark/crewmark/model"
)

const submissionColumns = `id, submission_id, application_id, campaign_id, user_id, step_number, workflow_status,
	video_file_path, video_file_url, video_file_name, video_file_size, clean_file_path, clean_file_url,
	sns_platform, sns_url, sns_ad_code, revision_notes, points_amount, points_paid_at, created_at, updated_at`

func scanSubmission(row interface{ Scan(dest ...interface{}) error }) (*model.Submission, error) {
	sub := &model.Submission{}
	var paidAt sql.NullTime
	err := row.Scan(
		&sub.ID, &sub.SubmissionID, &sub.ApplicationID, &sub.CampaignID, &sub.UserID, &sub.StepNumber, &sub.Status,
		&sub.VideoFilePath, &sub.VideoFileURL, &sub.VideoFileName, &sub.VideoFileSize, &sub.CleanFilePath, &sub.CleanFileURL,
		&sub.SnsPlatform, &sub.SnsURL, &sub.SnsAdCode, &sub.RevisionNotes, &sub.PointsAmount, &paidAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		sub.PointsPaidAt = &paidAt.Time
	}
	return sub, nil
}

func (d Datasource) CreateSubmission(ctx context.Context, sub *model.Submission) (*model.Submission, error) {
	ctx, span := otel.Tracer("submission.database").Start(ctx, "Saving submission to db")
	defer span.End()

	sub.UpdatedAt = time.Now()
	err := d.Conn.QueryRowContext(ctx,
		`INSERT INTO crewmark.campaign_submissions
			(submission_id, application_id, campaign_id, user_id, step_number, workflow_status,
			 video_file_path, video_file_url, video_file_name, video_file_size, clean_file_path, clean_file_url,
			 sns_platform, sns_url, sns_ad_code, revision_notes, points_amount, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		 RETURNING id`,
		sub.SubmissionID, sub.ApplicationID, sub.CampaignID, sub.UserID, sub.StepNumber, sub.Status,
		sub.VideoFilePath, sub.VideoFileURL, sub.VideoFileName, sub.VideoFileSize, sub.CleanFilePath, sub.CleanFileURL,
		sub.SnsPlatform, sub.SnsURL, sub.SnsAdCode, sub.RevisionNotes, sub.PointsAmount, sub.CreatedAt, sub.UpdatedAt,
	).Scan(&sub.ID)
	if err != nil {
		span.RecordError(err)
		if pqDuplicate(err) {
			return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Submission for step %d already exists", sub.StepNumber), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create submission", err)
	}
	return sub, nil
}

func (d Datasource) GetSubmission(ctx context.Context, applicationID string, step int) (*model.Submission, error) {
	row := d.Conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM crewmark.campaign_submissions
		WHERE application_id = $1 AND step_number = $2
	`, submissionColumns), applicationID, step)

	sub, err := scanSubmission(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Submission for application '%s' step %d not found", applicationID, step), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve submission", err)
	}
	return sub, nil
}

func (d Datasource) GetSubmissionByID(ctx context.Context, submissionID string) (*model.Submission, error) {
	row := d.Conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM crewmark.campaign_submissions
		WHERE submission_id = $1
	`, submissionColumns), submissionID)

	sub, err := scanSubmission(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Submission with ID '%s' not found", submissionID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve submission", err)
	}
	return sub, nil
}

func (d Datasource) GetSubmissionsByApplication(ctx context.Context, applicationID string) ([]*model.Submission, error) {
	rows, err := d.Conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM crewmark.campaign_submissions
		WHERE application_id = $1
		ORDER BY step_number ASC
	`, submissionColumns), applicationID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve submissions", err)
	}
	defer rows.Close()

	var submissions []*model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan submission", err)
		}
		submissions = append(submissions, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to iterate submissions", err)
	}
	return submissions, nil
}

// UpdateSubmissionStatus moves a submission along one workflow edge. The
// update is conditional on the row still holding the expected status; zero
// affected rows means another session got there first.
func (d Datasource) UpdateSubmissionStatus(ctx context.Context, submissionID string, from, to model.WorkflowStatus) error {
	ctx, span := otel.Tracer("submission.database").Start(ctx, "Updating submission status")
	defer span.End()

	if !from.CanTransitionTo(to) {
		return apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Cannot move submission from '%s' to '%s'", from, to), nil)
	}

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE crewmark.campaign_submissions
		SET workflow_status = $1, updated_at = NOW()
		WHERE submission_id = $2 AND workflow_status = $3
	`, to, submissionID, from)
	if err != nil {
		span.RecordError(err)
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update submission status", err)
	}
	return requireOneRow(result, fmt.Sprintf("Submission '%s' is no longer in status '%s'", submissionID, from))
}

func (d Datasource) UpdateSubmissionSns(ctx context.Context, submissionID string, platform model.SnsPlatform, url, adCode string) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE crewmark.campaign_submissions
		SET sns_platform = $1, sns_url = $2, sns_ad_code = $3, workflow_status = $4, updated_at = NOW()
		WHERE submission_id = $5 AND workflow_status IN ($6, $7)
	`, platform, url, adCode, model.StatusSnsSubmitted, submissionID, model.StatusVideoUploaded, model.StatusSnsPending)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record social post", err)
	}
	return requireOneRow(result, fmt.Sprintf("Submission '%s' is not awaiting a social post", submissionID))
}

func (d Datasource) UpdateSubmissionReview(ctx context.Context, submissionID string, to model.WorkflowStatus, notes string) error {
	if to != model.StatusCompleted && to != model.StatusRevisionRequired {
		return apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("Invalid review outcome '%s'", to), nil)
	}

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE crewmark.campaign_submissions
		SET workflow_status = $1, revision_notes = $2, updated_at = NOW()
		WHERE submission_id = $3 AND workflow_status = $4
	`, to, notes, submissionID, model.StatusReviewPending)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record review decision", err)
	}
	return requireOneRow(result, fmt.Sprintf("Submission '%s' is not awaiting review", submissionID))
}

// PaySubmission marks a completed step paid and credits the step's reward in
// the same database transaction, so a paid step always has its ledger entry.
func (d Datasource) PaySubmission(ctx context.Context, submissionID string, paidAt time.Time, credit *model.PointTransaction) error {
	ctx, span := otel.Tracer("submission.database").Start(ctx, "Paying submission")
	defer span.End()

	tx, err := d.Conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelDefault})
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	result, err := tx.ExecContext(ctx, `
		UPDATE crewmark.campaign_submissions
		SET workflow_status = $1, points_amount = $2, points_paid_at = $3, updated_at = NOW()
		WHERE submission_id = $4 AND workflow_status = $5
	`, model.StatusPointsPaid, credit.Amount, paidAt, submissionID, model.StatusCompleted)
	if err != nil {
		span.RecordError(err)
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to mark submission paid", err)
	}
	if err := requireOneRow(result, fmt.Sprintf("Submission '%s' is not completed", submissionID)); err != nil {
		return err
	}

	if err := insertPointTransaction(ctx, tx, credit); err != nil {
		span.RecordError(err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return nil
}

// ResetSubmission is the admin escape hatch out of revision_required. It is
// the only path that moves a submission backwards.
func (d Datasource) ResetSubmission(ctx context.Context, submissionID string, to model.WorkflowStatus, notes string) error {
	if !model.StatusRevisionRequired.CanTransitionTo(to) {
		return apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("Cannot reset submission to '%s'", to), nil)
	}

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE crewmark.campaign_submissions
		SET workflow_status = $1, revision_notes = $2, updated_at = NOW()
		WHERE submission_id = $3 AND workflow_status = $4
	`, to, notes, submissionID, model.StatusRevisionRequired)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to reset submission", err)
	}
	return requireOneRow(result, fmt.Sprintf("Submission '%s' does not require revision", submissionID))
}

// requireOneRow converts a zero-row conditional update into a conflict error.
func requireOneRow(result sql.Result, msg string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read affected rows", err)
	}
	if affected == 0 {
		return apierror.NewAPIError(apierror.ErrConflict, msg, nil)
	}
	return nil
}
