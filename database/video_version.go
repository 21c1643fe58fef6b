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

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"

	"github.com/crewmark/crewmark/internal/apierror"
	"github.com/crewmark/crewmark/model"
)

// RecordVideoUpload appends one entry to a submission's version history and
// mirrors the new latest file onto the submission row, in one transaction.
// The history is append-only; prior entries are never touched.
func (d Datasource) RecordVideoUpload(ctx context.Context, sub *model.Submission, version *model.VideoVersion) error {
	ctx, span := otel.Tracer("version.database").Start(ctx, "Recording video upload")
	defer span.End()

	tx, err := d.Conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelDefault})
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if err := insertVideoVersion(ctx, tx, version); err != nil {
		span.RecordError(err)
		return err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE crewmark.campaign_submissions
		SET video_file_path = $1, video_file_url = $2, video_file_name = $3, video_file_size = $4,
		    clean_file_path = $5, clean_file_url = $6, workflow_status = $7, updated_at = NOW()
		WHERE submission_id = $8 AND workflow_status = $9
	`, version.FilePath, version.FileURL, version.FileName, version.FileSize,
		sub.CleanFilePath, sub.CleanFileURL, model.StatusVideoUploaded, sub.SubmissionID, model.StatusVideoUploading)
	if err != nil {
		span.RecordError(err)
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update submission with upload", err)
	}
	if err := requireOneRow(result, fmt.Sprintf("Submission '%s' is not uploading", sub.SubmissionID)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return nil
}

func insertVideoVersion(ctx context.Context, tx *sql.Tx, version *model.VideoVersion) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO crewmark.video_versions (version_id, submission_id, version, file_path, file_url, file_name, file_size, uploaded_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		version.VersionID, version.SubmissionID, version.Version, version.FilePath, version.FileURL, version.FileName, version.FileSize, version.UploadedAt,
	)
	if err != nil {
		if pqDuplicate(err) {
			return apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Version %d already recorded for submission '%s'", version.Version, version.SubmissionID), err)
		}
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record video version", err)
	}
	return nil
}

// BackfillLegacyVersion records a submission's pre-history current file as
// version 1. Files uploaded before version tracking carry no history row but
// still count as the first version.
func (d Datasource) BackfillLegacyVersion(ctx context.Context, sub *model.Submission) (*model.VideoVersion, error) {
	version := &model.VideoVersion{
		VersionID:    model.GenerateUUIDWithSuffix("ver"),
		SubmissionID: sub.SubmissionID,
		Version:      1,
		FilePath:     sub.VideoFilePath,
		FileURL:      sub.VideoFileURL,
		FileName:     sub.VideoFileName,
		FileSize:     sub.VideoFileSize,
		UploadedAt:   sub.UpdatedAt,
	}

	_, err := d.Conn.ExecContext(ctx,
		`INSERT INTO crewmark.video_versions (version_id, submission_id, version, file_path, file_url, file_name, file_size, uploaded_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (submission_id, version) DO NOTHING`,
		version.VersionID, version.SubmissionID, version.Version, version.FilePath, version.FileURL, version.FileName, version.FileSize, version.UploadedAt,
	)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to backfill legacy version", err)
	}
	return version, nil
}

// GetVideoVersions returns a submission's upload history newest-first, with
// the newest entry flagged as latest.
func (d Datasource) GetVideoVersions(ctx context.Context, submissionID string) ([]model.VideoVersion, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, version_id, submission_id, version, file_path, file_url, file_name, file_size, uploaded_at
		FROM crewmark.video_versions
		WHERE submission_id = $1
		ORDER BY version DESC
	`, submissionID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve video versions", err)
	}
	defer rows.Close()

	var versions []model.VideoVersion
	for rows.Next() {
		var v model.VideoVersion
		err := rows.Scan(&v.ID, &v.VersionID, &v.SubmissionID, &v.Version, &v.FilePath, &v.FileURL, &v.FileName, &v.FileSize, &v.UploadedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan video version", err)
		}
		v.Latest = len(versions) == 0
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to iterate video versions", err)
	}
	return versions, nil
}

func (d Datasource) GetMaxVideoVersion(ctx context.Context, submissionID string) (int, error) {
	var max int
	err := d.Conn.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0)
		FROM crewmark.video_versions
		WHERE submission_id = $1
	`, submissionID).Scan(&max)
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read max video version", err)
	}
	return max, nil
}

// pqDuplicate reports whether err is a postgres unique violation.
func pqDuplicate(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
