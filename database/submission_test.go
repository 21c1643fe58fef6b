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
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/crewmark/crewmark/internal/apierror"
	"github.com/crewmark/crewmark/model"
)

func TestCreateSubmission(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}
	sub := model.NewSubmission("app_1", "cmp_1", "usr_1", 1)

	mock.ExpectQuery("INSERT INTO crewmark.campaign_submissions").
		WithArgs(sub.SubmissionID, sub.ApplicationID, sub.CampaignID, sub.UserID, sub.StepNumber, sub.Status,
			"", "", "", int64(0), "", "", model.SnsPlatform(""), "", "", "", int64(0), sub.CreatedAt, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	created, err := ds.CreateSubmission(context.Background(), sub)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)
	assert.True(t, created.Materialized())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSubmission_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	mock.ExpectQuery("SELECT .* FROM crewmark.campaign_submissions").
		WithArgs("app_1", 3).
		WillReturnRows(sqlmock.NewRows(nil))

	sub, err := ds.GetSubmission(context.Background(), "app_1", 3)
	assert.Error(t, err)
	assert.Nil(t, sub)

	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}

func TestUpdateSubmissionStatus_CAS(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	mock.ExpectExec("UPDATE crewmark.campaign_submissions").
		WithArgs(model.StatusGuideConfirmed, "sub_1", model.StatusGuidePending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = ds.UpdateSubmissionStatus(context.Background(), "sub_1", model.StatusGuidePending, model.StatusGuideConfirmed)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSubmissionStatus_LostRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	// another session confirmed first: zero rows match the expected status
	mock.ExpectExec("UPDATE crewmark.campaign_submissions").
		WithArgs(model.StatusGuideConfirmed, "sub_1", model.StatusGuidePending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = ds.UpdateSubmissionStatus(context.Background(), "sub_1", model.StatusGuidePending, model.StatusGuideConfirmed)
	assert.Error(t, err)

	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)
}

func TestUpdateSubmissionStatus_IllegalEdge(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	// no SQL is expected: the transition table rejects the edge first
	err = ds.UpdateSubmissionStatus(context.Background(), "sub_1", model.StatusGuidePending, model.StatusPointsPaid)
	assert.Error(t, err)

	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)
}

func TestPaySubmission_AtomicWithCredit(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}
	paidAt := time.Now()

	credit := &model.PointTransaction{
		TransactionID: model.GenerateUUIDWithSuffix("ptx"),
		UserID:        "usr_1",
		Amount:        500,
		Type:          model.PointEarn,
		Description:   "Step 1 reward",
		CreatedAt:     paidAt,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE crewmark.campaign_submissions").
		WithArgs(model.StatusPointsPaid, credit.Amount, paidAt, "sub_1", model.StatusCompleted).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO crewmark.point_transactions").
		WithArgs(credit.TransactionID, credit.UserID, credit.Amount, credit.Type, credit.Description, credit.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = ds.PaySubmission(context.Background(), "sub_1", paidAt, credit)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaySubmission_NotCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}
	paidAt := time.Now()

	credit := &model.PointTransaction{
		TransactionID: model.GenerateUUIDWithSuffix("ptx"),
		UserID:        "usr_1",
		Amount:        500,
		Type:          model.PointEarn,
		CreatedAt:     paidAt,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE crewmark.campaign_submissions").
		WithArgs(model.StatusPointsPaid, credit.Amount, paidAt, "sub_1", model.StatusCompleted).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = ds.PaySubmission(context.Background(), "sub_1", paidAt, credit)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSubmissionSns(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	mock.ExpectExec("UPDATE crewmark.campaign_submissions").
		WithArgs(model.PlatformInstagram, "https://instagram.com/p/abc", "AD123", model.StatusSnsSubmitted,
			"sub_1", model.StatusVideoUploaded, model.StatusSnsPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = ds.UpdateSubmissionSns(context.Background(), "sub_1", model.PlatformInstagram, "https://instagram.com/p/abc", "AD123")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
