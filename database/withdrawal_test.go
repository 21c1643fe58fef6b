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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/crewmark/crewmark/internal/apierror"
	"github.com/crewmark/crewmark/model"
)

func newTestWithdrawal(userID string, amount int64) (*model.Withdrawal, *model.PointTransaction) {
	w := &model.Withdrawal{
		WithdrawalID: model.GenerateUUIDWithSuffix("wdr"),
		UserID:       userID,
		Amount:       amount,
		Payout: model.PayoutDetails{
			BankName:      "First Bank",
			AccountNumber: "0123456789",
			AccountHolder: "Jamie Doe",
		},
		PayoutCurrency: "USD",
		Status:         model.WithdrawalPending,
		RequestedAt:    time.Now(),
	}
	w.ComputePayoutAmount(decimal.NewFromInt(1))

	debit := &model.PointTransaction{
		TransactionID: model.GenerateUUIDWithSuffix("ptx"),
		UserID:        userID,
		Amount:        -amount,
		Type:          model.PointSpend,
		Description:   "Withdrawal request",
		CreatedAt:     time.Now(),
	}
	return w, debit
}

func TestCreateWithdrawal_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}
	w, debit := newTestWithdrawal("usr_1", 2000)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(w.UserID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\)").
		WithArgs(w.UserID).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(5000))
	mock.ExpectQuery("INSERT INTO crewmark.withdrawals").
		WithArgs(w.WithdrawalID, w.UserID, w.Amount, w.Payout.BankName, w.Payout.BranchName, w.Payout.AccountNumber, w.Payout.AccountHolder,
			w.PayoutCurrency, w.PayoutRate, w.PayoutAmount, w.Status, w.Notes, w.RequestedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec("INSERT INTO crewmark.point_transactions").
		WithArgs(debit.TransactionID, debit.UserID, debit.Amount, debit.Type, debit.Description, debit.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	created, err := ds.CreateWithdrawal(context.Background(), w, debit)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithdrawal_InsufficientBalance(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}
	w, debit := newTestWithdrawal("usr_1", 6000)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(w.UserID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\)").
		WithArgs(w.UserID).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(5000))
	mock.ExpectRollback()

	created, err := ds.CreateWithdrawal(context.Background(), w, debit)
	assert.Error(t, err)
	assert.Nil(t, created)

	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrInvalidInput, apiErr.Code)

	// neither the withdrawal nor the debit may land
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectWithdrawal_CreditsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	credit := &model.PointTransaction{
		TransactionID: model.GenerateUUIDWithSuffix("ptx"),
		UserID:        "usr_1",
		Amount:        2000,
		Type:          model.PointAdminAdd,
		Description:   "Withdrawal rejected",
		CreatedAt:     time.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE crewmark.withdrawals").
		WithArgs(model.WithdrawalRejected, "invalid account", "wdr_1", model.WithdrawalPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO crewmark.point_transactions").
		WithArgs(credit.TransactionID, credit.UserID, credit.Amount, credit.Type, credit.Description, credit.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = ds.RejectWithdrawal(context.Background(), "wdr_1", model.WithdrawalPending, "invalid account", credit)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectWithdrawal_AlreadyProcessed(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	credit := &model.PointTransaction{
		TransactionID: model.GenerateUUIDWithSuffix("ptx"),
		UserID:        "usr_1",
		Amount:        2000,
		Type:          model.PointAdminAdd,
		CreatedAt:     time.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE crewmark.withdrawals").
		WithArgs(model.WithdrawalRejected, "", "wdr_1", model.WithdrawalPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = ds.RejectWithdrawal(context.Background(), "wdr_1", model.WithdrawalPending, "", credit)
	assert.Error(t, err)

	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithdrawalStatus_IllegalEdge(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	err = ds.UpdateWithdrawalStatus(context.Background(), "wdr_1", model.WithdrawalPending, model.WithdrawalCompleted, "", nil)
	assert.Error(t, err)

	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)
}
