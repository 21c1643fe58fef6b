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
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"

	"github.com/crewmark/crewmark/model"
)

func TestRecordPointTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	txn := &model.PointTransaction{
		TransactionID: model.GenerateUUIDWithSuffix("ptx"),
		UserID:        gofakeit.UUID(),
		Amount:        500,
		Type:          model.PointEarn,
		Description:   "Step 2 reward",
		CreatedAt:     time.Now(),
	}

	mock.ExpectQuery("INSERT INTO crewmark.point_transactions").
		WithArgs(txn.TransactionID, txn.UserID, txn.Amount, txn.Type, txn.Description, txn.CreatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	recorded, err := ds.RecordPointTransaction(context.Background(), txn)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), recorded.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSumPointTransactions(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\)").
		WithArgs("usr_1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3000))

	sum, err := ds.SumPointTransactions(context.Background(), "usr_1")
	assert.NoError(t, err)
	assert.Equal(t, int64(3000), sum)
}

func TestRefreshUserBalance(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}

	mock.ExpectExec("INSERT INTO crewmark.users").
		WithArgs("usr_1", int64(3000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = ds.RefreshUserBalance(context.Background(), "usr_1", 3000)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPointTransactions(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	ds := Datasource{Conn: db}
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "transaction_id", "user_id", "amount", "type", "description", "created_at"}).
		AddRow(2, "ptx_2", "usr_1", -2000, "spend", "Withdrawal request", now).
		AddRow(1, "ptx_1", "usr_1", 5000, "earn", "Step 1 reward", now.Add(-time.Hour))

	mock.ExpectQuery("SELECT .* FROM crewmark.point_transactions").
		WithArgs("usr_1", 50, 0).
		WillReturnRows(rows)

	transactions, err := ds.GetPointTransactions(context.Background(), "usr_1", 50, 0)
	assert.NoError(t, err)
	assert.Len(t, transactions, 2)
	assert.Equal(t, int64(-2000), transactions[0].Amount)
	assert.Equal(t, model.PointEarn, transactions[1].Type)
}
