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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/crewmark/crewmark/database/mocks"
	"github.com/crewmark/crewmark/internal/apierror"
	"github.com/crewmark/crewmark/model"
)

func TestCreditPoints_RejectsNonPositiveAmount(t *testing.T) {
	ds := new(mocks.MockDataSource)
	svc, _ := newTestCrewmark(ds)

	for _, amount := range []int64{0, -50} {
		_, err := svc.CreditPoints(context.Background(), "usr_1", amount, model.PointBonus, "test")
		assert.Error(t, err)
		apiErr, ok := err.(apierror.APIError)
		assert.True(t, ok)
		assert.Equal(t, apierror.ErrInvalidInput, apiErr.Code)
	}
	ds.AssertNotCalled(t, "RecordPointTransaction", mock.Anything, mock.Anything)
}

func TestCreditPoints_RejectsDebitType(t *testing.T) {
	ds := new(mocks.MockDataSource)
	svc, _ := newTestCrewmark(ds)

	_, err := svc.CreditPoints(context.Background(), "usr_1", 100, model.PointSpend, "test")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrInvalidInput, apiErr.Code)
}

func TestCreditPoints_AppendsPositiveEntry(t *testing.T) {
	ds := new(mocks.MockDataSource)
	svc, _ := newTestCrewmark(ds)

	ds.On("RecordPointTransaction", mock.Anything, mock.MatchedBy(func(txn *model.PointTransaction) bool {
		return txn.Amount == 300 && txn.Type == model.PointAdminAdd && txn.UserID == "usr_1"
	})).Return(&model.PointTransaction{ID: 1, TransactionID: "ptx_1", UserID: "usr_1", Amount: 300, Type: model.PointAdminAdd}, nil)

	txn, err := svc.CreditPoints(context.Background(), "usr_1", 300, model.PointAdminAdd, "monthly bonus")
	assert.NoError(t, err)
	assert.Equal(t, int64(300), txn.Amount)
	ds.AssertExpectations(t)
}

func TestDebitPoints_StoredNegative(t *testing.T) {
	ds := new(mocks.MockDataSource)
	svc, _ := newTestCrewmark(ds)

	ds.On("RecordPointTransaction", mock.Anything, mock.MatchedBy(func(txn *model.PointTransaction) bool {
		return txn.Amount == -200 && txn.Type == model.PointAdminSubtract
	})).Return(&model.PointTransaction{ID: 2, TransactionID: "ptx_2", UserID: "usr_1", Amount: -200, Type: model.PointAdminSubtract}, nil)

	txn, err := svc.DebitPoints(context.Background(), "usr_1", 200, model.PointAdminSubtract, "correction")
	assert.NoError(t, err)
	assert.Equal(t, int64(-200), txn.Amount)
	ds.AssertExpectations(t)
}

func TestGetBalance_SumsLedgerAndRefreshesMirror(t *testing.T) {
	ds := new(mocks.MockDataSource)
	svc, _ := newTestCrewmark(ds)

	refreshed := make(chan int64, 1)
	ds.On("SumPointTransactions", mock.Anything, "usr_1").Return(int64(1500), nil)
	ds.On("RefreshUserBalance", mock.Anything, "usr_1", int64(1500)).Run(func(args mock.Arguments) {
		refreshed <- args.Get(2).(int64)
	}).Return(nil)

	balance, err := svc.GetBalance(context.Background(), "usr_1")
	assert.NoError(t, err)
	assert.Equal(t, int64(1500), balance.Balance)

	select {
	case mirrored := <-refreshed:
		assert.Equal(t, int64(1500), mirrored)
	case <-time.After(time.Second):
		t.Fatal("mirror refresh never ran")
	}
}

func TestGetBalance_ClampsNegativeForDisplay(t *testing.T) {
	ds := new(mocks.MockDataSource)
	svc, _ := newTestCrewmark(ds)

	done := make(chan struct{}, 1)
	ds.On("SumPointTransactions", mock.Anything, "usr_1").Return(int64(-200), nil)
	// The mirror keeps the raw sum; only the returned view is clamped.
	ds.On("RefreshUserBalance", mock.Anything, "usr_1", int64(-200)).Run(func(mock.Arguments) {
		done <- struct{}{}
	}).Return(nil)

	balance, err := svc.GetBalance(context.Background(), "usr_1")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), balance.Balance)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mirror refresh never ran")
	}
}
