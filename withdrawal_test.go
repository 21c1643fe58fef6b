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

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/crewmark/crewmark/config"
	"github.com/crewmark/crewmark/database/mocks"
	"github.com/crewmark/crewmark/internal/apierror"
	"github.com/crewmark/crewmark/model"
)

func testPayout() model.PayoutDetails {
	return model.PayoutDetails{
		BankName:      "Kookmin Bank",
		AccountNumber: "110-234-567890",
		AccountHolder: "Kim Minji",
	}
}

// newTestCrewmarkWithRedis also wires a miniredis-backed client for the
// per-user withdrawal lock.
func newTestCrewmarkWithRedis(t *testing.T, ds *mocks.MockDataSource) (*Crewmark, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("an error '%s' occurred when starting miniredis", err)
	}
	t.Cleanup(mr.Close)

	svc, _ := newTestCrewmark(ds)
	config.MockConfig(&config.Configuration{
		Redis:  config.RedisConfig{Dns: mr.Addr()},
		Payout: config.PayoutConfig{Currency: "KRW", Rate: "2.2", MatchThreshold: intPtr(2)},
	})
	svc.redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return svc, mr
}

func TestRequestWithdrawal_BelowMinimum(t *testing.T) {
	ds := new(mocks.MockDataSource)
	svc, _ := newTestCrewmark(ds)

	_, err := svc.RequestWithdrawal(context.Background(), "usr_1", model.MinWithdrawalPoints-1, testPayout())
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrInvalidInput, apiErr.Code)
	ds.AssertNotCalled(t, "CreateWithdrawal", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestWithdrawal_RequiresPayoutDetails(t *testing.T) {
	ds := new(mocks.MockDataSource)
	svc, _ := newTestCrewmark(ds)

	payout := testPayout()
	payout.AccountHolder = ""
	_, err := svc.RequestWithdrawal(context.Background(), "usr_1", 2000, payout)
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrInvalidInput, apiErr.Code)
}

func TestRequestWithdrawal_Success(t *testing.T) {
	ds := new(mocks.MockDataSource)
	svc, _ := newTestCrewmarkWithRedis(t, ds)

	ds.On("CreateWithdrawal", mock.Anything, mock.MatchedBy(func(w *model.Withdrawal) bool {
		return w.UserID == "usr_1" &&
			w.Amount == 1000 &&
			w.Status == model.WithdrawalPending &&
			w.PayoutCurrency == "KRW" &&
			w.PayoutAmount.String() == "2200"
	}), mock.MatchedBy(func(debit *model.PointTransaction) bool {
		return debit.Amount == -1000 && debit.Type == model.PointSpend
	})).Return(&model.Withdrawal{WithdrawalID: "wdr_1", UserID: "usr_1", Amount: 1000, Status: model.WithdrawalPending}, nil)

	w, err := svc.RequestWithdrawal(context.Background(), "usr_1", 1000, testPayout())
	assert.NoError(t, err)
	assert.Equal(t, model.WithdrawalPending, w.Status)
	ds.AssertExpectations(t)
}

func TestRequestWithdrawal_InsufficientBalanceSurfaces(t *testing.T) {
	ds := new(mocks.MockDataSource)
	svc, _ := newTestCrewmarkWithRedis(t, ds)

	ds.On("CreateWithdrawal", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Requested 5000 points but balance is 1200", nil))

	_, err := svc.RequestWithdrawal(context.Background(), "usr_1", 5000, testPayout())
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrInvalidInput, apiErr.Code)
}

func TestRequestWithdrawal_ReleasesLock(t *testing.T) {
	ds := new(mocks.MockDataSource)
	svc, mr := newTestCrewmarkWithRedis(t, ds)

	ds.On("CreateWithdrawal", mock.Anything, mock.Anything, mock.Anything).
		Return(&model.Withdrawal{WithdrawalID: "wdr_1", Status: model.WithdrawalPending}, nil)

	_, err := svc.RequestWithdrawal(context.Background(), "usr_1", 1000, testPayout())
	assert.NoError(t, err)
	assert.False(t, mr.Exists("withdrawal:usr_1"))
}

func TestApproveWithdrawal_WalksStatus(t *testing.T) {
	ds := new(mocks.MockDataSource)
	svc, _ := newTestCrewmark(ds)

	ds.On("GetWithdrawalByID", mock.Anything, "wdr_1").
		Return(&model.Withdrawal{WithdrawalID: "wdr_1", Status: model.WithdrawalPending}, nil)
	ds.On("UpdateWithdrawalStatus", mock.Anything, "wdr_1", model.WithdrawalPending, model.WithdrawalApproved, "ok", (*time.Time)(nil)).Return(nil)

	w, err := svc.ApproveWithdrawal(context.Background(), "wdr_1", "ok")
	assert.NoError(t, err)
	assert.Equal(t, model.WithdrawalApproved, w.Status)
}

func TestCompleteWithdrawal_SetsProcessedAt(t *testing.T) {
	ds := new(mocks.MockDataSource)
	svc, _ := newTestCrewmark(ds)

	ds.On("GetWithdrawalByID", mock.Anything, "wdr_1").
		Return(&model.Withdrawal{WithdrawalID: "wdr_1", Status: model.WithdrawalTransferProcessing}, nil)
	ds.On("UpdateWithdrawalStatus", mock.Anything, "wdr_1", model.WithdrawalTransferProcessing, model.WithdrawalCompleted, "", mock.Anything).Return(nil)

	w, err := svc.CompleteWithdrawal(context.Background(), "wdr_1", "")
	assert.NoError(t, err)
	assert.Equal(t, model.WithdrawalCompleted, w.Status)
	assert.NotNil(t, w.ProcessedAt)
}

func TestRejectWithdrawal_CreditsBack(t *testing.T) {
	ds := new(mocks.MockDataSource)
	svc, _ := newTestCrewmark(ds)

	ds.On("GetWithdrawalByID", mock.Anything, "wdr_1").
		Return(&model.Withdrawal{WithdrawalID: "wdr_1", UserID: "usr_1", Amount: 3000, Status: model.WithdrawalPending}, nil)
	ds.On("RejectWithdrawal", mock.Anything, "wdr_1", model.WithdrawalPending, "account mismatch", mock.MatchedBy(func(credit *model.PointTransaction) bool {
		return credit.Amount == 3000 && credit.UserID == "usr_1" && credit.Type == model.PointBonus
	})).Return(nil)

	w, err := svc.RejectWithdrawal(context.Background(), "wdr_1", "account mismatch")
	assert.NoError(t, err)
	assert.Equal(t, model.WithdrawalRejected, w.Status)
	ds.AssertExpectations(t)
}

func TestRejectWithdrawal_CompletedIsFinal(t *testing.T) {
	ds := new(mocks.MockDataSource)
	svc, _ := newTestCrewmark(ds)

	ds.On("GetWithdrawalByID", mock.Anything, "wdr_1").
		Return(&model.Withdrawal{WithdrawalID: "wdr_1", Status: model.WithdrawalCompleted}, nil)

	_, err := svc.RejectWithdrawal(context.Background(), "wdr_1", "too late")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)
	ds.AssertNotCalled(t, "RejectWithdrawal", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
