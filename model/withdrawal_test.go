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
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWithdrawalTransitions(t *testing.T) {
	assert.True(t, WithdrawalPending.CanTransitionTo(WithdrawalApproved))
	assert.True(t, WithdrawalPending.CanTransitionTo(WithdrawalRejected))
	assert.True(t, WithdrawalApproved.CanTransitionTo(WithdrawalTransferProcessing))
	assert.True(t, WithdrawalTransferProcessing.CanTransitionTo(WithdrawalCompleted))
	assert.False(t, WithdrawalPending.CanTransitionTo(WithdrawalCompleted))
	assert.False(t, WithdrawalRejected.CanTransitionTo(WithdrawalApproved))
	assert.False(t, WithdrawalCompleted.CanTransitionTo(WithdrawalPending))
}

func TestComputePayoutAmount(t *testing.T) {
	w := &Withdrawal{Amount: 2000}
	w.ComputePayoutAmount(decimal.RequireFromString("1.1"))
	assert.Equal(t, "2200", w.PayoutAmount.String())

	w = &Withdrawal{Amount: 1500}
	w.ComputePayoutAmount(decimal.RequireFromString("0.875"))
	assert.Equal(t, "1312.5", w.PayoutAmount.String())
}

func TestPointTransactionType(t *testing.T) {
	assert.True(t, PointEarn.Credit())
	assert.True(t, PointBonus.Credit())
	assert.True(t, PointAdminAdd.Credit())
	assert.False(t, PointSpend.Credit())
	assert.False(t, PointAdminSubtract.Credit())
	assert.False(t, PointTransactionType("refund").Valid())
}
