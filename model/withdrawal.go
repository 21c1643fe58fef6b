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
	"time"

	"github.com/shopspring/decimal"
)

// MinWithdrawalPoints is the smallest balance a user may convert into a
// payout request.
const MinWithdrawalPoints = 1000

// WithdrawalStatus is the lifecycle status of a payout request.
type WithdrawalStatus string

const (
	WithdrawalPending            WithdrawalStatus = "pending"
	WithdrawalApproved           WithdrawalStatus = "approved"
	WithdrawalRejected           WithdrawalStatus = "rejected"
	WithdrawalTransferProcessing WithdrawalStatus = "transfer_processing"
	WithdrawalCompleted          WithdrawalStatus = "completed"
)

// withdrawalTransitions is the admin-driven status walk. The ledger debit
// happens at request time; only a rejection writes to the ledger again.
var withdrawalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalPending:            {WithdrawalApproved, WithdrawalRejected},
	WithdrawalApproved:           {WithdrawalTransferProcessing, WithdrawalRejected},
	WithdrawalTransferProcessing: {WithdrawalCompleted},
	WithdrawalRejected:           {},
	WithdrawalCompleted:          {},
}

// Valid reports whether s is a known withdrawal status.
func (s WithdrawalStatus) Valid() bool {
	_, ok := withdrawalTransitions[s]
	return ok
}

// CanTransitionTo reports whether the edge s -> next exists.
func (s WithdrawalStatus) CanTransitionTo(next WithdrawalStatus) bool {
	for _, t := range withdrawalTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// PayoutDetails is the external destination a completed withdrawal pays to.
type PayoutDetails struct {
	BankName      string `json:"bank_name"`
	BranchName    string `json:"branch_name,omitempty"`
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
}

// Withdrawal is a request to convert ledger balance into an external payout.
// Amount is in points; PayoutAmount is the converted currency amount at the
// rate captured when the request was made.
type Withdrawal struct {
	ID             int64            `json:"-"`
	WithdrawalID   string           `json:"withdrawal_id"`
	UserID         string           `json:"user_id"`
	Amount         int64            `json:"amount"`
	Payout         PayoutDetails    `json:"payout"`
	PayoutCurrency string           `json:"payout_currency"`
	PayoutRate     decimal.Decimal  `json:"payout_rate"`
	PayoutAmount   decimal.Decimal  `json:"payout_amount"`
	Status         WithdrawalStatus `json:"status"`
	Notes          string           `json:"notes,omitempty"`
	RequestedAt    time.Time        `json:"requested_at"`
	ProcessedAt    *time.Time       `json:"processed_at,omitempty"`
}

// ComputePayoutAmount fixes the currency amount for the requested points at
// the given conversion rate.
func (w *Withdrawal) ComputePayoutAmount(rate decimal.Decimal) {
	w.PayoutRate = rate
	w.PayoutAmount = decimal.NewFromInt(w.Amount).Mul(rate).Round(2)
}

// PayoutRecord is one row of an external payout report, matched against
// withdrawals during payout reconciliation.
type PayoutRecord struct {
	Reference     string          `json:"reference"`
	AccountHolder string          `json:"account_holder"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAt        time.Time       `json:"paid_at"`
}

// PayoutMatch pairs an external payout record with the withdrawal it settles.
type PayoutMatch struct {
	WithdrawalID string       `json:"withdrawal_id"`
	Record       PayoutRecord `json:"record"`
	Similarity   float64      `json:"similarity"`
}
