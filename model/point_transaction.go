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

import "time"

// PointTransactionType classifies a ledger entry. Credit types carry positive
// amounts, debit types negative.
type PointTransactionType string

const (
	PointEarn          PointTransactionType = "earn"
	PointBonus         PointTransactionType = "bonus"
	PointAdminAdd      PointTransactionType = "admin_add"
	PointSpend         PointTransactionType = "spend"
	PointAdminSubtract PointTransactionType = "admin_subtract"
)

// Valid reports whether t is a known transaction type.
func (t PointTransactionType) Valid() bool {
	switch t {
	case PointEarn, PointBonus, PointAdminAdd, PointSpend, PointAdminSubtract:
		return true
	}
	return false
}

// Credit reports whether t records points flowing to the user.
func (t PointTransactionType) Credit() bool {
	switch t {
	case PointEarn, PointBonus, PointAdminAdd:
		return true
	}
	return false
}

// PointTransaction is one immutable entry in a user's points ledger. The
// ledger is append-only; a balance is always the sum of a user's amounts.
type PointTransaction struct {
	ID            int64                `json:"-"`
	TransactionID string               `json:"transaction_id"`
	UserID        string               `json:"user_id"`
	Amount        int64                `json:"amount"`
	Type          PointTransactionType `json:"type"`
	Description   string               `json:"description"`
	CreatedAt     time.Time            `json:"created_at"`
}

// UserBalance is the derived spendable balance of one user. Balance is
// clamped at zero for display; the underlying ledger is never corrected.
type UserBalance struct {
	UserID      string    `json:"user_id"`
	Balance     int64     `json:"balance"`
	RefreshedAt time.Time `json:"refreshed_at"`
}
