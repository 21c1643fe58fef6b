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

const withdrawalColumns = `id, withdrawal_id, user_id, amount, bank_name, branch_name, account_number, account_holder,
	payout_currency, payout_rate, payout_amount, status, notes, requested_at, processed_at`

func scanWithdrawal(row interface{ Scan(dest ...interface{}) error }) (*model.Withdrawal, error) {
	w := &model.Withdrawal{}
	var processedAt sql.NullTime
	err := row.Scan(
		&w.ID, &w.WithdrawalID, &w.UserID, &w.Amount,
		&w.Payout.BankName, &w.Payout.BranchName, &w.Payout.AccountNumber, &w.Payout.AccountHolder,
		&w.PayoutCurrency, &w.PayoutRate, &w.PayoutAmount, &w.Status, &w.Notes, &w.RequestedAt, &processedAt,
	)
	if err != nil {
		return nil, err
	}
	if processedAt.Valid {
		w.ProcessedAt = &processedAt.Time
	}
	return w, nil
}

// CreateWithdrawal inserts the withdrawal and its spend debit in one database
// transaction. A per-user advisory lock serializes concurrent requests and the
// balance is recomputed inside the transaction, so two requests racing each
// other cannot both pass the balance check.
func (d Datasource) CreateWithdrawal(ctx context.Context, w *model.Withdrawal, debit *model.PointTransaction) (*model.Withdrawal, error) {
	ctx, span := otel.Tracer("withdrawal.database").Start(ctx, "Creating withdrawal")
	defer span.End()

	tx, err := d.Conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelDefault})
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, w.UserID); err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to lock user ledger", err)
	}

	var balance int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM crewmark.point_transactions
		WHERE user_id = $1
	`, w.UserID).Scan(&balance)
	if err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check balance", err)
	}
	if balance < w.Amount {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("Requested %d points but balance is %d", w.Amount, balance), nil)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO crewmark.withdrawals
			(withdrawal_id, user_id, amount, bank_name, branch_name, account_number, account_holder,
			 payout_currency, payout_rate, payout_amount, status, notes, requested_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		 RETURNING id`,
		w.WithdrawalID, w.UserID, w.Amount, w.Payout.BankName, w.Payout.BranchName, w.Payout.AccountNumber, w.Payout.AccountHolder,
		w.PayoutCurrency, w.PayoutRate, w.PayoutAmount, w.Status, w.Notes, w.RequestedAt,
	).Scan(&w.ID)
	if err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create withdrawal", err)
	}

	if err := insertPointTransaction(ctx, tx, debit); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return w, nil
}

func (d Datasource) GetWithdrawalByID(ctx context.Context, id string) (*model.Withdrawal, error) {
	row := d.Conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM crewmark.withdrawals
		WHERE withdrawal_id = $1
	`, withdrawalColumns), id)

	w, err := scanWithdrawal(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Withdrawal with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve withdrawal", err)
	}
	return w, nil
}

func (d Datasource) GetAllWithdrawals(ctx context.Context, limit, offset int) ([]*model.Withdrawal, error) {
	rows, err := d.Conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM crewmark.withdrawals
		ORDER BY requested_at DESC
		LIMIT $1 OFFSET $2
	`, withdrawalColumns), limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve withdrawals", err)
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

func (d Datasource) GetWithdrawalsByStatus(ctx context.Context, statuses ...model.WithdrawalStatus) ([]*model.Withdrawal, error) {
	args := make([]interface{}, len(statuses))
	placeholders := ""
	for i, s := range statuses {
		if i > 0 {
			placeholders += ","
		}
		placeholders += fmt.Sprintf("$%d", i+1)
		args[i] = s
	}

	rows, err := d.Conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM crewmark.withdrawals
		WHERE status IN (%s)
		ORDER BY requested_at ASC
	`, withdrawalColumns, placeholders), args...)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve withdrawals", err)
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

func collectWithdrawals(rows *sql.Rows) ([]*model.Withdrawal, error) {
	var withdrawals []*model.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan withdrawal", err)
		}
		withdrawals = append(withdrawals, w)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to iterate withdrawals", err)
	}
	return withdrawals, nil
}

// UpdateWithdrawalStatus walks a withdrawal one edge forward. No ledger entry
// is written here; the debit happened at request time.
func (d Datasource) UpdateWithdrawalStatus(ctx context.Context, id string, from, to model.WithdrawalStatus, notes string, processedAt *time.Time) error {
	if !from.CanTransitionTo(to) {
		return apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Cannot move withdrawal from '%s' to '%s'", from, to), nil)
	}

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE crewmark.withdrawals
		SET status = $1, notes = $2, processed_at = $3
		WHERE withdrawal_id = $4 AND status = $5
	`, to, notes, processedAt, id, from)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update withdrawal status", err)
	}
	return requireOneRow(result, fmt.Sprintf("Withdrawal '%s' is no longer in status '%s'", id, from))
}

// RejectWithdrawal marks the withdrawal rejected and re-credits the debited
// points in the same database transaction. The compensating credit is not a
// caller responsibility; a rejected withdrawal always restores the balance.
func (d Datasource) RejectWithdrawal(ctx context.Context, id string, from model.WithdrawalStatus, notes string, credit *model.PointTransaction) error {
	ctx, span := otel.Tracer("withdrawal.database").Start(ctx, "Rejecting withdrawal")
	defer span.End()

	tx, err := d.Conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelDefault})
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	result, err := tx.ExecContext(ctx, `
		UPDATE crewmark.withdrawals
		SET status = $1, notes = $2, processed_at = NOW()
		WHERE withdrawal_id = $3 AND status = $4
	`, model.WithdrawalRejected, notes, id, from)
	if err != nil {
		span.RecordError(err)
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to reject withdrawal", err)
	}
	if err := requireOneRow(result, fmt.Sprintf("Withdrawal '%s' is no longer in status '%s'", id, from)); err != nil {
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
