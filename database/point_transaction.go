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

	"go.opentelemetry.io/otel"

	"github.com/crewmark/crewmark/internal/apierror"
	"github.com/crewmark/crewmark/model"
)

// RecordPointTransaction appends one signed entry to the points ledger. The
// ledger is insert-only; there is no update or delete path.
func (d Datasource) RecordPointTransaction(ctx context.Context, txn *model.PointTransaction) (*model.PointTransaction, error) {
	ctx, span := otel.Tracer("points.database").Start(ctx, "Saving point transaction to db")
	defer span.End()

	err := d.Conn.QueryRowContext(ctx,
		`INSERT INTO crewmark.point_transactions (transaction_id, user_id, amount, type, description, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING id`,
		txn.TransactionID, txn.UserID, txn.Amount, txn.Type, txn.Description, txn.CreatedAt,
	).Scan(&txn.ID)
	if err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record point transaction", err)
	}
	return txn, nil
}

// insertPointTransaction is the in-transaction variant used when a ledger
// entry must land together with another row.
func insertPointTransaction(ctx context.Context, tx *sql.Tx, txn *model.PointTransaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO crewmark.point_transactions (transaction_id, user_id, amount, type, description, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		txn.TransactionID, txn.UserID, txn.Amount, txn.Type, txn.Description, txn.CreatedAt,
	)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record point transaction", err)
	}
	return nil
}

func (d Datasource) GetPointTransactions(ctx context.Context, userID string, limit, offset int) ([]*model.PointTransaction, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, transaction_id, user_id, amount, type, description, created_at
		FROM crewmark.point_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve point transactions", err)
	}
	defer rows.Close()

	var transactions []*model.PointTransaction
	for rows.Next() {
		txn := &model.PointTransaction{}
		err := rows.Scan(&txn.ID, &txn.TransactionID, &txn.UserID, &txn.Amount, &txn.Type, &txn.Description, &txn.CreatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan point transaction", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to iterate point transactions", err)
	}
	return transactions, nil
}

// SumPointTransactions derives a user's balance from the full ledger. The sum
// is the source of truth; the users row only mirrors it.
func (d Datasource) SumPointTransactions(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := d.Conn.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM crewmark.point_transactions
		WHERE user_id = $1
	`, userID).Scan(&sum)
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to sum point transactions", err)
	}
	return sum, nil
}

// RefreshUserBalance mirrors a freshly derived balance onto the user row. The
// mirror is a read-path convenience, never consulted for ledger decisions.
func (d Datasource) RefreshUserBalance(ctx context.Context, userID string, balance int64) error {
	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO crewmark.users (user_id, points_balance, balance_refreshed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET points_balance = $2, balance_refreshed_at = NOW()
	`, userID, balance)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to refresh user balance", err)
	}
	return nil
}
