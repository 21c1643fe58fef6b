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
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/crewmark/crewmark/internal/apierror"
	"github.com/crewmark/crewmark/internal/notification"
	"github.com/crewmark/crewmark/model"
)

var pointsTracer = otel.Tracer("crewmark.points")

// CreditPoints appends a positive entry to a user's ledger. The type must be
// a credit type; the amount must be positive.
func (c *Crewmark) CreditPoints(ctx context.Context, userID string, amount int64, txnType model.PointTransactionType, description string) (*model.PointTransaction, error) {
	ctx, span := pointsTracer.Start(ctx, "Crediting points")
	defer span.End()

	if amount <= 0 {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Credit amount must be positive", nil)
	}
	if !txnType.Valid() || !txnType.Credit() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("'%s' is not a credit type", txnType), nil)
	}

	txn := &model.PointTransaction{
		TransactionID: model.GenerateUUIDWithSuffix("ptx"),
		UserID:        userID,
		Amount:        amount,
		Type:          txnType,
		Description:   description,
		CreatedAt:     time.Now(),
	}
	recorded, err := c.datasource.RecordPointTransaction(ctx, txn)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	c.postPointActions(recorded)
	return recorded, nil
}

// DebitPoints appends a negative entry to a user's ledger. The amount is
// passed positive and stored negative.
func (c *Crewmark) DebitPoints(ctx context.Context, userID string, amount int64, txnType model.PointTransactionType, description string) (*model.PointTransaction, error) {
	ctx, span := pointsTracer.Start(ctx, "Debiting points")
	defer span.End()

	if amount <= 0 {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Debit amount must be positive", nil)
	}
	if !txnType.Valid() || txnType.Credit() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("'%s' is not a debit type", txnType), nil)
	}

	txn := &model.PointTransaction{
		TransactionID: model.GenerateUUIDWithSuffix("ptx"),
		UserID:        userID,
		Amount:        -amount,
		Type:          txnType,
		Description:   description,
		CreatedAt:     time.Now(),
	}
	recorded, err := c.datasource.RecordPointTransaction(ctx, txn)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	c.postPointActions(recorded)
	return recorded, nil
}

// GetBalance derives a user's balance by summing their ledger and mirrors the
// result onto the user row. The mirror is a read-path cache; the ledger stays
// the source of truth. Display is clamped at zero, the raw sum is preserved.
func (c *Crewmark) GetBalance(ctx context.Context, userID string) (*model.UserBalance, error) {
	sum, err := c.datasource.SumPointTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Detach from the request context so the mirror write survives the
	// response, keeping the span for trace continuity.
	refreshCtx := trace.ContextWithSpan(context.Background(), trace.SpanFromContext(ctx))
	go func() {
		if err := c.datasource.RefreshUserBalance(refreshCtx, userID, sum); err != nil {
			notification.NotifyError(err)
		}
	}()

	balance := sum
	if balance < 0 {
		balance = 0
	}
	return &model.UserBalance{
		UserID:      userID,
		Balance:     balance,
		RefreshedAt: time.Now(),
	}, nil
}

// GetPointTransactions returns a page of a user's ledger, newest first.
func (c *Crewmark) GetPointTransactions(ctx context.Context, userID string, limit, offset int) ([]*model.PointTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	return c.datasource.GetPointTransactions(ctx, userID, limit, offset)
}

// postPointActions indexes the new ledger entry. Best-effort.
func (c *Crewmark) postPointActions(txn *model.PointTransaction) {
	go func() {
		if err := c.queue.queueIndexData(txn.TransactionID, "point_transactions", txn); err != nil {
			notification.NotifyError(err)
		}
	}()
}
