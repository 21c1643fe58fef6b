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

	"github.com/wacul/ptr"
	"go.opentelemetry.io/otel"

	"github.com/crewmark/crewmark/config"
	"github.com/crewmark/crewmark/internal/apierror"
	redlock "github.com/crewmark/crewmark/internal/lock"
	"github.com/crewmark/crewmark/internal/notification"
	"github.com/crewmark/crewmark/model"
)

var withdrawalTracer = otel.Tracer("crewmark.withdrawal")

// acquireWithdrawalLock serializes withdrawal requests per user. The database
// transaction holds its own advisory lock; this outer lock keeps concurrent
// requests from even reaching the database together.
func (c *Crewmark) acquireWithdrawalLock(ctx context.Context, userID string) (*redlock.Locker, error) {
	locker := redlock.NewLocker(c.redis, fmt.Sprintf("withdrawal:%s", userID), model.GenerateUUIDWithSuffix("loc"))
	err := locker.Lock(ctx, time.Minute)
	if err != nil {
		return nil, err
	}
	return locker, nil
}

// RequestWithdrawal creates a pending withdrawal and debits the requested
// points in one database transaction. The balance is recomputed inside that
// transaction, so two concurrent requests can never both pass the check.
func (c *Crewmark) RequestWithdrawal(ctx context.Context, userID string, amount int64, payout model.PayoutDetails) (*model.Withdrawal, error) {
	ctx, span := withdrawalTracer.Start(ctx, "Requesting withdrawal")
	defer span.End()

	if amount < model.MinWithdrawalPoints {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("Withdrawal amount must be at least %d points", model.MinWithdrawalPoints), nil)
	}
	if payout.BankName == "" || payout.AccountNumber == "" || payout.AccountHolder == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Bank name, account number and account holder are required", nil)
	}

	conf, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	rate, err := conf.Payout.RateValue()
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Payout rate is misconfigured", err)
	}

	locker, err := c.acquireWithdrawalLock(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer func(locker *redlock.Locker, ctx context.Context) {
		err := locker.Unlock(ctx)
		if err != nil {
			notification.NotifyError(err)
		}
	}(locker, ctx)

	withdrawal := &model.Withdrawal{
		WithdrawalID:   model.GenerateUUIDWithSuffix("wdr"),
		UserID:         userID,
		Amount:         amount,
		Payout:         payout,
		PayoutCurrency: conf.Payout.Currency,
		PayoutRate:     rate,
		Status:         model.WithdrawalPending,
		RequestedAt:    time.Now(),
	}
	withdrawal.ComputePayoutAmount(rate)

	debit := &model.PointTransaction{
		TransactionID: model.GenerateUUIDWithSuffix("ptx"),
		UserID:        userID,
		Amount:        -amount,
		Type:          model.PointSpend,
		Description:   fmt.Sprintf("Withdrawal '%s'", withdrawal.WithdrawalID),
		CreatedAt:     withdrawal.RequestedAt,
	}

	created, err := c.datasource.CreateWithdrawal(ctx, withdrawal, debit)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	c.postWithdrawalActions(created)
	return created, nil
}

// ApproveWithdrawal moves a pending withdrawal to approved.
func (c *Crewmark) ApproveWithdrawal(ctx context.Context, id, notes string) (*model.Withdrawal, error) {
	return c.advanceWithdrawal(ctx, id, model.WithdrawalPending, model.WithdrawalApproved, notes, nil)
}

// MarkTransferProcessing records that the bank transfer has been initiated.
func (c *Crewmark) MarkTransferProcessing(ctx context.Context, id, notes string) (*model.Withdrawal, error) {
	return c.advanceWithdrawal(ctx, id, model.WithdrawalApproved, model.WithdrawalTransferProcessing, notes, nil)
}

// CompleteWithdrawal closes out a withdrawal whose transfer has settled.
func (c *Crewmark) CompleteWithdrawal(ctx context.Context, id, notes string) (*model.Withdrawal, error) {
	return c.advanceWithdrawal(ctx, id, model.WithdrawalTransferProcessing, model.WithdrawalCompleted, notes, ptr.Time(time.Now()))
}

func (c *Crewmark) advanceWithdrawal(ctx context.Context, id string, from, to model.WithdrawalStatus, notes string, processedAt *time.Time) (*model.Withdrawal, error) {
	withdrawal, err := c.datasource.GetWithdrawalByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.datasource.UpdateWithdrawalStatus(ctx, id, from, to, notes, processedAt); err != nil {
		return nil, err
	}
	withdrawal.Status = to
	if notes != "" {
		withdrawal.Notes = notes
	}
	withdrawal.ProcessedAt = processedAt
	c.postWithdrawalActions(withdrawal)
	return withdrawal, nil
}

// RejectWithdrawal declines a withdrawal and returns the debited points. The
// status change and the compensating credit land in one database transaction;
// a rejection can never strand the user's points.
func (c *Crewmark) RejectWithdrawal(ctx context.Context, id, notes string) (*model.Withdrawal, error) {
	ctx, span := withdrawalTracer.Start(ctx, "Rejecting withdrawal")
	defer span.End()

	withdrawal, err := c.datasource.GetWithdrawalByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !withdrawal.Status.CanTransitionTo(model.WithdrawalRejected) {
		return nil, apierror.NewAPIError(apierror.ErrConflict,
			fmt.Sprintf("Withdrawal '%s' cannot be rejected while '%s'", id, withdrawal.Status), nil)
	}

	credit := &model.PointTransaction{
		TransactionID: model.GenerateUUIDWithSuffix("ptx"),
		UserID:        withdrawal.UserID,
		Amount:        withdrawal.Amount,
		Type:          model.PointBonus,
		Description:   fmt.Sprintf("Refund for rejected withdrawal '%s'", withdrawal.WithdrawalID),
		CreatedAt:     time.Now(),
	}

	if err := c.datasource.RejectWithdrawal(ctx, id, withdrawal.Status, notes, credit); err != nil {
		span.RecordError(err)
		return nil, err
	}

	withdrawal.Status = model.WithdrawalRejected
	withdrawal.Notes = notes
	c.postWithdrawalActions(withdrawal)
	go func() {
		if err := c.queue.queueIndexData(credit.TransactionID, "point_transactions", credit); err != nil {
			notification.NotifyError(err)
		}
	}()
	return withdrawal, nil
}

// GetWithdrawal returns one withdrawal by ID.
func (c *Crewmark) GetWithdrawal(ctx context.Context, id string) (*model.Withdrawal, error) {
	return c.datasource.GetWithdrawalByID(ctx, id)
}

// GetWithdrawals returns a page of withdrawals, newest first.
func (c *Crewmark) GetWithdrawals(ctx context.Context, limit, offset int) ([]*model.Withdrawal, error) {
	if limit <= 0 {
		limit = 50
	}
	return c.datasource.GetAllWithdrawals(ctx, limit, offset)
}

// postWithdrawalActions indexes the withdrawal and fires its status webhook.
// Both are best-effort; failures are reported, never returned.
func (c *Crewmark) postWithdrawalActions(withdrawal *model.Withdrawal) {
	go func() {
		if err := c.queue.queueIndexData(withdrawal.WithdrawalID, "withdrawals", withdrawal); err != nil {
			notification.NotifyError(err)
		}
		if err := SendWebhook(NewWebhook{
			Event:   getEventFromWithdrawalStatus(withdrawal.Status),
			Payload: withdrawal,
		}); err != nil {
			notification.NotifyError(err)
		}
	}()
}
