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
package mocks

import (
	"context"
	"time"

	"github.com/crewmark/crewmark/model"
	"github.com/stretchr/testify/mock"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Campaign methods

func (m *MockDataSource) CreateCampaign(ctx context.Context, campaign *model.Campaign) (*model.Campaign, error) {
	args := m.Called(ctx, campaign)
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *MockDataSource) GetCampaignByID(ctx context.Context, id string) (*model.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *MockDataSource) CreateApplication(ctx context.Context, application *model.Application) (*model.Application, error) {
	args := m.Called(ctx, application)
	return args.Get(0).(*model.Application), args.Error(1)
}

func (m *MockDataSource) GetApplicationByID(ctx context.Context, id string) (*model.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Application), args.Error(1)
}

// Submission methods

func (m *MockDataSource) CreateSubmission(ctx context.Context, sub *model.Submission) (*model.Submission, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Submission), args.Error(1)
}

func (m *MockDataSource) GetSubmission(ctx context.Context, applicationID string, step int) (*model.Submission, error) {
	args := m.Called(ctx, applicationID, step)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Submission), args.Error(1)
}

func (m *MockDataSource) GetSubmissionByID(ctx context.Context, submissionID string) (*model.Submission, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Submission), args.Error(1)
}

func (m *MockDataSource) GetSubmissionsByApplication(ctx context.Context, applicationID string) ([]*model.Submission, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Submission), args.Error(1)
}

func (m *MockDataSource) UpdateSubmissionStatus(ctx context.Context, submissionID string, from, to model.WorkflowStatus) error {
	args := m.Called(ctx, submissionID, from, to)
	return args.Error(0)
}

func (m *MockDataSource) UpdateSubmissionSns(ctx context.Context, submissionID string, platform model.SnsPlatform, url, adCode string) error {
	args := m.Called(ctx, submissionID, platform, url, adCode)
	return args.Error(0)
}

func (m *MockDataSource) UpdateSubmissionReview(ctx context.Context, submissionID string, to model.WorkflowStatus, notes string) error {
	args := m.Called(ctx, submissionID, to, notes)
	return args.Error(0)
}

func (m *MockDataSource) PaySubmission(ctx context.Context, submissionID string, paidAt time.Time, credit *model.PointTransaction) error {
	args := m.Called(ctx, submissionID, paidAt, credit)
	return args.Error(0)
}

func (m *MockDataSource) ResetSubmission(ctx context.Context, submissionID string, to model.WorkflowStatus, notes string) error {
	args := m.Called(ctx, submissionID, to, notes)
	return args.Error(0)
}

// Video version methods

func (m *MockDataSource) RecordVideoUpload(ctx context.Context, sub *model.Submission, version *model.VideoVersion) error {
	args := m.Called(ctx, sub, version)
	return args.Error(0)
}

func (m *MockDataSource) BackfillLegacyVersion(ctx context.Context, sub *model.Submission) (*model.VideoVersion, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VideoVersion), args.Error(1)
}

func (m *MockDataSource) GetVideoVersions(ctx context.Context, submissionID string) ([]model.VideoVersion, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VideoVersion), args.Error(1)
}

func (m *MockDataSource) GetMaxVideoVersion(ctx context.Context, submissionID string) (int, error) {
	args := m.Called(ctx, submissionID)
	return args.Int(0), args.Error(1)
}

// Points ledger methods

func (m *MockDataSource) RecordPointTransaction(ctx context.Context, txn *model.PointTransaction) (*model.PointTransaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PointTransaction), args.Error(1)
}

func (m *MockDataSource) GetPointTransactions(ctx context.Context, userID string, limit, offset int) ([]*model.PointTransaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PointTransaction), args.Error(1)
}

func (m *MockDataSource) SumPointTransactions(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataSource) RefreshUserBalance(ctx context.Context, userID string, balance int64) error {
	args := m.Called(ctx, userID, balance)
	return args.Error(0)
}

// Withdrawal methods

func (m *MockDataSource) CreateWithdrawal(ctx context.Context, w *model.Withdrawal, debit *model.PointTransaction) (*model.Withdrawal, error) {
	args := m.Called(ctx, w, debit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Withdrawal), args.Error(1)
}

func (m *MockDataSource) GetWithdrawalByID(ctx context.Context, id string) (*model.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Withdrawal), args.Error(1)
}

func (m *MockDataSource) GetAllWithdrawals(ctx context.Context, limit, offset int) ([]*model.Withdrawal, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Withdrawal), args.Error(1)
}

func (m *MockDataSource) GetWithdrawalsByStatus(ctx context.Context, statuses ...model.WithdrawalStatus) ([]*model.Withdrawal, error) {
	callArgs := make([]interface{}, 0, len(statuses)+1)
	callArgs = append(callArgs, ctx)
	for _, s := range statuses {
		callArgs = append(callArgs, s)
	}
	args := m.Called(callArgs...)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Withdrawal), args.Error(1)
}

func (m *MockDataSource) UpdateWithdrawalStatus(ctx context.Context, id string, from, to model.WithdrawalStatus, notes string, processedAt *time.Time) error {
	args := m.Called(ctx, id, from, to, notes, processedAt)
	return args.Error(0)
}

func (m *MockDataSource) RejectWithdrawal(ctx context.Context, id string, from model.WithdrawalStatus, notes string, credit *model.PointTransaction) error {
	args := m.Called(ctx, id, from, notes, credit)
	return args.Error(0)
}
