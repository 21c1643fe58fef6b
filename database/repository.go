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
	"time"

	"github.com/crewmark/crewmark/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	campaign         // Campaign and application operations
	submission       // Deliverable submission operations
	videoVersion     // Upload version history operations
	pointTransaction // Points ledger operations
	withdrawal       // Withdrawal operations
}

// campaign defines methods for campaigns and applications.
type campaign interface {
	CreateCampaign(ctx context.Context, campaign *model.Campaign) (*model.Campaign, error)
	GetCampaignByID(ctx context.Context, id string) (*model.Campaign, error)
	CreateApplication(ctx context.Context, application *model.Application) (*model.Application, error)
	GetApplicationByID(ctx context.Context, id string) (*model.Application, error)
}

// submission defines methods for deliverable submissions. Status updates are
// compare-and-swap: they only apply while the row still holds the expected
// status, so concurrent sessions cannot push a row down an illegal edge.
type submission interface {
	CreateSubmission(ctx context.Context, sub *model.Submission) (*model.Submission, error)
	GetSubmission(ctx context.Context, applicationID string, step int) (*model.Submission, error)
	GetSubmissionByID(ctx context.Context, submissionID string) (*model.Submission, error)
	GetSubmissionsByApplication(ctx context.Context, applicationID string) ([]*model.Submission, error)
	UpdateSubmissionStatus(ctx context.Context, submissionID string, from, to model.WorkflowStatus) error
	UpdateSubmissionSns(ctx context.Context, submissionID string, platform model.SnsPlatform, url, adCode string) error
	UpdateSubmissionReview(ctx context.Context, submissionID string, to model.WorkflowStatus, notes string) error
	PaySubmission(ctx context.Context, submissionID string, paidAt time.Time, credit *model.PointTransaction) error
	ResetSubmission(ctx context.Context, submissionID string, to model.WorkflowStatus, notes string) error
}

// videoVersion defines methods for the append-only upload history.
type videoVersion interface {
	RecordVideoUpload(ctx context.Context, sub *model.Submission, version *model.VideoVersion) error
	BackfillLegacyVersion(ctx context.Context, sub *model.Submission) (*model.VideoVersion, error)
	GetVideoVersions(ctx context.Context, submissionID string) ([]model.VideoVersion, error)
	GetMaxVideoVersion(ctx context.Context, submissionID string) (int, error)
}

// pointTransaction defines methods for the points ledger.
type pointTransaction interface {
	RecordPointTransaction(ctx context.Context, txn *model.PointTransaction) (*model.PointTransaction, error)
	GetPointTransactions(ctx context.Context, userID string, limit, offset int) ([]*model.PointTransaction, error)
	SumPointTransactions(ctx context.Context, userID string) (int64, error)
	RefreshUserBalance(ctx context.Context, userID string, balance int64) error
}

// withdrawal defines methods for payout requests. Creation and rejection pair
// the status write with its ledger entry inside one database transaction.
type withdrawal interface {
	CreateWithdrawal(ctx context.Context, w *model.Withdrawal, debit *model.PointTransaction) (*model.Withdrawal, error)
	GetWithdrawalByID(ctx context.Context, id string) (*model.Withdrawal, error)
	GetAllWithdrawals(ctx context.Context, limit, offset int) ([]*model.Withdrawal, error)
	GetWithdrawalsByStatus(ctx context.Context, statuses ...model.WithdrawalStatus) ([]*model.Withdrawal, error)
	UpdateWithdrawalStatus(ctx context.Context, id string, from, to model.WithdrawalStatus, notes string, processedAt *time.Time) error
	RejectWithdrawal(ctx context.Context, id string, from model.WithdrawalStatus, notes string, credit *model.PointTransaction) error
}
