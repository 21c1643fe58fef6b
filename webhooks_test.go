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
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"

	"github.com/crewmark/crewmark/config"
	"github.com/crewmark/crewmark/model"
)

func TestSendWebhook(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("an error '%s' occurred when starting miniredis", err)
	}
	defer mr.Close()

	mockConfig := &config.Configuration{
		Redis: config.RedisConfig{
			Dns: mr.Addr(),
		},
		Queue: config.QueueConfig{
			WebhookQueue: "new:webhook",
			IndexQueue:   "new:index",
		},
		Notification: config.Notification{Webhook: struct {
			Url     string            `json:"url"`
			Headers map[string]string `json:"headers"`
		}(struct {
			Url     string
			Headers map[string]string
		}{Url: "https:localhost:5001/webhook", Headers: nil})},
	}

	config.ConfigStore.Store(mockConfig)
	testData := NewWebhook{
		Event:   "submission.guide_confirmed",
		Payload: map[string]string{"submission_id": "sub_1"},
	}

	err = SendWebhook(testData)
	assert.NoError(t, err)

	// Verify that the task was enqueued
	tasks := mr.Keys()
	t.Log(tasks)
	assert.NotEmpty(t, tasks)
}

func TestSendWebhook_NoopWithoutURL(t *testing.T) {
	config.MockConfig(&config.Configuration{})

	err := SendWebhook(NewWebhook{Event: "submission.completed"})
	assert.NoError(t, err)
}

func TestGetEventFromStatus(t *testing.T) {
	tests := []struct {
		status model.WorkflowStatus
		event  string
	}{
		{model.StatusGuideConfirmed, "submission.guide_confirmed"},
		{model.StatusVideoUploaded, "submission.video_uploaded"},
		{model.StatusSnsSubmitted, "submission.sns_submitted"},
		{model.StatusReviewPending, "submission.review_pending"},
		{model.StatusCompleted, "submission.completed"},
		{model.StatusRevisionRequired, "submission.revision_required"},
		{model.StatusPointsPaid, "submission.points_paid"},
		{model.StatusVideoUploading, "submission.updated"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.event, getEventFromStatus(tt.status))
	}
}

func TestGetEventFromWithdrawalStatus(t *testing.T) {
	tests := []struct {
		status model.WithdrawalStatus
		event  string
	}{
		{model.WithdrawalPending, "withdrawal.requested"},
		{model.WithdrawalApproved, "withdrawal.approved"},
		{model.WithdrawalRejected, "withdrawal.rejected"},
		{model.WithdrawalTransferProcessing, "withdrawal.transfer_processing"},
		{model.WithdrawalCompleted, "withdrawal.completed"},
		{model.WithdrawalStatus("unknown"), "withdrawal.updated"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.event, getEventFromWithdrawalStatus(tt.status))
	}
}
