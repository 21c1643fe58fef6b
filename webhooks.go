/*
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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/crewmark/crewmark/config"
	"github.com/crewmark/crewmark/model"

	"github.com/hibiken/asynq"
)

// NewWebhook represents the structure of a webhook notification.
// It includes an event type and associated payload data.
type NewWebhook struct {
	Event   string      `json:"event"` // The event type that triggered the webhook.
	Payload interface{} `json:"data"`  // The data associated with the event.
}

// getEventFromStatus maps a workflow status to a corresponding event string.
//
// Parameters:
// - status model.WorkflowStatus: The status of the submission step.
//
// Returns:
// - string: The corresponding event string for the workflow status.
func getEventFromStatus(status model.WorkflowStatus) string {
	switch status {
	case model.StatusGuideConfirmed:
		return "submission.guide_confirmed"
	case model.StatusVideoUploaded:
		return "submission.video_uploaded"
	case model.StatusSnsSubmitted:
		return "submission.sns_submitted"
	case model.StatusReviewPending:
		return "submission.review_pending"
	case model.StatusCompleted:
		return "submission.completed"
	case model.StatusRevisionRequired:
		return "submission.revision_required"
	case model.StatusPointsPaid:
		return "submission.points_paid"
	default:
		return "submission.updated"
	}
}

// getEventFromWithdrawalStatus maps a withdrawal status to an event string.
func getEventFromWithdrawalStatus(status model.WithdrawalStatus) string {
	switch status {
	case model.WithdrawalPending:
		return "withdrawal.requested"
	case model.WithdrawalApproved:
		return "withdrawal.approved"
	case model.WithdrawalRejected:
		return "withdrawal.rejected"
	case model.WithdrawalTransferProcessing:
		return "withdrawal.transfer_processing"
	case model.WithdrawalCompleted:
		return "withdrawal.completed"
	default:
		return "withdrawal.updated"
	}
}

// processHTTP sends a webhook notification via HTTP POST request. Delivery is
// retried with exponential backoff for up to a minute before giving up.
//
// Parameters:
// - data NewWebhook: The webhook notification data to send.
//
// Returns:
// - error: An error if the request or processing fails.
func processHTTP(data NewWebhook) error {
	conf, err := config.Fetch()
	if err != nil {
		log.Println("Error fetching config:", err)
		return err
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Println("Error marshaling data:", err)
		return err
	}

	deliver := func() error {
		payload := bytes.NewBuffer(jsonData)

		req, err := http.NewRequest("POST", conf.Notification.Webhook.Url, payload)
		if err != nil {
			return backoff.Permanent(err)
		}

		for key, value := range conf.Notification.Webhook.Headers {
			req.Header.Set(key, value)
		}

		client := &http.Client{}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer func(Body io.ReadCloser) {
			err := Body.Close()
			if err != nil {
				logrus.Error(err)
			}
		}(resp.Body)

		if resp.StatusCode >= 500 {
			return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			log.Printf("Request failed with status code: %d\n", resp.StatusCode)
			return nil
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = time.Minute
	if err := backoff.Retry(deliver, policy); err != nil {
		log.Println("Error sending request:", err)
		return err
	}

	log.Println("Webhook notification sent successfully:", data.Event)
	return nil
}

// SendWebhook enqueues a webhook notification task.
//
// Parameters:
// - newWebhook NewWebhook: The webhook notification data to enqueue.
//
// Returns:
// - error: An error if the task could not be enqueued.
func SendWebhook(newWebhook NewWebhook) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}

	if conf.Notification.Webhook.Url == "" {
		return nil
	}

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: conf.Redis.Dns})
	payload, err := json.Marshal(newWebhook)
	if err != nil {
		log.Fatal(err)
		return err
	}
	taskOptions := []asynq.Option{asynq.Queue(conf.Queue.WebhookQueue)}
	task := asynq.NewTask(conf.Queue.WebhookQueue, payload, taskOptions...)
	info, err := client.Enqueue(task)
	if err != nil {
		log.Println(err, info)
		return err
	}
	return err
}

// ProcessWebhook processes a webhook notification task from the queue.
//
// Parameters:
// - _ context.Context: The context for the operation.
// - task *asynq.Task: The task containing the webhook notification data.
//
// Returns:
// - error: An error if the webhook processing fails.
func ProcessWebhook(_ context.Context, task *asynq.Task) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}

	if conf.Notification.Webhook.Url == "" {
		return nil
	}
	var payload NewWebhook
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Printf("Error unmarshaling task payload: %v", err)
		return err
	}
	log.Printf("Processing webhook: %+v\n", payload.Event)
	err = processHTTP(payload)
	if err != nil {
		return err
	}
	return nil
}
