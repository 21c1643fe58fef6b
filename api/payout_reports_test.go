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

package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/crewmark/crewmark"
	"github.com/crewmark/crewmark/model"
)

func payoutReportForm(t *testing.T, csv string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("report", "payouts.csv")
	if err != nil {
		t.Fatalf("failed to build form: %v", err)
	}
	if _, err := part.Write([]byte(csv)); err != nil {
		t.Fatalf("failed to write form: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close form: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestMatchPayoutReportAPI(t *testing.T) {
	router, ds := setupRouter(t)

	ds.On("GetWithdrawalsByStatus", mock.Anything,
		model.WithdrawalApproved, model.WithdrawalTransferProcessing).Return([]*model.Withdrawal{
		{
			WithdrawalID: "wdr_1",
			Status:       model.WithdrawalApproved,
			PayoutAmount: decimal.RequireFromString("2200"),
			Payout:       model.PayoutDetails{BankName: "Kookmin Bank", AccountNumber: "110-1234", AccountHolder: "Kim Minji"},
		},
	}, nil)

	body, contentType := payoutReportForm(t,
		"Reference,Account Holder,Amount,Paid At\n"+
			"TRF-001,Kim Minji,2200,2026-08-28\n"+
			"TRF-002,Lee Junho,9999,2026-08-28\n")

	var response crewmark.PayoutReconciliationResult
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  body,
		Response: &response,
		Method:   "POST",
		Route:    "/payout-reports/match",
		Router:   router,
		Header:   map[string]string{"Content-Type": contentType},
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, response.Matched, 1)
	assert.Equal(t, "wdr_1", response.Matched[0].WithdrawalID)
	assert.Len(t, response.Unmatched, 1)
}

func TestMatchPayoutReportAPI_MissingFile(t *testing.T) {
	router, _ := setupRouter(t)

	resp, err := SetUpTestRequest(TestRequest{
		Method: "POST",
		Route:  "/payout-reports/match",
		Router: router,
		Header: map[string]string{"Content-Type": "multipart/form-data; boundary=x"},
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestMatchPayoutReportAPI_MissingColumn(t *testing.T) {
	router, _ := setupRouter(t)

	body, contentType := payoutReportForm(t,
		"Reference,Amount,Paid At\nTRF-001,2200,2026-08-28\n")

	resp, err := SetUpTestRequest(TestRequest{
		Payload: body,
		Method:  "POST",
		Route:   "/payout-reports/match",
		Router:  router,
		Header:  map[string]string{"Content-Type": contentType},
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
