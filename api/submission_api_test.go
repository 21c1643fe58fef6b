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
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	model2 "github.com/crewmark/crewmark/api/model"
	"github.com/crewmark/crewmark/database/mocks"
	"github.com/crewmark/crewmark/internal/apierror"
	"github.com/crewmark/crewmark/internal/request"
	"github.com/crewmark/crewmark/model"
)

func mockApplicationChain(ds *mocks.MockDataSource) {
	ds.On("GetApplicationByID", mock.Anything, "app_1").Return(&model.Application{
		ApplicationID: "app_1", CampaignID: "cmp_1", UserID: "usr_1",
	}, nil)
	ds.On("GetCampaignByID", mock.Anything, "cmp_1").Return(&model.Campaign{
		CampaignID: "cmp_1", Type: model.CampaignTwoStep, TotalSteps: 2, RewardAmount: 500,
	}, nil)
}

func TestGetStepSubmissionAPI_VirtualRow(t *testing.T) {
	router, ds := setupRouter(t)

	mockApplicationChain(ds)
	ds.On("GetSubmission", mock.Anything, "app_1", 1).Return(nil, notFoundErr("submission not found"))

	var response model.Submission
	resp, err := SetUpTestRequest(TestRequest{
		Response: &response,
		Method:   "GET",
		Route:    "/applications/app_1/steps/1",
		Router:   router,
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, model.StatusGuidePending, response.Status)
	assert.Empty(t, response.SubmissionID)
}

func TestGetStepSubmissionAPI_StepOutOfRange(t *testing.T) {
	router, ds := setupRouter(t)
	mockApplicationChain(ds)

	resp, err := SetUpTestRequest(TestRequest{
		Method: "GET",
		Route:  "/applications/app_1/steps/9",
		Router: router,
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetStepSubmissionAPI_BadStepParam(t *testing.T) {
	router, _ := setupRouter(t)

	resp, err := SetUpTestRequest(TestRequest{
		Method: "GET",
		Route:  "/applications/app_1/steps/zero",
		Router: router,
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestConfirmGuideAPI(t *testing.T) {
	router, ds := setupRouter(t)

	mockApplicationChain(ds)
	ds.On("GetSubmission", mock.Anything, "app_1", 1).Return(nil, notFoundErr("submission not found"))
	ds.On("CreateSubmission", mock.Anything, mock.Anything).Return(&model.Submission{
		ID: 7, SubmissionID: "sub_1", ApplicationID: "app_1", StepNumber: 1, Status: model.StatusGuidePending,
	}, nil)
	ds.On("UpdateSubmissionStatus", mock.Anything, "sub_1", model.StatusGuidePending, model.StatusGuideConfirmed).Return(nil)

	var response model.Submission
	resp, err := SetUpTestRequest(TestRequest{
		Response: &response,
		Method:   "POST",
		Route:    "/applications/app_1/steps/1/guide/confirm",
		Router:   router,
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, model.StatusGuideConfirmed, response.Status)
}

func TestUploadVideoAPI_MissingFile(t *testing.T) {
	router, _ := setupRouter(t)

	resp, err := SetUpTestRequest(TestRequest{
		Method: "POST",
		Route:  "/applications/app_1/steps/1/video",
		Router: router,
		Header: map[string]string{"Content-Type": "multipart/form-data; boundary=x"},
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSubmitSnsAPI_InvalidURL(t *testing.T) {
	router, _ := setupRouter(t)

	payloadBytes, _ := request.ToJsonReq(&model2.SubmitSns{PostUrl: "not a url"})
	resp, err := SetUpTestRequest(TestRequest{
		Payload: payloadBytes,
		Method:  "POST",
		Route:   "/applications/app_1/steps/1/sns",
		Router:  router,
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestReviewSubmissionAPI_RevisionWithoutNotes(t *testing.T) {
	router, _ := setupRouter(t)

	payloadBytes, _ := request.ToJsonReq(&model2.ReviewDecision{Decision: "request_revision"})
	resp, err := SetUpTestRequest(TestRequest{
		Payload: payloadBytes,
		Method:  "POST",
		Route:   "/submissions/sub_1/review",
		Router:  router,
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestReviewSubmissionAPI_Approve(t *testing.T) {
	router, ds := setupRouter(t)

	ds.On("GetSubmissionByID", mock.Anything, "sub_1").Return(&model.Submission{
		ID: 7, SubmissionID: "sub_1", ApplicationID: "app_1", StepNumber: 1, Status: model.StatusReviewPending,
	}, nil)
	ds.On("UpdateSubmissionReview", mock.Anything, "sub_1", model.StatusCompleted, "").Return(nil)

	payloadBytes, _ := request.ToJsonReq(&model2.ReviewDecision{Decision: "approve"})
	var response model.Submission
	resp, err := SetUpTestRequest(TestRequest{
		Payload:  payloadBytes,
		Response: &response,
		Method:   "POST",
		Route:    "/submissions/sub_1/review",
		Router:   router,
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, model.StatusCompleted, response.Status)
}

func TestPayStepAPI_ConflictWhenNotCompleted(t *testing.T) {
	router, ds := setupRouter(t)

	ds.On("GetSubmissionByID", mock.Anything, "sub_1").Return(&model.Submission{
		ID: 7, SubmissionID: "sub_1", ApplicationID: "app_1", CampaignID: "cmp_1", UserID: "usr_1",
		StepNumber: 1, Status: model.StatusReviewPending,
	}, nil)
	ds.On("GetCampaignByID", mock.Anything, "cmp_1").Return(&model.Campaign{
		CampaignID: "cmp_1", Type: model.CampaignTwoStep, TotalSteps: 2, RewardAmount: 500,
	}, nil)
	ds.On("PaySubmission", mock.Anything, "sub_1", mock.Anything, mock.Anything).Return(
		apierror.NewAPIError(apierror.ErrConflict, "Submission 'sub_1' is not ready for payout", nil))

	resp, err := SetUpTestRequest(TestRequest{
		Method: "POST",
		Route:  "/submissions/sub_1/pay",
		Router: router,
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.Code)
}
