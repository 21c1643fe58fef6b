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

	"github.com/gin-gonic/gin"

	model2 "github.com/crewmark/crewmark/api/model"
)

func (a Api) RequestWithdrawal(c *gin.Context) {
	var req model2.CreateWithdrawal
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	err := req.ValidateCreateWithdrawal()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.crewmark.RequestWithdrawal(c.Request.Context(), req.UserId, req.Amount, req.ToPayoutDetails())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (a Api) GetWithdrawal(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	resp, err := a.crewmark.GetWithdrawal(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) GetWithdrawals(c *gin.Context) {
	limit, offset := paginationParams(c)

	resp, err := a.crewmark.GetWithdrawals(c.Request.Context(), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateWithdrawalStatus moves a withdrawal along its settlement path. The
// target status picks the operation; illegal moves surface as conflicts.
func (a Api) UpdateWithdrawalStatus(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	var req model2.WithdrawalStatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	err := req.ValidateWithdrawalStatusUpdate()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	ctx := c.Request.Context()
	switch req.Status {
	case "approved":
		resp, err := a.crewmark.ApproveWithdrawal(ctx, id, req.Notes)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	case "rejected":
		resp, err := a.crewmark.RejectWithdrawal(ctx, id, req.Notes)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	case "transfer_processing":
		resp, err := a.crewmark.MarkTransferProcessing(ctx, id, req.Notes)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	case "completed":
		resp, err := a.crewmark.CompleteWithdrawal(ctx, id, req.Notes)
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
