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
	"github.com/crewmark/crewmark/model"
)

func (a Api) GetBalance(c *gin.Context) {
	userID, passed := c.Params.Get("user_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required. pass it in the route /:user_id"})
		return
	}

	resp, err := a.crewmark.GetBalance(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) GetPointTransactions(c *gin.Context) {
	userID, passed := c.Params.Get("user_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required. pass it in the route /:user_id"})
		return
	}
	limit, offset := paginationParams(c)

	resp, err := a.crewmark.GetPointTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AdjustPoints records an administrative point adjustment. Credit types append
// a positive entry, debit types a negative one.
func (a Api) AdjustPoints(c *gin.Context) {
	var req model2.AdjustPoints
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	err := req.ValidateAdjustPoints()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	txnType := model.PointTransactionType(req.Type)
	var resp *model.PointTransaction
	if txnType.Credit() {
		resp, err = a.crewmark.CreditPoints(c.Request.Context(), req.UserId, req.Amount, txnType, req.Description)
	} else {
		resp, err = a.crewmark.DebitPoints(c.Request.Context(), req.UserId, req.Amount, txnType, req.Description)
	}
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
