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
	"github.com/sirupsen/logrus"

	"github.com/crewmark/crewmark"
)

// MatchPayoutReport accepts a multipart form with a "report" CSV file and
// reconciles it against withdrawals awaiting settlement.
func (a Api) MatchPayoutReport(c *gin.Context) {
	header, err := c.FormFile("report")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a 'report' CSV file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			logrus.Error(err)
		}
	}()

	records, err := crewmark.ParsePayoutReport(file)
	if err != nil {
		handleError(c, err)
		return
	}

	resp, err := a.crewmark.MatchPayoutReport(c.Request.Context(), records)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
