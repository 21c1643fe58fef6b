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
	"github.com/typesense/typesense-go/typesense/api"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/crewmark/crewmark"
	"github.com/crewmark/crewmark/api/middleware"
	"github.com/crewmark/crewmark/config"
)

type Api struct {
	crewmark *crewmark.Crewmark
	router   *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/campaigns", a.CreateCampaign)
	router.GET("/campaigns/:id", a.GetCampaign)
	router.POST("/campaigns/:id/applications", a.ApplyToCampaign)

	router.GET("/applications/:id", a.GetApplication)
	router.GET("/applications/:id/submissions", a.GetApplicationSubmissions)
	router.GET("/applications/:id/progress", a.GetApplicationProgress)
	router.GET("/applications/:id/steps/:step", a.GetStepSubmission)
	router.POST("/applications/:id/steps/:step/guide/confirm", a.ConfirmGuide)
	router.POST("/applications/:id/steps/:step/video", a.UploadVideo)
	router.GET("/applications/:id/steps/:step/versions", a.GetVideoVersions)
	router.POST("/applications/:id/steps/:step/sns", a.SubmitSns)

	router.POST("/submissions/:id/review/start", a.StartReview)
	router.POST("/submissions/:id/review", a.ReviewSubmission)
	router.POST("/submissions/:id/pay", a.PayStep)
	router.POST("/submissions/:id/reset", a.ResetStep)

	router.GET("/users/:user_id/balance", a.GetBalance)
	router.GET("/users/:user_id/transactions", a.GetPointTransactions)
	router.POST("/points", a.AdjustPoints)

	router.POST("/withdrawals", a.RequestWithdrawal)
	router.GET("/withdrawals/:id", a.GetWithdrawal)
	router.GET("/withdrawals", a.GetWithdrawals)
	router.PUT("/withdrawals/:id/status", a.UpdateWithdrawalStatus)

	router.POST("/payout-reports/match", a.MatchPayoutReport)

	router.POST("/search/:collection", a.Search)
	router.POST("/multi-search", a.MultiSearch)
	return a.router
}

func NewAPI(c *crewmark.Crewmark) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(otelgin.Middleware("crewmark"))
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{crewmark: c, router: r}
}

func (a Api) Search(c *gin.Context) {
	collection, passed := c.Params.Get("collection")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "collection is required. pass id in the route /:collection"})
		return
	}

	var query api.SearchCollectionParams
	err := c.BindJSON(&query)
	if err != nil {
		return
	}

	resp, err := a.crewmark.Search(collection, &query)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) MultiSearch(c *gin.Context) {
	var searches api.MultiSearchSearchesParameter
	err := c.BindJSON(&searches)
	if err != nil {
		return
	}

	resp, err := a.crewmark.MultiSearch(&searches)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
