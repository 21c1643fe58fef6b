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
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crewmark/crewmark/internal/apierror"
	"github.com/crewmark/crewmark/model"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

func (d Datasource) CreateCampaign(ctx context.Context, campaign *model.Campaign) (*model.Campaign, error) {
	metaDataJSON, err := json.Marshal(campaign.MetaData)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	campaign.CampaignID = model.GenerateUUIDWithSuffix("cmp")
	campaign.CreatedAt = time.Now()

	_, err = d.Conn.ExecContext(ctx,
		`INSERT INTO crewmark.campaigns (campaign_id, name, type, total_steps, reward_amount, meta_data, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		campaign.CampaignID, campaign.Name, campaign.Type, campaign.TotalSteps, campaign.RewardAmount, metaDataJSON, campaign.CreatedAt,
	)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create campaign", err)
	}
	return campaign, nil
}

func (d Datasource) GetCampaignByID(ctx context.Context, id string) (*model.Campaign, error) {
	campaign := &model.Campaign{}

	cacheKey := fmt.Sprintf("campaign:%s", id)
	if d.Cache != nil {
		if err := d.Cache.Get(ctx, cacheKey, campaign); err == nil && campaign.CampaignID != "" {
			return campaign, nil
		}
	}

	row := d.Conn.QueryRowContext(ctx, `
		SELECT id, campaign_id, name, type, total_steps, reward_amount, meta_data, created_at
		FROM crewmark.campaigns
		WHERE campaign_id = $1
	`, id)

	var metaDataJSON []byte
	err := row.Scan(&campaign.ID, &campaign.CampaignID, &campaign.Name, &campaign.Type, &campaign.TotalSteps, &campaign.RewardAmount, &metaDataJSON, &campaign.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Campaign with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve campaign", err)
	}

	if err := json.Unmarshal(metaDataJSON, &campaign.MetaData); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
	}

	if d.Cache != nil {
		_ = d.Cache.Set(ctx, cacheKey, campaign, 10*time.Minute)
	}
	return campaign, nil
}

func (d Datasource) CreateApplication(ctx context.Context, application *model.Application) (*model.Application, error) {
	application.ApplicationID = model.GenerateUUIDWithSuffix("app")
	application.CreatedAt = time.Now()

	_, err := d.Conn.ExecContext(ctx,
		`INSERT INTO crewmark.applications (application_id, campaign_id, user_id, created_at) VALUES ($1,$2,$3,$4)`,
		application.ApplicationID, application.CampaignID, application.UserID, application.CreatedAt,
	)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create application", err)
	}
	return application, nil
}

func (d Datasource) GetApplicationByID(ctx context.Context, id string) (*model.Application, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT id, application_id, campaign_id, user_id, created_at
		FROM crewmark.applications
		WHERE application_id = $1
	`, id)

	application := &model.Application{}
	err := row.Scan(&application.ID, &application.ApplicationID, &application.CampaignID, &application.UserID, &application.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Application with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve application", err)
	}
	return application, nil
}
