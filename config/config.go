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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5001"

	// DEFAULT_PAYOUT_RATE converts one point into payout currency when no rate is configured.
	DEFAULT_PAYOUT_RATE = "1"

	DEFAULT_PAYOUT_CURRENCY = "KRW"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"CREWMARK_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"CREWMARK_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"CREWMARK_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"CREWMARK_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"CREWMARK_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"CREWMARK_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"CREWMARK_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"CREWMARK_REDIS_DNS"`
}

type TypeSenseConfig struct {
	Dns string `json:"dns" envconfig:"CREWMARK_TYPESENSE_DNS"`
}

// StorageConfig holds the S3-compatible object store used for campaign video files.
type StorageConfig struct {
	Bucket          string `json:"bucket" envconfig:"CREWMARK_STORAGE_BUCKET"`
	Region          string `json:"region" envconfig:"CREWMARK_STORAGE_REGION"`
	Endpoint        string `json:"endpoint" envconfig:"CREWMARK_STORAGE_ENDPOINT"`
	AccessKeyId     string `json:"access_key_id" envconfig:"CREWMARK_STORAGE_ACCESS_KEY_ID"`
	SecretAccessKey string `json:"secret_access_key" envconfig:"CREWMARK_STORAGE_SECRET_ACCESS_KEY"`
}

// PayoutConfig controls how withdrawal points convert to payout currency.
type PayoutConfig struct {
	Currency string `json:"currency" envconfig:"CREWMARK_PAYOUT_CURRENCY"`
	// Rate is the payout currency amount for a single point, expressed as a
	// decimal string so conversion stays exact.
	Rate string `json:"rate" envconfig:"CREWMARK_PAYOUT_RATE"`
	// MatchThreshold is the maximum Levenshtein distance tolerated when
	// matching bank statement account holders during reconciliation.
	MatchThreshold *int `json:"match_threshold" envconfig:"CREWMARK_PAYOUT_MATCH_THRESHOLD"`
}

// RateValue parses the configured conversion rate.
func (p PayoutConfig) RateValue() (decimal.Decimal, error) {
	return decimal.NewFromString(p.Rate)
}

// QueueConfig names the asynq queues used for background work.
type QueueConfig struct {
	WebhookQueue   string `json:"webhook_queue" envconfig:"CREWMARK_QUEUE_WEBHOOK"`
	IndexQueue     string `json:"index_queue" envconfig:"CREWMARK_QUEUE_INDEX"`
	MonitoringPort string `json:"monitoring_port" envconfig:"CREWMARK_QUEUE_MONITORING_PORT"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"CREWMARK_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"CREWMARK_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"CREWMARK_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type OtelGrafanaCloud struct {
	OtelExporterOtlpProtocol string `json:"OTEL_EXPORTER_OTLP_PROTOCOL" envconfig:"OTEL_EXPORTER_OTLP_PROTOCOL"`
	OtelExporterOtlpEndpoint string `json:"OTEL_EXPORTER_OTLP_ENDPOINT" envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpHeaders  string `json:"OTEL_EXPORTER_OTLP_HEADERS" envconfig:"OTEL_EXPORTER_OTLP_HEADERS"`
}

type Configuration struct {
	ProjectName      string           `json:"project_name" envconfig:"CREWMARK_PROJECT_NAME"`
	Server           ServerConfig     `json:"server"`
	DataSource       DataSourceConfig `json:"data_source"`
	Redis            RedisConfig      `json:"redis"`
	TypeSense        TypeSenseConfig  `json:"typesense"`
	TypeSenseKey     string           `json:"type_sense_key" envconfig:"CREWMARK_TYPESENSE_KEY"`
	Storage          StorageConfig    `json:"storage"`
	Payout           PayoutConfig     `json:"payout"`
	Notification     Notification     `json:"notification"`
	Queue            QueueConfig      `json:"queue"`
	RateLimit        RateLimitConfig  `json:"rate_limit"`
	OtelGrafanaCloud OtelGrafanaCloud `json:"otel_grafana_cloud"`
	EnableTelemetry  bool             `json:"enable_telemetry" envconfig:"CREWMARK_ENABLE_TELEMETRY"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("crewmark", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called crewmark.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Crewmark Server"
	}

	if cnf.TypeSense.Dns == "" {
		cnf.TypeSense.Dns = "http://typesense:8108"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Payout.Currency == "" {
		cnf.Payout.Currency = DEFAULT_PAYOUT_CURRENCY
	}
	if cnf.Payout.Rate == "" {
		cnf.Payout.Rate = DEFAULT_PAYOUT_RATE
	}
	if _, err := decimal.NewFromString(cnf.Payout.Rate); err != nil {
		log.Printf("Error: Payout rate %q is not a valid decimal.", cnf.Payout.Rate)
		return errors.New("payout rate must be a valid decimal")
	}
	if cnf.Payout.MatchThreshold == nil {
		defaultThreshold := 2
		cnf.Payout.MatchThreshold = &defaultThreshold
	}

	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = "new:webhook"
	}
	if cnf.Queue.IndexQueue == "" {
		cnf.Queue.IndexQueue = "new:index"
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = "5002"
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}

	// Set default cleanup interval if not specified
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
		log.Printf("Warning: Rate limit cleanup interval not specified. Setting default value: %d seconds", defaultCleanup)
	}

	return nil
}

// SetGrafanaExporterEnvs exports the configured OTLP settings to the
// environment so the OpenTelemetry SDK picks them up.
func SetGrafanaExporterEnvs() error {
	cnf, err := Fetch()
	if err != nil {
		return err
	}
	if cnf.OtelGrafanaCloud.OtelExporterOtlpProtocol != "" {
		if err := os.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", cnf.OtelGrafanaCloud.OtelExporterOtlpProtocol); err != nil {
			return err
		}
	}
	if cnf.OtelGrafanaCloud.OtelExporterOtlpEndpoint != "" {
		if err := os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cnf.OtelGrafanaCloud.OtelExporterOtlpEndpoint); err != nil {
			return err
		}
	}
	if cnf.OtelGrafanaCloud.OtelExporterOtlpHeaders != "" {
		if err := os.Setenv("OTEL_EXPORTER_OTLP_HEADERS", cnf.OtelGrafanaCloud.OtelExporterOtlpHeaders); err != nil {
			return err
		}
	}
	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
