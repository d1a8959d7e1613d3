package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: "0.0.0.0"
  allowed_origins: ["https://dash.example.com"]

storage:
  s3_bucket: "metrics-bucket"
  aws_region: "us-west-2"
  completed_key: "blobs/completed.json"
  live_key: "blobs/live.json"
  presign_ttl_seconds: 300

backend:
  base_url: "https://backend.example.com"
  timeout_seconds: 10

warehouse:
  enabled: true
  account: "acme"
  table: "METRICS_V2"

polling:
  interval_seconds: 120
  timeout_seconds: 60
  snapshot_ttl_seconds: 600

thresholds:
  min_delivered_completed: 250
  min_delivered_live: 50

anomaly:
  threshold: 2.0
  min_sample: 8

archive:
  type: "aws"
  dynamodb_table: "campaign-anomalies"

digest:
  enabled: true
  from: "insights@example.com"
  to: ["ops@example.com"]

log_level: "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, []string{"https://dash.example.com"}, cfg.Server.AllowedOrigins)

	assert.Equal(t, "metrics-bucket", cfg.Storage.S3Bucket)
	assert.Equal(t, "blobs/completed.json", cfg.Storage.CompletedKey)
	assert.Equal(t, 5*time.Minute, cfg.Storage.PresignTTL())

	assert.Equal(t, "https://backend.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout())

	assert.True(t, cfg.Warehouse.Enabled)
	assert.Equal(t, "METRICS_V2", cfg.Warehouse.Table)

	assert.Equal(t, 2*time.Minute, cfg.Polling.Interval())
	assert.Equal(t, time.Minute, cfg.Polling.Timeout())
	assert.Equal(t, 10*time.Minute, cfg.Polling.SnapshotTTL())

	assert.Equal(t, int64(250), cfg.Thresholds.MinDeliveredCompleted)
	assert.Equal(t, int64(50), cfg.Thresholds.MinDeliveredLive)
	assert.Equal(t, 2.0, cfg.Anomaly.Threshold)
	assert.Equal(t, 8, cfg.Anomaly.MinSample)

	assert.Equal(t, "aws", cfg.Archive.Type)
	assert.Equal(t, "campaign-anomalies", cfg.Archive.DynamoDBTable)
	assert.True(t, cfg.Digest.Enabled)
	assert.Equal(t, "us-west-2", cfg.Digest.Region)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "storage:\n  s3_bucket: b\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "us-east-1", cfg.Storage.AWSRegion)
	assert.Equal(t, "campaign-metrics/completed.json", cfg.Storage.CompletedKey)
	assert.Equal(t, "campaign-metrics/live.json", cfg.Storage.LiveKey)
	assert.Equal(t, 15*time.Minute, cfg.Storage.PresignTTL())
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout())
	assert.Equal(t, "CAMPAIGN_METRICS", cfg.Warehouse.Table)
	assert.Equal(t, 5*time.Minute, cfg.Polling.Interval())
	assert.Equal(t, int64(100), cfg.Thresholds.MinDeliveredCompleted)
	assert.Equal(t, int64(20), cfg.Thresholds.MinDeliveredLive)
	assert.Equal(t, 1.5, cfg.Anomaly.Threshold)
	assert.Equal(t, 5, cfg.Anomaly.MinSample)
	assert.Equal(t, "", cfg.Archive.Type)
	assert.Equal(t, 90, cfg.Archive.RetentionDays)
	assert.Equal(t, "us-east-1", cfg.Digest.Region)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: "https://file-url.com"
database:
  url: "postgres://file"
`)

	t.Setenv("BACKEND_BASE_URL", "https://env-url.com")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("DIGEST_RECIPIENTS", "a@example.com, b@example.com,")
	t.Setenv("ANOMALY_THRESHOLD", "2.5")
	t.Setenv("SNOWFLAKE_CONNECTION_STRING", "user:pw@acct/db/schema")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env-url.com", cfg.Backend.BaseURL)
	assert.Equal(t, "postgres://env", cfg.Database.URL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Digest.To)
	assert.Equal(t, 2.5, cfg.Anomaly.Threshold)
	assert.True(t, cfg.Warehouse.Enabled)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestGetAWSProfile(t *testing.T) {
	t.Setenv("ECS_CONTAINER_METADATA_URI", "")
	t.Setenv("AWS_EXECUTION_ENV", "")

	cfg := StorageConfig{AWSProfile: "dev"}
	t.Setenv("AWS_PROFILE_OVERRIDE", "")
	assert.Equal(t, "dev", cfg.GetAWSProfile())

	t.Setenv("AWS_PROFILE_OVERRIDE", "iam")
	assert.Equal(t, "", cfg.GetAWSProfile())

	t.Setenv("AWS_PROFILE_OVERRIDE", "prod")
	assert.Equal(t, "prod", cfg.GetAWSProfile())
}

func TestGetHost(t *testing.T) {
	t.Setenv("ECS_CONTAINER_METADATA_URI", "")
	t.Setenv("AWS_EXECUTION_ENV", "")
	t.Setenv("SERVER_HOST", "")
	assert.Equal(t, "localhost", ServerConfig{Host: "localhost"}.GetHost())

	t.Setenv("ECS_CONTAINER_METADATA_URI", "http://169.254.170.2/v3")
	assert.Equal(t, "0.0.0.0", ServerConfig{Host: "localhost"}.GetHost())
}
