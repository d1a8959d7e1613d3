package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Storage    StorageConfig   `yaml:"storage"`
	Backend    BackendConfig   `yaml:"backend"`
	Warehouse  WarehouseConfig `yaml:"warehouse"`
	Database   DatabaseConfig  `yaml:"database"`
	Redis      RedisConfig     `yaml:"redis"`
	Polling    PollingConfig   `yaml:"polling"`
	Thresholds ThresholdConfig `yaml:"thresholds"`
	Anomaly    AnomalyConfig   `yaml:"anomaly"`
	Archive    ArchiveConfig   `yaml:"archive"`
	Digest     DigestConfig    `yaml:"digest"`
	LogLevel   string          `yaml:"log_level"`
	RedactPII  bool            `yaml:"redact_pii"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// StorageConfig locates the metric blobs in S3.
type StorageConfig struct {
	S3Bucket          string `yaml:"s3_bucket"`
	AWSRegion         string `yaml:"aws_region"`
	AWSProfile        string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
	CompletedKey      string `yaml:"completed_key"`
	LiveKey           string `yaml:"live_key"`
	PresignTTLSeconds int    `yaml:"presign_ttl_seconds"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// PresignTTL returns how long signed blob URLs stay valid.
func (c StorageConfig) PresignTTL() time.Duration {
	return time.Duration(c.PresignTTLSeconds) * time.Second
}

// BackendConfig points at the service that owns the brand lookup.
// An empty BaseURL serves brands from the local database instead.
type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the timeout as a duration
func (c BackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WarehouseConfig holds the optional Snowflake source for completed campaigns.
type WarehouseConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ConnectionString string `yaml:"connection_string"`
	Account          string `yaml:"account"`
	User             string `yaml:"user"`
	Password         string `yaml:"password"`
	Database         string `yaml:"database"`
	Schema           string `yaml:"schema"`
	Warehouse        string `yaml:"warehouse"`
	Role             string `yaml:"role"`
	Table            string `yaml:"table"`
}

// DatabaseConfig holds the Postgres connection used for brands and locks.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the snapshot cache connection.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// PollingConfig holds polling configuration
type PollingConfig struct {
	IntervalSeconds    int `yaml:"interval_seconds"`
	TimeoutSeconds     int `yaml:"timeout_seconds"`
	SnapshotTTLSeconds int `yaml:"snapshot_ttl_seconds"`
}

// Interval returns the polling interval as a duration
func (c PollingConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Timeout bounds a single refresh.
func (c PollingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SnapshotTTL is how long a shared snapshot lives in Redis.
func (c PollingConfig) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLSeconds) * time.Second
}

// ThresholdConfig holds the minimum delivered volume per campaign status.
type ThresholdConfig struct {
	MinDeliveredCompleted int64 `yaml:"min_delivered_completed"`
	MinDeliveredLive      int64 `yaml:"min_delivered_live"`
}

// AnomalyConfig holds detection defaults applied when a request omits them.
type AnomalyConfig struct {
	Threshold float64 `yaml:"threshold"`
	MinSample int     `yaml:"min_sample"`
}

// ArchiveConfig selects where flagged anomalies are kept.
type ArchiveConfig struct {
	Type          string `yaml:"type"` // "aws", "local", or empty to disable
	DynamoDBTable string `yaml:"dynamodb_table"`
	LocalPath     string `yaml:"local_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// DigestConfig holds the anomaly digest email settings.
type DigestConfig struct {
	Enabled         bool     `yaml:"enabled"`
	From            string   `yaml:"from"`
	To              []string `yaml:"to"`
	Region          string   `yaml:"region"`
	AccessKey       string   `yaml:"access_key"`
	SecretKey       string   `yaml:"secret_key"`
	SubjectTemplate string   `yaml:"subject_template"`
	BodyTemplate    string   `yaml:"body_template"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-east-1"
	}
	if cfg.Storage.CompletedKey == "" {
		cfg.Storage.CompletedKey = "campaign-metrics/completed.json"
	}
	if cfg.Storage.LiveKey == "" {
		cfg.Storage.LiveKey = "campaign-metrics/live.json"
	}
	if cfg.Storage.PresignTTLSeconds == 0 {
		cfg.Storage.PresignTTLSeconds = 900
	}
	if cfg.Backend.TimeoutSeconds == 0 {
		cfg.Backend.TimeoutSeconds = 30
	}
	// Snowflake defaults
	if cfg.Warehouse.Table == "" {
		cfg.Warehouse.Table = "CAMPAIGN_METRICS"
	}
	if cfg.Polling.IntervalSeconds == 0 {
		cfg.Polling.IntervalSeconds = 300
	}
	if cfg.Polling.TimeoutSeconds == 0 {
		cfg.Polling.TimeoutSeconds = 120
	}
	if cfg.Polling.SnapshotTTLSeconds == 0 {
		cfg.Polling.SnapshotTTLSeconds = 3600
	}
	if cfg.Thresholds.MinDeliveredCompleted == 0 {
		cfg.Thresholds.MinDeliveredCompleted = 100
	}
	if cfg.Thresholds.MinDeliveredLive == 0 {
		cfg.Thresholds.MinDeliveredLive = 20
	}
	if cfg.Anomaly.Threshold == 0 {
		cfg.Anomaly.Threshold = 1.5
	}
	if cfg.Anomaly.MinSample == 0 {
		cfg.Anomaly.MinSample = 5
	}
	if cfg.Archive.LocalPath == "" {
		cfg.Archive.LocalPath = "./data/anomalies"
	}
	if cfg.Archive.RetentionDays == 0 {
		cfg.Archive.RetentionDays = 90
	}
	if cfg.Digest.Region == "" {
		cfg.Digest.Region = cfg.Storage.AWSRegion
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CAMPAIGN_METRICS_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Storage.AWSRegion = v
	}
	if v := os.Getenv("BACKEND_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}

	// Database override (critical for ECS deployment where config.yaml has local defaults)
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}

	// Snowflake overrides
	if v := os.Getenv("SNOWFLAKE_CONNECTION_STRING"); v != "" {
		cfg.Warehouse.ConnectionString = v
		cfg.Warehouse.Enabled = true
	}
	if v := os.Getenv("SNOWFLAKE_PASSWORD"); v != "" {
		cfg.Warehouse.Password = v
	}

	// Digest overrides
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.Digest.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.Digest.SecretKey = v
	}
	if v := os.Getenv("DIGEST_RECIPIENTS"); v != "" {
		cfg.Digest.To = splitList(v)
	}

	if v := os.Getenv("ANOMALY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Anomaly.Threshold = f
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
