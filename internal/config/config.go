// Package config provides configuration management functionality.
//
// Configuration is loaded from environment variables (optionally via a
// .env file) with sensible defaults for every field, following the
// resolve-to-absolute-path-and-create-directory pattern used by the data
// directory setting.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	DataDir  string // Base directory for the citation audit ledger (always absolute)
	LogLevel string // Log level (debug, info, warn, error)
	Port     int    // HTTP server port (default: 8010)
	DevMode  bool   // Development mode flag

	// S3 snapshot store settings. Snapshotting is disabled when Bucket is
	// empty; no error is raised in that case.
	S3Bucket string
	S3Prefix string
	S3Region string

	// Orchestrator defaults, overridable per-job via the API.
	JobTimeoutSeconds    int
	MaxConcurrentJobs    int
	CriticalModules      []string

	// CronSpec schedules an optional nightly batch re-enrichment of the
	// watchlist carried in DataDir/watchlist.json; empty disables it.
	CronSpec string
}

// Load reads configuration from environment variables.
func Load(dataDirOverride ...string) (*Config, error) {
	_ = godotenv.Load()

	var dataDir string
	if len(dataDirOverride) > 0 && dataDirOverride[0] != "" {
		dataDir = dataDirOverride[0]
	} else {
		dataDir = getEnv("SENTINEL_DATA_DIR", "")
		if dataDir == "" {
			dataDir = "./data"
		}
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Port:              getEnvAsInt("GO_PORT", 8010),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		S3Bucket:          getEnv("SNAPSHOT_S3_BUCKET", ""),
		S3Prefix:          getEnv("SNAPSHOT_S3_PREFIX", "enrichment-snapshots"),
		S3Region:          getEnv("SNAPSHOT_S3_REGION", "us-east-1"),
		JobTimeoutSeconds: getEnvAsInt("JOB_TIMEOUT_SECONDS", 600),
		MaxConcurrentJobs: getEnvAsInt("MAX_CONCURRENT_JOBS", 5),
		CriticalModules:   []string{"m01_company_context"},
		CronSpec:          getEnv("NIGHTLY_CRON_SPEC", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if required configuration is present.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.JobTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid job timeout seconds: %d", c.JobTimeoutSeconds)
	}
	if c.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("invalid max concurrent jobs: %d", c.MaxConcurrentJobs)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
