// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config resolves the pipeline's runtime options from environment
// variables, one construction site at program entry.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Warehouse carries the ClickHouse connection parameters.
type Warehouse struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Secure   bool
}

// Config is the resolved pipeline configuration.
type Config struct {
	BaseURL                string        // era file origin (S3 endpoint or HTTP server)
	DownloadDir            string        // working directory for fetched era files
	CleanupAfterProcess    bool          // delete era files once their era closes
	MaxRetries             int           // per-operation retry budget
	MaxConcurrentDownloads int           // bound on parallel HTTP fetches
	BatchSize              int           // warehouse insert window
	BlockErrorTolerance    int           // percent of failed blocks that fails an era
	ListTimeout            time.Duration // per discovery request
	DownloadTimeout        time.Duration // per download attempt
	InsertTimeout          time.Duration // per insert batch
	StateTimeout           time.Duration // completion-set query budget

	Warehouse Warehouse
}

// FromEnv reads the recognized environment variables, applying defaults for
// everything but the origin URL, which only remote operations require.
func FromEnv() (*Config, error) {
	cfg := &Config{
		BaseURL:                os.Getenv("ERA_BASE_URL"),
		DownloadDir:            envString("ERA_DOWNLOAD_DIR", os.TempDir()),
		CleanupAfterProcess:    true,
		MaxRetries:             3,
		MaxConcurrentDownloads: 10,
		BatchSize:              100_000,
		BlockErrorTolerance:    50,
		ListTimeout:            60 * time.Second,
		DownloadTimeout:        300 * time.Second,
		InsertTimeout:          300 * time.Second,
		StateTimeout:           30 * time.Second,
		Warehouse: Warehouse{
			Host:     envString("CLICKHOUSE_HOST", "localhost"),
			Port:     9000,
			User:     envString("CLICKHOUSE_USER", "default"),
			Password: os.Getenv("CLICKHOUSE_PASSWORD"),
			Database: envString("CLICKHOUSE_DATABASE", "default"),
		},
	}
	var err error
	if cfg.CleanupAfterProcess, err = envBool("ERA_CLEANUP_AFTER_PROCESS", cfg.CleanupAfterProcess); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = envInt("ERA_MAX_RETRIES", cfg.MaxRetries); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentDownloads, err = envInt("ERA_MAX_CONCURRENT_DOWNLOADS", cfg.MaxConcurrentDownloads); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = envInt("BATCH_SIZE", cfg.BatchSize); err != nil {
		return nil, err
	}
	if cfg.BlockErrorTolerance, err = envInt("ERA_BLOCK_ERROR_TOLERANCE", cfg.BlockErrorTolerance); err != nil {
		return nil, err
	}
	if cfg.Warehouse.Port, err = envInt("CLICKHOUSE_PORT", cfg.Warehouse.Port); err != nil {
		return nil, err
	}
	if cfg.Warehouse.Secure, err = envBool("CLICKHOUSE_SECURE", cfg.Warehouse.Secure); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequireBaseURL errors unless an origin URL was configured.
func (c *Config) RequireBaseURL() error {
	if c.BaseURL == "" {
		return errors.New("config: ERA_BASE_URL is required for remote operations")
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "config: %s", key)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrapf(err, "config: %s", key)
	}
	return b, nil
}
