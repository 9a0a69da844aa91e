// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.CleanupAfterProcess)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 10, cfg.MaxConcurrentDownloads)
	assert.Equal(t, 100_000, cfg.BatchSize)
	assert.Equal(t, 50, cfg.BlockErrorTolerance)
	assert.Equal(t, 9000, cfg.Warehouse.Port)
	assert.Equal(t, "default", cfg.Warehouse.User)
	assert.NotEmpty(t, cfg.DownloadDir)

	require.Error(t, cfg.RequireBaseURL())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ERA_BASE_URL", "s3://era-files/gnosis")
	t.Setenv("ERA_DOWNLOAD_DIR", "/var/tmp/eras")
	t.Setenv("ERA_CLEANUP_AFTER_PROCESS", "false")
	t.Setenv("ERA_MAX_RETRIES", "7")
	t.Setenv("ERA_MAX_CONCURRENT_DOWNLOADS", "20")
	t.Setenv("BATCH_SIZE", "5000")
	t.Setenv("CLICKHOUSE_HOST", "ch.internal")
	t.Setenv("CLICKHOUSE_PORT", "9440")
	t.Setenv("CLICKHOUSE_SECURE", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "s3://era-files/gnosis", cfg.BaseURL)
	assert.Equal(t, "/var/tmp/eras", cfg.DownloadDir)
	assert.False(t, cfg.CleanupAfterProcess)
	assert.Equal(t, 7, cfg.MaxRetries)
	assert.Equal(t, 20, cfg.MaxConcurrentDownloads)
	assert.Equal(t, 5000, cfg.BatchSize)
	assert.Equal(t, "ch.internal", cfg.Warehouse.Host)
	assert.Equal(t, 9440, cfg.Warehouse.Port)
	assert.True(t, cfg.Warehouse.Secure)
	require.NoError(t, cfg.RequireBaseURL())
}

func TestFromEnvRejectsGarbage(t *testing.T) {
	t.Setenv("ERA_MAX_RETRIES", "many")
	_, err := FromEnv()
	require.Error(t, err)
}
