// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnosischain/era-ingest/internal/catalog"
	"github.com/gnosischain/era-ingest/internal/config"
)

func testManager(t *testing.T, retries int) *Manager {
	t.Helper()
	m := NewManager(&config.Config{
		DownloadDir:     t.TempDir(),
		MaxRetries:      retries,
		DownloadTimeout: 5 * time.Second,
	})
	m.baseDelay = time.Millisecond
	return m
}

func eraFile(url string) catalog.EraFile {
	return catalog.EraFile{
		Network: "gnosis",
		Era:     1082,
		Name:    "gnosis-01082-5a96f366.era",
		URL:     url,
	}
}

func TestFetch(t *testing.T) {
	payload := []byte("era archive bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	path, size, err := testManager(t, 0).Fetch(context.Background(), eraFile(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), size)

	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, blob)
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	_, size, err := testManager(t, 3).Fetch(context.Background(), eraFile(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, _, err := testManager(t, 2).Fetch(context.Background(), eraFile(srv.URL))
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load()) // initial attempt + two retries
}

func TestFetchNotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := testManager(t, 5).Fetch(context.Background(), eraFile(srv.URL))
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "404 must not be retried")
}

func TestFetchHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := testManager(t, 10).Fetch(ctx, eraFile(srv.URL))
	require.Error(t, err)
}
