// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package download fetches era files into the working directory with bounded
// retries. Each era owns its file exclusively, named after its era number and
// short root.
package download

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gnosischain/era-ingest/internal/catalog"
	"github.com/gnosischain/era-ingest/internal/config"
)

var log = logrus.WithField("module", "download")

// Manager downloads era files with per-attempt timeouts and an exponential
// backoff schedule between attempts.
type Manager struct {
	dir        string
	maxRetries int
	timeout    time.Duration
	client     *http.Client
	baseDelay  time.Duration
}

// NewManager returns a download manager writing into the configured working
// directory.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		dir:        cfg.DownloadDir,
		maxRetries: cfg.MaxRetries,
		timeout:    cfg.DownloadTimeout,
		client:     &http.Client{},
		baseDelay:  time.Second,
	}
}

// Fetch downloads one era file, returning its local path and size. It fails
// once the retry budget is exhausted, or after a single attempt on a permanent
// error such as a 404; the caller records that as a per-era failure, not a
// batch failure.
func (m *Manager) Fetch(ctx context.Context, file catalog.EraFile) (string, int64, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", 0, errors.Wrap(err, "download: create working directory")
	}
	path := filepath.Join(m.dir, file.Name)

	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = m.baseDelay
	schedule.Multiplier = 2
	schedule.MaxInterval = 30 * time.Second
	schedule.MaxElapsedTime = 0 // the attempt counter bounds us, not wall time

	var (
		size     int64
		attempts int
	)
	attempt := func() error {
		attempts++
		var err error
		size, err = m.fetchOnce(ctx, file.URL, path)
		return err
	}
	err := backoff.Retry(attempt, backoff.WithContext(
		backoff.WithMaxRetries(schedule, uint64(m.maxRetries)), ctx))
	if err != nil {
		return "", 0, errors.Wrapf(err, "download: era %d after %d attempts", file.Era, attempts)
	}
	return path, size, nil
}

// fetchOnce runs a single download attempt into a temporary file, renaming it
// into place only when the body was fully consumed.
func (m *Manager) fetchOnce(ctx context.Context, url, path string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, backoff.Permanent(err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err := errors.Errorf("status %d fetching %s", resp.StatusCode, url)
		if resp.StatusCode == http.StatusNotFound {
			return 0, backoff.Permanent(err)
		}
		return 0, err
	}

	tmp, err := os.CreateTemp(m.dir, filepath.Base(path)+".part-*")
	if err != nil {
		return 0, backoff.Permanent(err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, backoff.Permanent(err)
	}
	log.WithFields(logrus.Fields{"path": path, "bytes": size}).Debug("era file downloaded")
	return size, nil
}
