// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package catalog discovers era files beneath a remote origin and yields them
// as an ordered (era, url) stream. Origins are either S3-style buckets listed
// page by page, or plain HTTP servers whose index is scraped and validated
// with bounded parallel HEAD probes.
package catalog

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gnosischain/era-ingest/internal/config"
	"github.com/gnosischain/era-ingest/internal/networks"
)

var log = logrus.WithField("module", "catalog")

// ErrDiscovery reports an origin that stayed unreachable through the retry
// budget. It is fatal to the enclosing range operation.
var ErrDiscovery = errors.New("catalog: discovery failed")

// Open-range termination: stop after this many consecutive probe windows each
// yielding fewer than minWindowHits new files.
const (
	windowSize    = 100
	minWindowHits = 5
	dryWindows    = 3
)

// EraFile is one discovered era archive.
type EraFile struct {
	Network   string
	Era       uint64
	ShortRoot string
	Name      string // canonical filename
	URL       string // direct download URL
}

// Catalog lists era files for one network beneath a configured origin.
type Catalog struct {
	cfg     *config.Config
	network string
}

// New returns a catalog rooted at the configured origin.
func New(cfg *config.Config, network string) *Catalog {
	return &Catalog{cfg: cfg, network: network}
}

// List discovers the era files within [start, end]; a nil end means open-ended.
// The result is ordered by era number, one file per era.
func (c *Catalog) List(ctx context.Context, start uint64, end *uint64) ([]EraFile, error) {
	var (
		files []EraFile
		err   error
	)
	if strings.HasPrefix(c.cfg.BaseURL, "s3://") {
		files, err = c.listS3(ctx)
	} else {
		files, err = c.listHTTP(ctx, start, end)
	}
	if err != nil {
		return nil, err
	}
	return filterRange(files, start, end), nil
}

// filterRange orders by era, deduplicates and applies the requested bounds.
func filterRange(files []EraFile, start uint64, end *uint64) []EraFile {
	sort.Slice(files, func(i, j int) bool { return files[i].Era < files[j].Era })
	var (
		out  []EraFile
		last = uint64(0)
		seen = false
	)
	for _, f := range files {
		if f.Era < start {
			continue
		}
		if end != nil && f.Era > *end {
			continue
		}
		if seen && f.Era == last {
			continue
		}
		out = append(out, f)
		last, seen = f.Era, true
	}
	return out
}

// parseKey extracts an era file reference from an object key or href, keeping
// only this catalog's network.
func (c *Catalog) parseKey(key, url string) (EraFile, bool) {
	name := key
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	network, era, root, err := networks.ParseFilename(name)
	if err != nil || network != c.network {
		return EraFile{}, false
	}
	return EraFile{Network: network, Era: era, ShortRoot: root, Name: name, URL: url}, true
}

// eraNamePattern recognizes era filenames inside arbitrary listing documents.
var eraNamePattern = regexp.MustCompile(`[a-zA-Z0-9]+-\d{5}-[0-9a-fA-F]{8}\.era`)

// retryDiscovery runs one discovery request with the configured retry budget.
func (c *Catalog) retryDiscovery(ctx context.Context, what string, op func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, c.cfg.ListTimeout)
		err = op(reqCtx)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		log.WithError(err).WithFields(logrus.Fields{"what": what, "attempt": attempt + 1}).Warn("discovery request failed")
		select {
		case <-time.After(time.Second << uint(attempt)):
		case <-ctx.Done():
			return errors.Wrap(ErrDiscovery, ctx.Err().Error())
		}
	}
	return errors.Wrapf(ErrDiscovery, "%s: %v", what, err)
}
