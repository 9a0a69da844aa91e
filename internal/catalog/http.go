// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package catalog

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// headConcurrency caps the parallel HEAD sweep regardless of the download
// concurrency setting.
const headConcurrency = 20

// listHTTP scrapes the origin's index document for era filenames (the tail of
// the name embeds a state root, so names cannot be synthesized a priori) and
// validates the candidates with parallel HEAD probes, window by window. For
// open-ended ranges the sweep stops once three consecutive windows return
// fewer than five files each.
func (c *Catalog) listHTTP(ctx context.Context, start uint64, end *uint64) ([]EraFile, error) {
	candidates, err := c.scrapeIndex(ctx)
	if err != nil {
		return nil, err
	}
	candidates = filterRange(candidates, start, end)

	var (
		files []EraFile
		dry   int
	)
	for offset := 0; offset < len(candidates); offset += windowSize {
		limit := offset + windowSize
		if limit > len(candidates) {
			limit = len(candidates)
		}
		window, err := c.probeWindow(ctx, candidates[offset:limit])
		if err != nil {
			return nil, err
		}
		files = append(files, window...)
		if end == nil {
			if len(window) < minWindowHits {
				dry++
				if dry >= dryWindows {
					break
				}
			} else {
				dry = 0
			}
		}
	}
	return files, nil
}

// scrapeIndex pulls the origin's listing page and extracts every era filename
// for the catalog's network.
func (c *Catalog) scrapeIndex(ctx context.Context) ([]EraFile, error) {
	base := strings.TrimSuffix(c.cfg.BaseURL, "/")

	var body []byte
	err := c.retryDiscovery(ctx, "fetch index", func(reqCtx context.Context) error {
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, base+"/", nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return errors.Errorf("index returned status %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	var files []EraFile
	for _, name := range eraNamePattern.FindAllString(string(body), -1) {
		if file, ok := c.parseKey(name, base+"/"+name); ok {
			files = append(files, file)
		}
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(ErrDiscovery, "origin %s lists no %s era files; use an s3:// origin if it has no index", base, c.network)
	}
	return files, nil
}

// probeWindow HEAD-checks one window of candidates with bounded concurrency,
// keeping the ones the origin confirms.
func (c *Catalog) probeWindow(ctx context.Context, window []EraFile) ([]EraFile, error) {
	limit := headConcurrency
	if c.cfg.MaxConcurrentDownloads < limit {
		limit = c.cfg.MaxConcurrentDownloads
	}
	var (
		mu    sync.Mutex
		found []EraFile
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for _, candidate := range window {
		candidate := candidate
		group.Go(func() error {
			req, err := http.NewRequestWithContext(groupCtx, http.MethodHead, candidate.URL, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				// A single unreachable candidate is not fatal to the sweep.
				log.WithError(err).WithField("era", candidate.Era).Debug("head probe failed")
				return nil
			}
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				mu.Lock()
				found = append(found, candidate)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, errors.Wrapf(ErrDiscovery, "head sweep: %v", err)
	}
	return filterRange(found, 0, nil), nil
}
