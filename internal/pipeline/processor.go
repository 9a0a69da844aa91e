// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pipeline drives eras through download, decode, extraction and load.
// An era is the atomic unit: either every row it produced is visible under a
// completed record, or its slot range is clean and a failed record describes
// the last attempt.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gnosischain/era-ingest/internal/catalog"
	"github.com/gnosischain/era-ingest/internal/config"
	"github.com/gnosischain/era-ingest/internal/datasets"
	"github.com/gnosischain/era-ingest/internal/download"
	"github.com/gnosischain/era-ingest/internal/era"
	"github.com/gnosischain/era-ingest/internal/networks"
	"github.com/gnosischain/era-ingest/internal/state"
	"github.com/gnosischain/era-ingest/internal/types"
	"github.com/gnosischain/era-ingest/internal/warehouse"
)

var log = logrus.WithField("module", "pipeline")

// Summary aggregates one range operation.
type Summary struct {
	Processed    int
	Failed       int
	TotalRecords uint64
}

// Processor runs the per-era state machine: Download → ArchiveOpen →
// (per-block: Decode → Extract) → Load → Complete, with a transition to Fail
// from any stage.
type Processor struct {
	cfg       *config.Config
	net       *networks.Config
	db        *warehouse.DB
	state     *state.Manager
	downloads *download.Manager
	selected  []string
	force     bool
}

// NewProcessor wires a processor for one network and one range operation.
func NewProcessor(cfg *config.Config, net *networks.Config, db *warehouse.DB, st *state.Manager, selected []string, force bool) *Processor {
	return &Processor{
		cfg:       cfg,
		net:       net,
		db:        db,
		state:     st,
		downloads: download.NewManager(cfg),
		selected:  selected,
		force:     force,
	}
}

// ProcessRange consults the state manager for the effective era set and runs
// each surviving era to a terminal state. Per-era failures are absorbed into
// the summary; only cancellation stops the loop early.
func (p *Processor) ProcessRange(ctx context.Context, files []catalog.EraFile) (*Summary, error) {
	byEra := make(map[uint64]catalog.EraFile, len(files))
	eras := make([]uint64, 0, len(files))
	for _, f := range files {
		byEra[f.Era] = f
		eras = append(eras, f.Era)
	}
	pending, err := p.state.ErasToProcess(ctx, eras, p.force)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"network":    p.net.Name,
		"discovered": len(eras),
		"pending":    len(pending),
		"force":      p.force,
	}).Info("range resolved")

	summary := &Summary{}
	for _, eraNumber := range pending {
		if ctx.Err() != nil {
			break // no new eras after cancellation
		}
		rows, err := p.processEra(ctx, byEra[eraNumber])
		if err != nil {
			summary.Failed++
			continue
		}
		summary.Processed++
		summary.TotalRecords += rows
	}
	return summary, nil
}

// processEra runs one era to a terminal completion record. The returned error
// only signals the failure to the summary; it has already been recorded.
func (p *Processor) processEra(ctx context.Context, file catalog.EraFile) (uint64, error) {
	var (
		began  = time.Now()
		logger = log.WithFields(logrus.Fields{"network": p.net.Name, "era": file.Era})
	)
	fail := func(stage string, err error) (uint64, error) {
		logger.WithError(err).WithField("duration", time.Since(began).Round(time.Millisecond)).Error("era failed")
		if markErr := p.state.MarkFailed(context.WithoutCancel(ctx), file.Era, fmt.Sprintf("%s: %v", stage, err)); markErr != nil {
			logger.WithError(markErr).Error("failure record not written")
		}
		return 0, err
	}

	// Download.
	path, size, err := p.downloads.Fetch(ctx, file)
	if err != nil {
		return fail("download", err)
	}
	if p.cfg.CleanupAfterProcess {
		defer os.Remove(path)
	}

	// Archive open.
	archive, err := era.Open(path)
	if err != nil {
		return fail("archive", err)
	}
	slotStart, slotEnd := p.net.EraRange(file.Era)
	logger.WithFields(logrus.Fields{
		"size":  size,
		"forks": fmt.Sprintf("%s..%s", p.net.ForkAt(slotStart), p.net.ForkAt(slotEnd)),
	}).Info("era started")

	// Force mode cleans again here: the state manager may have cleaned during
	// candidate selection, but the clean is idempotent and a concurrent run
	// may have written rows since.
	if p.force {
		if err := p.state.CleanSlotRange(ctx, file.Era); err != nil {
			return fail("clean", err)
		}
	}
	if err := p.state.MarkProcessing(ctx, file.Era); err != nil {
		return fail("state", err)
	}
	// From here on the attempt must not leave processing as its terminal
	// state: every return path below records completed or failed.

	batch, decoded, blockErrs := p.decodeBlocks(archive, slotStart, slotEnd, logger)
	if tolerance := p.cfg.BlockErrorTolerance; len(blockErrs)*100 > (decoded+len(blockErrs))*tolerance {
		err := errors.Errorf("%d of %d blocks failed to decode (tolerance %d%%), first: %v",
			len(blockErrs), decoded+len(blockErrs), tolerance, blockErrs[0])
		if cleanErr := p.state.CleanSlotRange(context.WithoutCancel(ctx), file.Era); cleanErr != nil {
			logger.WithError(cleanErr).Error("post-failure clean failed")
		}
		return fail("decode", err)
	}

	// Load every non-empty dataset; any failure rolls the era's range back so
	// a later retry starts clean.
	var loaded []string
	for _, name := range datasets.All {
		rows := batch.Rows(name)
		if len(rows) == 0 {
			continue
		}
		if err := p.db.InsertRows(ctx, name, rows); err != nil {
			if cleanErr := p.state.CleanSlotRange(context.WithoutCancel(ctx), file.Era); cleanErr != nil {
				logger.WithError(cleanErr).Error("post-failure clean failed")
			}
			return fail("load", err)
		}
		loaded = append(loaded, name)
	}
	if err := p.state.MarkCompleted(ctx, file.Era, loaded, batch.Total()); err != nil {
		if errors.Is(err, state.ErrSuperseded) {
			// A concurrent run owns this era now; abort without writing a
			// terminal record over the winner's.
			logger.WithError(err).Warn("era superseded by a concurrent run")
			return 0, err
		}
		return fail("state", err)
	}
	logger.WithFields(logrus.Fields{
		"status":       "completed",
		"blocks":       decoded,
		"block_errors": len(blockErrs),
		"rows":         batch.Total(),
		"datasets":     len(loaded),
		"duration":     time.Since(began).Round(time.Millisecond),
	}).Info("era finished")
	return batch.Total(), nil
}

// decodeBlocks turns every decodable block of the archive into dataset rows,
// collecting per-block errors instead of failing the era.
func (p *Processor) decodeBlocks(archive *era.Archive, slotStart, slotEnd uint64, logger *logrus.Entry) (*datasets.Batch, int, []error) {
	var (
		version   = uint64(time.Now().UnixNano())
		extractor = datasets.NewExtractor(p.net, version, p.selected)
		batch     = datasets.NewBatch()
		decoded   int
		blockErrs []error
	)
	for _, block := range archive.Blocks() {
		if block.Slot < slotStart || block.Slot > slotEnd {
			blockErrs = append(blockErrs, errors.Errorf("block at slot %d outside era range [%d, %d]", block.Slot, slotStart, slotEnd))
			continue
		}
		blob, err := block.Decompress()
		if err != nil {
			blockErrs = append(blockErrs, err)
			continue
		}
		fork := p.net.ForkAt(block.Slot)
		signed, err := types.DecodeSignedBeaconBlock(blob, fork)
		if err != nil {
			blockErrs = append(blockErrs, errors.Wrapf(err, "block at slot %d (%s)", block.Slot, fork))
			continue
		}
		extractor.Extract(signed, fork, batch)
		decoded++
	}
	for _, err := range blockErrs {
		logger.WithError(err).Warn("block skipped")
	}
	return batch, decoded, blockErrs
}
