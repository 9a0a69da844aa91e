// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"context"

	"github.com/pkg/errors"

	"github.com/gnosischain/era-ingest/internal/catalog"
	"github.com/gnosischain/era-ingest/internal/config"
	"github.com/gnosischain/era-ingest/internal/networks"
	"github.com/gnosischain/era-ingest/internal/state"
	"github.com/gnosischain/era-ingest/internal/warehouse"
)

// Operator is the caller-facing surface: process a range, report status,
// force-clean a range. One construction site wires every collaborator.
type Operator struct {
	cfg *config.Config
	db  *warehouse.DB
}

// NewOperator connects the warehouse and returns the operator surface.
func NewOperator(ctx context.Context, cfg *config.Config) (*Operator, error) {
	db, err := warehouse.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Operator{cfg: cfg, db: db}, nil
}

// Close releases the warehouse connection.
func (o *Operator) Close() error {
	return o.db.Close()
}

// InitSchema applies the warehouse schema contract.
func (o *Operator) InitSchema(ctx context.Context) error {
	return o.db.EnsureSchema(ctx)
}

// ProcessRange discovers [start, end] (nil end means open) on the origin and
// runs every era the state manager leaves standing. The returned error is
// non-nil only for configuration or discovery failures; per-era failures are
// reported through the summary.
func (o *Operator) ProcessRange(ctx context.Context, network string, start uint64, end *uint64, selected []string, force bool) (*Summary, error) {
	if err := o.cfg.RequireBaseURL(); err != nil {
		return nil, err
	}
	net, err := networks.Lookup(network)
	if err != nil {
		return nil, err
	}
	files, err := catalog.New(o.cfg, network).List(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(catalog.ErrDiscovery, "no era files for %s in requested range", network)
	}
	st := state.NewManager(o.db, net, o.cfg.StateTimeout)
	processor := NewProcessor(o.cfg, net, o.db, st, selected, force)
	summary, err := processor.ProcessRange(ctx, files)
	if err != nil {
		return nil, err
	}
	log.WithFields(map[string]any{
		"network":   network,
		"processed": summary.Processed,
		"failed":    summary.Failed,
		"rows":      summary.TotalRecords,
	}).Info("range finished")
	return summary, nil
}

// Status reports the completion counters of a network.
func (o *Operator) Status(ctx context.Context, network string) (*state.Status, error) {
	net, err := networks.Lookup(network)
	if err != nil {
		return nil, err
	}
	return state.NewManager(o.db, net, o.cfg.StateTimeout).NetworkStatus(ctx)
}

// Clean force-cleans every era in [start, end]: all dataset rows in the slot
// ranges plus the completion records.
func (o *Operator) Clean(ctx context.Context, network string, start, end uint64) error {
	net, err := networks.Lookup(network)
	if err != nil {
		return err
	}
	st := state.NewManager(o.db, net, o.cfg.StateTimeout)
	for era := start; era <= end; era++ {
		if err := st.CleanSlotRange(ctx, era); err != nil {
			return err
		}
	}
	return nil
}
