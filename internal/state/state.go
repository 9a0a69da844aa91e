// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package state is the single source of truth for which eras are complete.
// Every write appends a completion record with a fresh insert_version; the
// current record of an era is the one with the highest version, so concurrent
// force-cleans resolve to last-write-wins.
package state

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gnosischain/era-ingest/internal/networks"
	"github.com/gnosischain/era-ingest/internal/warehouse"
)

// DB is the slice of the warehouse the state manager drives.
type DB interface {
	Exec(ctx context.Context, query string, args ...any) error
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) driver.Row
	InsertRows(ctx context.Context, table string, rows []any) error
}

var log = logrus.WithField("module", "state")

// Era completion statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ErrSuperseded reports that another process wrote a newer completion record
// for the era this manager was driving. The losing attempt must abort without
// writing a terminal record of its own.
var ErrSuperseded = errors.New("state: attempt superseded by a newer record")

// CompletionRow mirrors one era_completion record.
type CompletionRow struct {
	Network             string     `ch:"network"`
	EraNumber           uint64     `ch:"era_number"`
	Status              string     `ch:"status"`
	SlotStart           uint64     `ch:"slot_start"`
	SlotEnd             uint64     `ch:"slot_end"`
	TotalRecords        uint64     `ch:"total_records"`
	DatasetsProcessed   []string   `ch:"datasets_processed"`
	ProcessingStartedAt time.Time  `ch:"processing_started_at"`
	CompletedAt         *time.Time `ch:"completed_at"`
	ErrorMessage        string     `ch:"error_message"`
	RetryCount          uint32     `ch:"retry_count"`
	InsertVersion       uint64     `ch:"insert_version"`
}

// Manager drives the era_completion table and the force-mode cleans.
type Manager struct {
	db      DB
	cfg     *networks.Config
	timeout time.Duration // completion-set query budget

	startedAt map[uint64]time.Time // processing start per era, for completed_at records
	versions  map[uint64]uint64    // insert_version this manager wrote per era
}

// NewManager returns a state manager for one network.
func NewManager(db DB, cfg *networks.Config, queryTimeout time.Duration) *Manager {
	return &Manager{
		db:        db,
		cfg:       cfg,
		timeout:   queryTimeout,
		startedAt: make(map[uint64]time.Time),
		versions:  make(map[uint64]uint64),
	}
}

// ErasToProcess decides which of the candidate eras an operation should touch.
// In force mode every candidate is cleaned and returned. In normal mode the
// completed set is subtracted; if that query does not answer within its budget
// the whole candidate list is returned so the run makes progress (the
// versioned schema makes re-inserts safe).
func (m *Manager) ErasToProcess(ctx context.Context, candidates []uint64, force bool) ([]uint64, error) {
	if force {
		for _, era := range candidates {
			if err := m.CleanSlotRange(ctx, era); err != nil {
				return nil, err
			}
		}
		return candidates, nil
	}
	completed, err := m.completedSet(ctx)
	if err != nil {
		log.WithError(err).Warn("completion set unavailable, processing all candidates")
		return candidates, nil
	}
	var pending []uint64
	for _, era := range candidates {
		if _, done := completed[era]; !done {
			pending = append(pending, era)
		}
	}
	return pending, nil
}

func (m *Manager) completedSet(ctx context.Context) (map[uint64]struct{}, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	rows, err := m.db.Query(ctx,
		`SELECT era_number FROM era_completion_current WHERE network = ? AND status = ?`,
		m.cfg.Name, StatusCompleted)
	if err != nil {
		return nil, errors.Wrap(err, "state: query completed eras")
	}
	defer rows.Close()

	completed := make(map[uint64]struct{})
	for rows.Next() {
		var era uint64
		if err := rows.Scan(&era); err != nil {
			return nil, errors.Wrap(err, "state: scan completed era")
		}
		completed[era] = struct{}{}
	}
	return completed, rows.Err()
}

// MarkProcessing appends a current record with status=processing.
func (m *Manager) MarkProcessing(ctx context.Context, era uint64) error {
	now := time.Now().UTC()
	m.startedAt[era] = now
	return m.insert(ctx, &CompletionRow{
		Status:              StatusProcessing,
		EraNumber:           era,
		ProcessingStartedAt: now,
	})
}

// MarkCompleted appends a current record with status=completed, unless a
// concurrent process already superseded this attempt's processing record, in
// which case ErrSuperseded tells the caller to abort the era.
func (m *Manager) MarkCompleted(ctx context.Context, era uint64, datasets []string, totalRecords uint64) error {
	if current, err := m.currentVersion(ctx, era); err == nil && current > m.versions[era] {
		return errors.Wrapf(ErrSuperseded, "era %d version %d, ours %d", era, current, m.versions[era])
	}
	now := time.Now().UTC()
	return m.insert(ctx, &CompletionRow{
		Status:              StatusCompleted,
		EraNumber:           era,
		TotalRecords:        totalRecords,
		DatasetsProcessed:   datasets,
		ProcessingStartedAt: m.started(era),
		CompletedAt:         &now,
	})
}

// MarkFailed appends a current record with status=failed, bumping the retry
// counter over the previous current record's.
func (m *Manager) MarkFailed(ctx context.Context, era uint64, message string) error {
	retries, err := m.previousRetries(ctx, era)
	if err != nil {
		log.WithError(err).WithField("era", era).Warn("previous retry count unavailable")
	}
	return m.insert(ctx, &CompletionRow{
		Status:              StatusFailed,
		EraNumber:           era,
		ProcessingStartedAt: m.started(era),
		ErrorMessage:        message,
		RetryCount:          retries + 1,
	})
}

func (m *Manager) currentVersion(ctx context.Context, era uint64) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var version uint64
	err := m.db.QueryRow(ctx,
		`SELECT insert_version FROM era_completion_current WHERE network = ? AND era_number = ?`,
		m.cfg.Name, era).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (m *Manager) previousRetries(ctx context.Context, era uint64) (uint32, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var retries uint32
	err := m.db.QueryRow(ctx,
		`SELECT retry_count FROM era_completion_current WHERE network = ? AND era_number = ?`,
		m.cfg.Name, era).Scan(&retries)
	if err != nil {
		return 0, nil //nolint:nilerr // absent record means first attempt
	}
	return retries, nil
}

func (m *Manager) started(era uint64) time.Time {
	if at, ok := m.startedAt[era]; ok {
		return at
	}
	return time.Now().UTC()
}

func (m *Manager) insert(ctx context.Context, row *CompletionRow) error {
	start, end := m.cfg.EraRange(row.EraNumber)
	row.Network = m.cfg.Name
	row.SlotStart = start
	row.SlotEnd = end
	row.InsertVersion = uint64(time.Now().UnixNano())
	if err := m.db.InsertRows(ctx, "era_completion", []any{row}); err != nil {
		return errors.Wrapf(err, "state: record era %d %s", row.EraNumber, row.Status)
	}
	m.versions[row.EraNumber] = row.InsertVersion
	return nil
}

// CleanSlotRange deletes every dataset row inside the era's slot range and the
// era's completion record. It is idempotent: repeating it on an already-clean
// era deletes nothing.
func (m *Manager) CleanSlotRange(ctx context.Context, era uint64) error {
	start, end := m.cfg.EraRange(era)
	for _, table := range warehouse.DatasetTables() {
		if err := m.db.Exec(ctx,
			"DELETE FROM "+table+" WHERE slot >= ? AND slot <= ?", start, end); err != nil {
			return errors.Wrapf(err, "state: clean %s for era %d", table, era)
		}
	}
	if err := m.db.Exec(ctx,
		`DELETE FROM era_completion WHERE network = ? AND era_number = ?`, m.cfg.Name, era); err != nil {
		return errors.Wrapf(err, "state: clean completion record for era %d", era)
	}
	log.WithFields(logrus.Fields{"era": era, "slot_start": start, "slot_end": end}).Info("slot range cleaned")
	return nil
}

// Status summarizes the network's completion table.
type Status struct {
	CompletedCount   uint64
	FailedCount      uint64
	LastCompletionAt *time.Time
}

// NetworkStatus reports completed/failed era counts and the latest completion
// time for the manager's network.
func (m *Manager) NetworkStatus(ctx context.Context) (*Status, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var (
		status Status
		last   *time.Time
	)
	err := m.db.QueryRow(ctx, `
SELECT
    countIf(status = 'completed'),
    countIf(status = 'failed'),
    maxOrNull(completed_at)
FROM era_completion_current
WHERE network = ?`, m.cfg.Name).Scan(&status.CompletedCount, &status.FailedCount, &last)
	if err != nil {
		return nil, errors.Wrap(err, "state: network status")
	}
	status.LastCompletionAt = last
	return &status, nil
}
