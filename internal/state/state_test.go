// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package state

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnosischain/era-ingest/internal/networks"
	"github.com/gnosischain/era-ingest/internal/warehouse"
)

// fakeDB records every statement; the embedded interfaces keep the fake in
// sync with the driver's method set without implementing all of it.
type fakeDB struct {
	completed     []uint64 // eras the completion view reports as completed
	completedErr  error
	current       map[uint64]*CompletionRow // current record per era
	execs         []string
	inserts       []*CompletionRow
	insertedTable string
}

func (f *fakeDB) Exec(ctx context.Context, query string, args ...any) error {
	f.execs = append(f.execs, query)
	return nil
}

func (f *fakeDB) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	if f.completedErr != nil {
		return nil, f.completedErr
	}
	return &fakeRows{eras: f.completed}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, query string, args ...any) driver.Row {
	era, _ := args[1].(uint64)
	row, ok := f.current[era]
	if !ok {
		return &fakeRow{err: errors.New("no rows")}
	}
	if strings.Contains(query, "insert_version") {
		return &fakeRow{value: row.InsertVersion}
	}
	return &fakeRow{value: row.RetryCount}
}

func (f *fakeDB) InsertRows(ctx context.Context, table string, rows []any) error {
	f.insertedTable = table
	for _, row := range rows {
		f.inserts = append(f.inserts, row.(*CompletionRow))
	}
	return nil
}

type fakeRows struct {
	driver.Rows
	eras []uint64
	pos  int
}

func (r *fakeRows) Next() bool { return r.pos < len(r.eras) }
func (r *fakeRows) Scan(dest ...any) error {
	*(dest[0].(*uint64)) = r.eras[r.pos]
	r.pos++
	return nil
}
func (r *fakeRows) Close() error { return nil }
func (r *fakeRows) Err() error   { return nil }

type fakeRow struct {
	driver.Row
	value any
	err   error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	switch v := r.value.(type) {
	case uint64:
		*(dest[0].(*uint64)) = v
	case uint32:
		*(dest[0].(*uint32)) = v
	}
	return nil
}

func newTestManager(t *testing.T, db DB) *Manager {
	t.Helper()
	cfg, err := networks.Lookup("gnosis")
	require.NoError(t, err)
	return NewManager(db, cfg, time.Second)
}

func eraRange(n int) []uint64 {
	eras := make([]uint64, n)
	for i := range eras {
		eras[i] = uint64(i)
	}
	return eras
}

func TestErasToProcessNormalMode(t *testing.T) {
	// 2613 discovered eras, 138 already completed: 2475 remain.
	db := &fakeDB{completed: eraRange(138)}
	m := newTestManager(t, db)

	pending, err := m.ErasToProcess(context.Background(), eraRange(2613), false)
	require.NoError(t, err)
	assert.Len(t, pending, 2475)
	assert.Equal(t, uint64(138), pending[0])
	assert.Empty(t, db.execs, "normal mode must not clean")
}

func TestErasToProcessQueryFailureFallsBack(t *testing.T) {
	db := &fakeDB{completedErr: errors.New("timeout")}
	m := newTestManager(t, db)

	pending, err := m.ErasToProcess(context.Background(), eraRange(10), false)
	require.NoError(t, err)
	assert.Len(t, pending, 10, "an unanswerable completion query processes everything")
}

func TestErasToProcessForceCleans(t *testing.T) {
	db := &fakeDB{completed: eraRange(3)}
	m := newTestManager(t, db)

	pending, err := m.ErasToProcess(context.Background(), []uint64{1, 2}, true)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, pending, "force returns every candidate")

	// Each candidate's clean deletes from every dataset table plus the
	// completion record.
	wantPerEra := len(warehouse.DatasetTables()) + 1
	assert.Len(t, db.execs, 2*wantPerEra)
	for _, stmt := range db.execs {
		assert.Contains(t, stmt, "DELETE FROM")
	}
}

func TestMarkProcessingAndCompleted(t *testing.T) {
	db := &fakeDB{current: map[uint64]*CompletionRow{}}
	m := newTestManager(t, db)

	require.NoError(t, m.MarkProcessing(context.Background(), 1082))
	require.Len(t, db.inserts, 1)
	row := db.inserts[0]
	assert.Equal(t, "era_completion", db.insertedTable)
	assert.Equal(t, StatusProcessing, row.Status)
	assert.Equal(t, "gnosis", row.Network)
	assert.Equal(t, uint64(8863744), row.SlotStart)
	assert.Equal(t, uint64(8871935), row.SlotEnd)
	assert.NotZero(t, row.InsertVersion)

	require.NoError(t, m.MarkCompleted(context.Background(), 1082, []string{"blocks"}, 8192))
	require.Len(t, db.inserts, 2)
	done := db.inserts[1]
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, uint64(8192), done.TotalRecords)
	assert.Equal(t, []string{"blocks"}, done.DatasetsProcessed)
	require.NotNil(t, done.CompletedAt)
	assert.Greater(t, done.InsertVersion, row.InsertVersion)
}

func TestMarkCompletedAbortsWhenSuperseded(t *testing.T) {
	db := &fakeDB{current: map[uint64]*CompletionRow{}}
	m := newTestManager(t, db)

	require.NoError(t, m.MarkProcessing(context.Background(), 7))

	// Another process wrote a newer record in the meantime.
	db.current[7] = &CompletionRow{InsertVersion: db.inserts[0].InsertVersion + 1000}

	err := m.MarkCompleted(context.Background(), 7, nil, 0)
	require.ErrorIs(t, err, ErrSuperseded)
	assert.Len(t, db.inserts, 1, "the losing attempt must not write a terminal record")
}

func TestMarkFailedBumpsRetries(t *testing.T) {
	db := &fakeDB{current: map[uint64]*CompletionRow{
		9: {RetryCount: 2},
	}}
	m := newTestManager(t, db)

	require.NoError(t, m.MarkFailed(context.Background(), 9, "download: boom"))
	require.Len(t, db.inserts, 1)
	row := db.inserts[0]
	assert.Equal(t, StatusFailed, row.Status)
	assert.Equal(t, "download: boom", row.ErrorMessage)
	assert.Equal(t, uint32(3), row.RetryCount)

	// First failure of an unseen era starts the counter at one.
	db.inserts = nil
	require.NoError(t, m.MarkFailed(context.Background(), 10, "archive: bad"))
	assert.Equal(t, uint32(1), db.inserts[0].RetryCount)
}
