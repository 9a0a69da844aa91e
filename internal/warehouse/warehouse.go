// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package warehouse wraps the ClickHouse native connection: schema contract,
// column-oriented batched inserts and the handful of queries the state manager
// issues. Inserts are the only mutating operations besides force-mode cleans.
package warehouse

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gnosischain/era-ingest/internal/config"
)

var log = logrus.WithField("module", "warehouse")

// DB is the pipeline's handle on the warehouse.
type DB struct {
	conn          driver.Conn
	batchSize     int
	insertTimeout time.Duration
}

// Connect opens a native-protocol connection and verifies it with a ping.
func Connect(ctx context.Context, cfg *config.Config) (*DB, error) {
	options := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Warehouse.Host, cfg.Warehouse.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Warehouse.Database,
			Username: cfg.Warehouse.User,
			Password: cfg.Warehouse.Password,
		},
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
		DialTimeout: 10 * time.Second,
	}
	if cfg.Warehouse.Secure {
		options.TLS = &tls.Config{}
	}
	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, errors.Wrap(err, "warehouse: open connection")
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, errors.Wrapf(err, "warehouse: ping %s:%d", cfg.Warehouse.Host, cfg.Warehouse.Port)
	}
	return &DB{
		conn:          conn,
		batchSize:     cfg.BatchSize,
		insertTimeout: cfg.InsertTimeout,
	}, nil
}

// Close releases the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Exec runs a statement without result rows.
func (db *DB) Exec(ctx context.Context, query string, args ...any) error {
	return db.conn.Exec(ctx, query, args...)
}

// Query runs a statement returning rows.
func (db *DB) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	return db.conn.Query(ctx, query, args...)
}

// QueryRow runs a statement returning a single row.
func (db *DB) QueryRow(ctx context.Context, query string, args ...any) driver.Row {
	return db.conn.QueryRow(ctx, query, args...)
}

// InsertRows streams one dataset's rows into its table in windows of the
// configured batch size. Each window is one native-protocol batch with its own
// timeout; any window failing fails the whole dataset load.
func (db *DB) InsertRows(ctx context.Context, table string, rows []any) error {
	for start := 0; start < len(rows); start += db.batchSize {
		end := start + db.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := db.insertWindow(ctx, table, rows[start:end]); err != nil {
			return errors.Wrapf(err, "warehouse: insert into %s rows [%d, %d)", table, start, end)
		}
	}
	return nil
}

func (db *DB) insertWindow(ctx context.Context, table string, rows []any) error {
	ctx, cancel := context.WithTimeout(ctx, db.insertTimeout)
	defer cancel()

	batch, err := db.conn.PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := batch.AppendStruct(row); err != nil {
			batch.Abort()
			return err
		}
	}
	if err := batch.Send(); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"table": table, "rows": len(rows)}).Debug("insert window sent")
	return nil
}
