// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/modstats/lib/clock"
	"github.com/bureau-foundation/modstats/lib/codec"
	"github.com/bureau-foundation/modstats/lib/report"
	"github.com/bureau-foundation/modstats/lib/sqlitepool"
)

// ErrNotFound is returned by Store.Get for an unknown digest.
var ErrNotFound = errors.New("collector: report not found")

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	digest             TEXT PRIMARY KEY,
	received_at        INTEGER NOT NULL,
	installation       TEXT NOT NULL,
	statistics_version INTEGER NOT NULL,
	body               TEXT NOT NULL,
	document           BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_installation ON reports(installation);
`

// StoreConfig holds the parameters for opening a Store.
type StoreConfig struct {
	// Path is the database file. The parent directory must exist.
	Path string

	// PoolSize defaults to 4 if zero or negative.
	PoolSize int

	Clock  clock.Clock
	Logger *slog.Logger
}

// Store persists received reports.
type Store struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// StoredReport is one row of the store.
type StoredReport struct {
	Digest            string
	ReceivedAt        time.Time
	Installation      string
	StatisticsVersion int

	// Body is the JSON exactly as the agent sent it.
	Body []byte

	// Document is the decoded report in deterministic CBOR.
	Document []byte
}

// OpenStore opens (creating if needed) the database at cfg.Path and
// verifies the schema applies.
func OpenStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	if cfg.Clock == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("collector store: Clock and Logger are required")
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Schema:   schema,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("collector store: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("collector store: %w", err)
	}
	return &Store{pool: pool, clock: cfg.Clock, logger: cfg.Logger}, nil
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Put stores a report under digest. body must be the raw JSON the
// document was decoded from. inserted is false when a report with the
// same digest was already stored; the existing row is left unchanged.
func (s *Store) Put(ctx context.Context, digest string, document *report.Document, body []byte) (inserted bool, err error) {
	encoded, err := codec.Marshal(document)
	if err != nil {
		return false, fmt.Errorf("collector store: encoding report: %w", err)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("collector store: put: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return false, fmt.Errorf("collector store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn,
		`INSERT OR IGNORE INTO reports
			(digest, received_at, installation, statistics_version, body, document)
			VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				digest,
				s.clock.Now().UnixNano(),
				document.ID,
				document.StatisticsVersion,
				string(body),
				encoded,
			},
		})
	if err != nil {
		return false, fmt.Errorf("collector store: inserting report %s: %w", digest, err)
	}
	return conn.Changes() > 0, nil
}

// Get returns the report stored under digest, or ErrNotFound.
func (s *Store) Get(ctx context.Context, digest string) (StoredReport, error) {
	var stored StoredReport
	found := false
	err := s.pool.WithConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT digest, received_at, installation, statistics_version, body, document
				FROM reports WHERE digest = ?`,
			&sqlitex.ExecOptions{
				Args: []any{digest},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					found = true
					stored.Digest = stmt.ColumnText(0)
					stored.ReceivedAt = time.Unix(0, stmt.ColumnInt64(1)).UTC()
					stored.Installation = stmt.ColumnText(2)
					stored.StatisticsVersion = stmt.ColumnInt(3)
					stored.Body = []byte(stmt.ColumnText(4))
					stored.Document = make([]byte, stmt.ColumnLen(5))
					stmt.ColumnBytes(5, stored.Document)
					return nil
				},
			})
	})
	if err != nil {
		return StoredReport{}, fmt.Errorf("collector store: reading report %s: %w", digest, err)
	}
	if !found {
		return StoredReport{}, ErrNotFound
	}
	return stored, nil
}

// Count returns the number of stored reports. When installation is
// non-empty only that installation's reports are counted.
func (s *Store) Count(ctx context.Context, installation string) (int, error) {
	query := `SELECT COUNT(*) FROM reports`
	var args []any
	if installation != "" {
		query += ` WHERE installation = ?`
		args = append(args, installation)
	}

	var count int
	err := s.pool.WithConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = stmt.ColumnInt(0)
				return nil
			},
		})
	})
	if err != nil {
		return 0, fmt.Errorf("collector store: counting reports: %w", err)
	}
	return count, nil
}
