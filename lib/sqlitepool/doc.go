// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens the collector's SQLite database as a
// fixed-size pool of zombiezen.com/go/sqlite connections.
//
// Every connection gets the same pragmas on first use:
//
//   - journal_mode=WAL: readers never block the ingest writer.
//   - synchronous=FULL: a committed report survives power loss. The
//     agent deletes its copy as soon as the collector answers 200, so
//     the commit is the only remaining copy.
//   - busy_timeout=5000: concurrent ingests wait for the write lock
//     instead of failing with SQLITE_BUSY.
//   - temp_store=MEMORY.
//
// [Config].Schema is executed on every new connection, so it must be
// idempotent (CREATE TABLE IF NOT EXISTS ...).
//
// Connections are not safe for concurrent use. Either Take and Put
// explicitly, or use [Pool.WithConn]:
//
//	err := pool.WithConn(ctx, func(conn *sqlite.Conn) error {
//	    return sqlitex.Execute(conn, "SELECT count(*) FROM reports", &sqlitex.ExecOptions{...})
//	})
package sqlitepool
