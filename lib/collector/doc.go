// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package collector is the receiving end of report uploads.
//
// A [Server] accepts POST /statistics/report with a report JSON body,
// validates it against the report schema, and stores it in a SQLite
// [Store] keyed by the report's digest (BLAKE3 over the RFC 8785
// canonical form). A re-sent report, as happens when an agent's
// delete fails after a successful upload, is acknowledged without a
// second row.
//
// Each row keeps the body exactly as received plus the decoded report
// as deterministic CBOR, which GET /statistics/reports/{digest} can
// render in diagnostic notation for inspection.
package collector
