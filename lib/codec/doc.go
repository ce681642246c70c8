// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the CBOR encoding used for reports at rest in the
// collector's store.
//
// Encoding follows RFC 8949 Core Deterministic Encoding: sorted map
// keys, shortest integer forms, no indefinite lengths. The same
// document always produces the same bytes. Timestamps are written as
// tag 0 RFC 3339 strings with nanoseconds so they survive a round trip
// exactly.
//
// Struct fields without a cbor tag use their json tag, so the report
// types in lib/report need no second set of tags.
//
// [Diagnose] renders stored bytes in RFC 8949 diagnostic notation for
// inspection through the collector's HTTP API.
package codec
