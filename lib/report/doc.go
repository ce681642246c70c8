// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package report defines the session report document: the JSON object
// the agent writes to checkpoint.json and report-<n>.json and the
// collector ingests.
//
// The field set is stable and only ever grows. [Build] assembles a
// [Document] from a session snapshot plus the static host facts,
// [Encode] produces the bytes that go to disk, and [Validate] checks
// arbitrary bytes against the embedded JSON schema (schema.jsonc).
//
// [Digest] identifies a report independent of formatting: the RFC 8785
// canonical form of the JSON, hashed with BLAKE3. The agent logs it
// when uploading and the collector uses it as the storage key, so the
// same report sent twice is stored once.
package report
