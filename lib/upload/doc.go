// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package upload sends queued session reports to the collector.
//
// [Queue.Drain] takes a snapshot of the report files present when it is
// called and returns immediately. Each file is uploaded by its own
// goroutine; outcomes are handled by a single completion goroutine,
// which deletes a file only after the collector confirmed it with a 2xx
// response. Anything else (network failure, non-2xx status,
// cancellation) leaves the file untouched for the next session. There
// is no retry within a session and no ordering between files.
//
// The host never waits for a drain. Tests and the demo binaries use
// [Drain.Done] or [Drain.Wait] to observe completion.
package upload
