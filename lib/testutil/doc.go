// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds the wall-clock safety valves used by tests.
//
// Code under test reads time through lib/clock, and tests drive it with
// a fake clock. The only real timeouts in the test suite live here, so
// that a broken goroutine fails the test instead of hanging it:
// [RequireReceive] and [RequireClosed] wait on channels, and
// [RequireEventually] polls a condition that is observable only through
// the filesystem.
//
// All helpers call t.Fatalf on failure.
package testutil
