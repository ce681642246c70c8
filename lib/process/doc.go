// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for the modstats
// binaries: the structured logger every binary starts with, and fatal
// error reporting for errors that happen before (or instead of) that
// logger.
package process
