// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity loads and saves the per-installation settings file
// (settings.cfg) that holds the anonymous installation [Identity].
//
// The file is plain key/value text so that users can disable reporting
// with a text editor:
//
//	// To disable reporting, change the line below to "disabled = true"
//	disabled = false
//	update = true
//	id = 5f0c3a7d9e8b4c21a6f2d0b1c3e4f5a6
//
// [Load] distinguishes a missing file ([ErrAbsent]) from a file with no
// usable content ([ErrMalformed]); callers treat both the same way and
// hand control to the consent flow. Individual bad fields never fail a
// load: each one is replaced with its default and a warning is logged.
package identity
