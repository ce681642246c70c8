// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the modstats
// agent and its companion binaries.
//
// Two different numbers identify a build:
//
//   - [Version] -- the semantic version string, injected at build time
//     via -ldflags -X and reported in the User-Agent header and
//     --version output.
//   - [Statistics] -- a monotonically increasing integer that every
//     loaded copy of the agent registers with the process-wide
//     arbiter. The copy carrying the highest value is the only one
//     allowed to run. It also appears in every report as
//     statisticsVersion, so the collector can tell which report
//     schema revision produced a document.
//
// Bump Statistics whenever a release changes agent behavior; bumping
// Version alone does not make a new build win arbitration against an
// older copy bundled by another host component.
package version
