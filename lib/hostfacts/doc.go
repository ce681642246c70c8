// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hostfacts collects the static facts copied into every session
// report: the platform family, whether the host was installed through
// Steam, the machine's CPU/memory/GPU summary, and the inventory of
// loaded sub-components.
//
// None of these change while the process runs, so [Cache] computes them
// exactly once. Reports built before the cache is populated wait for
// it; the agent populates it during start so the first checkpoint does
// not pay the cost.
//
// Probing never fails. Missing or unreadable files produce zero-valued
// fields. A sub-component that cannot be inspected is left out of the
// inventory and reported through [WarnOnce], which logs each offending
// source at most once per process no matter how many reports are built.
package hostfacts
