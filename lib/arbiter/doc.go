// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package arbiter elects a single active copy of a component when the
// host process has loaded several copies of it.
//
// Hosts that let independent plugins bundle their own copy of the agent
// end up with N copies in one process, each compiled at a different
// [version.Statistics]. Every copy calls [Registry.Register] when it is
// loaded and [Candidate.Elect] when it starts; exactly one Elect call
// per component name returns true, and it belongs to the copy with the
// highest version.
//
// Each candidate moves from Pending to exactly one of Won or Lost under
// the registry mutex. Once a component has a winner, every later
// election for that name loses, including a higher-versioned copy that
// registered after the win: the running winner already owns the durable
// folder and a second writer would corrupt it.
//
// Two copies built with the same version are interchangeable. The tie
// is broken deterministically: the earliest-registered candidate at the
// maximum version wins.
//
// [Process] is the registry shared by every copy in the process. Tests
// create their own with [NewRegistry].
package arbiter
