// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent wires the telemetry components together for one host
// process.
//
// [Start] runs the startup sequence in a fixed order:
//
//  1. Instance arbitration. A copy that loses returns at once, before
//     touching the filesystem; it holds no resources and every later
//     call on it is a no-op.
//  2. Identity. settings.cfg is loaded; when it is absent or unusable
//     the [Consent] collaborator is asked for a decision. An aborted
//     consent request disables the agent for this session without
//     writing anything. Otherwise the identity is saved back, which
//     makes repaired fields durable.
//  3. If reporting is enabled: collect the static host facts, recover
//     the previous session's checkpoint, start recording, start draining the upload queue in
//     the background, and install the agent into Plugins/.
//
// No failure is fatal to the host. Start always returns a usable
// [Agent]; a non-nil error is for logging.
package agent
