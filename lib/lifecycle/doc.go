// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle drives one session's report from first observation
// to the upload queue.
//
// A [Manager] moves through three states:
//
//	Idle ──Start──▶ Running ──Shutdown──▶ Finalized
//
// Start first moves any checkpoint left by a crashed process into the
// report queue, then opens a fresh session. While running, the host
// forwards phase changes through [Manager.Observe] and calls
// [Manager.Tick] on every frame; Tick rewrites checkpoint.json at most
// once per interval (15 seconds by default), so a crash loses at most
// one interval of data. Hosts without a frame callback use
// [Manager.Run] instead.
//
// Shutdown writes the final report straight into the next free report
// slot and removes the checkpoint. Every later call is a no-op.
//
// Checkpoints are written with crashed=false. When a crashed session's
// checkpoint is recovered the file is renamed, not rewritten, so the
// queued report still says crashed=false.
package lifecycle
