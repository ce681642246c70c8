// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package spool owns the agent's durable folder:
//
//	<folder>/settings.cfg      installation identity (lib/identity)
//	<folder>/checkpoint.json   in-progress session, replaced wholesale
//	<folder>/report-<n>.json   finished sessions waiting for upload
//	<folder>/Plugins/          installed copies of the agent
//
// Report files are numbered with the smallest index that is not taken,
// so gaps left by uploads are refilled. Writers never expose a partial
// file under a final name: content goes to a temporary file in the same
// directory, is fsynced, and is renamed into place.
//
// A checkpoint left behind by a crashed process is moved into the
// report queue by [Dir.RecoverCheckpoint] with a rename, so its bytes
// are uploaded exactly as the crashed process wrote them.
//
// Only the process that won instance arbitration touches the folder,
// so there is no locking between writers. Concurrent uploads delete
// report files, which can only open gaps below the next free index.
package spool
