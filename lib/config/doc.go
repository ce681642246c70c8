// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the agent's YAML configuration.
//
// Configuration comes from a single file named either by the
// MODSTATS_CONFIG environment variable (via [Load]) or by a --config
// flag (via [LoadFile]). There is no search path and no per-field
// environment override. Running without a file is allowed: binaries
// call [Default] and the result is a working setup that reports to a
// collector on localhost.
//
// Path fields support ${HOME}, ${MODSTATS_FOLDER}, and ${VAR:-default}
// expansion after loading.
//
// This file is distinct from the per-installation settings.cfg, which
// holds the identity and consent flags and is owned by lib/identity.
package config
