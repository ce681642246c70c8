// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package hostfacts

import (
	"runtime"

	"github.com/bureau-foundation/modstats/lib/report"
)

// ProbeSystem returns the CPU count. Other fields need platform probes
// that only exist for Linux.
func ProbeSystem() report.SystemInfo {
	return report.SystemInfo{CPUs: runtime.NumCPU()}
}
