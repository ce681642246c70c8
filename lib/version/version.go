// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.8.0-dev"
)

// Statistics is the arbitration and report-schema version of this
// build. It is a compile-time constant rather than an ldflags variable
// because two copies built from the same source must agree on it.
const Statistics = 8

// AgentName is the product token used in the User-Agent header.
const AgentName = "modstats"

// Info returns a formatted version string suitable for --version output.
func Info() string {
	return fmt.Sprintf("%s (statistics %d, %s, %s)", Version, Statistics, GitCommit, BuildTime)
}

// Full returns detailed version information including Go version.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent returns the User-Agent header value sent with every report
// upload: "modstats/<version> (<statistics>)".
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%d)", AgentName, Version, Statistics)
}
