// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestUserAgentFormat(t *testing.T) {
	previous := Version
	Version = "1.2.3"
	t.Cleanup(func() { Version = previous })

	if got, want := UserAgent(), "modstats/1.2.3 (8)"; got != want {
		t.Errorf("UserAgent() = %q, want %q", got, want)
	}
}

func TestInfoIncludesStatisticsVersion(t *testing.T) {
	if !strings.Contains(Info(), "statistics 8") {
		t.Errorf("Info() = %q, missing statistics version", Info())
	}
}
