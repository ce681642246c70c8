// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostfacts

import (
	"os"
	"runtime"
	"strings"

	"github.com/bureau-foundation/modstats/lib/report"
)

// macRoots are top-level directories whose joint presence identifies a
// macOS filesystem when the runtime only says "some Unix".
var macRoots = []string{"/Applications", "/Users", "/Volumes", "/System"}

// DetectPlatform returns the platform family of the running process.
func DetectPlatform() report.Platform {
	return platformFor(runtime.GOOS, directoryExists)
}

func platformFor(goos string, exists func(string) bool) report.Platform {
	switch goos {
	case "windows":
		return report.PlatformWindows
	case "darwin", "ios":
		return report.PlatformMac
	}
	for _, root := range macRoots {
		if !exists(root) {
			return report.PlatformLinux
		}
	}
	return report.PlatformMac
}

func directoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// InstalledWithSteam reports whether the host's install root lies inside
// a Steam library ("SteamApps/common", either separator, any case).
func InstalledWithSteam(installRoot string) bool {
	normalized := strings.ToLower(strings.ReplaceAll(installRoot, `\`, "/"))
	return strings.Contains(normalized, "steamapps/common")
}
