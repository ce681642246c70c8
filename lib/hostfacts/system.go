// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostfacts

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bureau-foundation/modstats/lib/report"
)

// readSysfsString reads a single-value sysfs or procfs file and returns
// its trimmed content, or "" when unreadable.
func readSysfsString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// parseHexID parses a sysfs PCI id such as "0x10de".
func parseHexID(value string) int {
	value = strings.TrimPrefix(strings.ToLower(value), "0x")
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseInt(value, 16, 32)
	if err != nil {
		return 0
	}
	return int(parsed)
}

// isCardDevice returns true for DRM card device names (card0, card1, ...)
// but not connectors (card0-DP-1) or render nodes (renderD128).
func isCardDevice(name string) bool {
	suffix, ok := strings.CutPrefix(name, "card")
	if !ok || suffix == "" {
		return false
	}
	for _, character := range suffix {
		if character < '0' || character > '9' {
			return false
		}
	}
	return true
}

// probeGPU returns the PCI vendor id and dedicated memory (megabytes) of
// the DRM card with the most VRAM. Drivers that do not expose
// mem_info_vram_total (most non-amdgpu drivers) report zero memory; the
// first card's vendor is still returned.
func probeGPU(sysRoot string) (vendorID int, memoryMB int64) {
	drmBase := filepath.Join(sysRoot, "class/drm")
	entries, err := os.ReadDir(drmBase)
	if err != nil {
		return 0, 0
	}

	for _, entry := range entries {
		if !isCardDevice(entry.Name()) {
			continue
		}
		devicePath := filepath.Join(drmBase, entry.Name(), "device")
		vendor := parseHexID(readSysfsString(filepath.Join(devicePath, "vendor")))
		if vendor == 0 {
			continue
		}

		var vram int64
		if raw := readSysfsString(filepath.Join(devicePath, "mem_info_vram_total")); raw != "" {
			if bytes, err := strconv.ParseInt(raw, 10, 64); err == nil {
				vram = bytes / (1024 * 1024)
			}
		}

		if vendorID == 0 || vram > memoryMB {
			vendorID = vendor
			memoryMB = vram
		}
	}
	return vendorID, memoryMB
}

// SystemProber returns the machine summary for reports.
type SystemProber func() report.SystemInfo
