// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostfacts

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/modstats/lib/report"
)

// ProbeSystem collects the machine summary from /proc, /sys, and the
// kernel.
func ProbeSystem() report.SystemInfo {
	info := probeFrom("/proc", "/sys")
	info.Kernel = kernelRelease()
	if total := sysinfoMemoryMB(); total > 0 {
		info.SystemMemory = total
	}
	return info
}

// probeFrom is the testable part of ProbeSystem. It accepts root paths
// for /proc and /sys so tests can point at synthetic filesystems.
func probeFrom(procRoot, sysRoot string) report.SystemInfo {
	info := report.SystemInfo{
		CPUs:     runtime.NumCPU(),
		CPUModel: readCPUModel(filepath.Join(procRoot, "cpuinfo")),
	}
	info.SystemMemory = readMemTotalMB(filepath.Join(procRoot, "meminfo"))
	info.GPUVendorID, info.GPUMemory = probeGPU(sysRoot)
	return info
}

func kernelRelease() string {
	var utsname unix.Utsname
	if err := unix.Uname(&utsname); err != nil {
		return ""
	}
	return unix.ByteSliceToString(utsname.Release[:])
}

func sysinfoMemoryMB() int64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	return int64(uint64(info.Totalram) * uint64(info.Unit) / (1024 * 1024))
}

// readCPUModel extracts the first "model name" line from /proc/cpuinfo.
func readCPUModel(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "model name") {
			if _, value, ok := strings.Cut(line, ":"); ok {
				return strings.TrimSpace(value)
			}
		}
	}
	return ""
}

// readMemTotalMB parses the MemTotal line of /proc/meminfo ("MemTotal:
// 16309412 kB").
func readMemTotalMB(path string) int64 {
	file, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] != "MemTotal:" {
			continue
		}
		kilobytes, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kilobytes / 1024
	}
	return 0
}
