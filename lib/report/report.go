// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bureau-foundation/modstats/lib/session"
)

// Platform is the operating system family the host runs on.
type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformLinux   Platform = "linux"
	PlatformMac     Platform = "mac"
)

// GameVersion describes the host application build.
type GameVersion struct {
	Build        int  `json:"build"`
	Major        int  `json:"major"`
	Minor        int  `json:"minor"`
	Revision     int  `json:"revision"`
	Experimental bool `json:"experimental"`
	IsBeta       bool `json:"isBeta"`
	IsSteam      bool `json:"isSteam"`
	Is64         bool `json:"is64"`
}

// SystemInfo describes the machine. Memory sizes are in megabytes.
type SystemInfo struct {
	CPUs         int    `json:"cpus"`
	GPUMemory    int64  `json:"gpuMemory"`
	GPUVendorID  int    `json:"gpuVendorId"`
	SystemMemory int64  `json:"systemMemory"`
	CPUModel     string `json:"cpuModel,omitempty"`
	Kernel       string `json:"kernel,omitempty"`
}

// FileVersion is the four-part version stamped on a sub-component
// binary.
type FileVersion struct {
	Major    int `json:"major"`
	Minor    int `json:"minor"`
	Build    int `json:"build"`
	Revision int `json:"revision"`
}

// SubComponent is one loaded add-on of the host.
type SubComponent struct {
	Name                 string      `json:"name"`
	Title                string      `json:"title"`
	SourceURL            string      `json:"sourceUrl"`
	SHA256               string      `json:"sha256"`
	HostVersionRange     string      `json:"hostVersionRange"`
	FileVersion          FileVersion `json:"fileVersion"`
	InformationalVersion string      `json:"informationalVersion"`
}

// Static holds the facts that do not change during a process lifetime.
// They are computed once (see hostfacts.Cache) and copied into every
// report.
type Static struct {
	Platform           Platform
	InstalledWithSteam bool
	GameVersion        GameVersion
	SystemInfo         SystemInfo
	SubComponents      []SubComponent
}

// Document is the report as serialized to JSON.
type Document struct {
	Started            time.Time          `json:"started"`
	Finished           time.Time          `json:"finished"`
	Crashed            bool               `json:"crashed"`
	StatisticsVersion  int                `json:"statisticsVersion"`
	Platform           Platform           `json:"platform"`
	ID                 string             `json:"id"`
	InstalledWithSteam bool               `json:"installedWithSteam"`
	GameVersion        GameVersion        `json:"gameVersion"`
	Scenes             map[string]float64 `json:"scenes"`
	SystemInfo         SystemInfo         `json:"systemInfo"`
	SubComponents      []SubComponent     `json:"subComponents"`
}

// Session is the per-session part of a report.
type Session struct {
	Started  time.Time
	Finished time.Time
	Crashed  bool
	Phases   map[session.Phase]time.Duration
}

// Build assembles a report. id is the installation identifier in its
// 32-character hex form; statisticsVersion is the agent's integer
// protocol version. Phase names are lower-cased and durations are
// expressed in fractional milliseconds.
func Build(id string, statisticsVersion int, current Session, static Static) *Document {
	scenes := make(map[string]float64, len(current.Phases))
	for phase, duration := range current.Phases {
		scenes[phase.Key()] += float64(duration) / float64(time.Millisecond)
	}

	subComponents := static.SubComponents
	if subComponents == nil {
		subComponents = []SubComponent{}
	}

	return &Document{
		Started:            current.Started.UTC(),
		Finished:           current.Finished.UTC(),
		Crashed:            current.Crashed,
		StatisticsVersion:  statisticsVersion,
		Platform:           static.Platform,
		ID:                 id,
		InstalledWithSteam: static.InstalledWithSteam,
		GameVersion:        static.GameVersion,
		Scenes:             scenes,
		SystemInfo:         static.SystemInfo,
		SubComponents:      subComponents,
	}
}

// Encode serializes a document. Map keys come out sorted, so scenes
// appear in alphabetical order.
func Encode(document *Document) ([]byte, error) {
	data, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return data, nil
}

// Decode parses report bytes. It does not validate; call [Validate]
// first when the bytes come from outside the process.
func Decode(data []byte) (*Document, error) {
	var document Document
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &document, nil
}
