// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostfacts

import (
	"sync"

	"github.com/bureau-foundation/modstats/lib/report"
)

// Sources tells a Cache where each fact comes from. Nil probes produce
// zero values.
type Sources struct {
	// Platform defaults to DetectPlatform.
	Platform func() report.Platform

	// InstallRoot is the host application's install directory, checked
	// for a Steam library path.
	InstallRoot string

	GameVersion report.GameVersion

	// System defaults to ProbeSystem.
	System SystemProber

	Inventory Inventory

	// Warnings receives per-source inspection failures. Required when
	// Inventory is set.
	Warnings *WarnOnce
}

// Cache computes the static facts on first use and returns the same
// value afterwards.
type Cache struct {
	sources Sources

	once   sync.Once
	static report.Static
}

// NewCache returns a cache over sources. Nothing is probed until the
// first call to Static.
func NewCache(sources Sources) *Cache {
	if sources.Platform == nil {
		sources.Platform = DetectPlatform
	}
	if sources.System == nil {
		sources.System = ProbeSystem
	}
	return &Cache{sources: sources}
}

// Static returns the facts, computing them on the first call. Concurrent
// first callers block until the computation finishes. The returned
// SubComponents slice is shared and must not be modified.
func (c *Cache) Static() report.Static {
	c.once.Do(func() {
		c.static = report.Static{
			Platform:           c.sources.Platform(),
			InstalledWithSteam: InstalledWithSteam(c.sources.InstallRoot),
			GameVersion:        c.sources.GameVersion,
			SystemInfo:         c.sources.System(),
		}
		if c.sources.Inventory != nil {
			c.static.SubComponents = c.sources.Inventory.SubComponents(c.sources.Warnings)
		}
	})
	return c.static
}
