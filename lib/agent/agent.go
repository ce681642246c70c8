// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/modstats/lib/arbiter"
	"github.com/bureau-foundation/modstats/lib/clock"
	"github.com/bureau-foundation/modstats/lib/hostfacts"
	"github.com/bureau-foundation/modstats/lib/identity"
	"github.com/bureau-foundation/modstats/lib/lifecycle"
	"github.com/bureau-foundation/modstats/lib/session"
	"github.com/bureau-foundation/modstats/lib/spool"
	"github.com/bureau-foundation/modstats/lib/upload"
	"github.com/bureau-foundation/modstats/lib/version"
)

// Consent obtains the user's decision when no usable settings file
// exists. ok is false when the request was skipped or aborted; the
// returned identity is then ignored. A refusal is an identity with
// Enabled false.
type Consent interface {
	Request(ctx context.Context) (id identity.Identity, ok bool)
}

// Status describes what a started agent is doing.
type Status int

const (
	// Inactive: another copy of the component won arbitration.
	Inactive Status = iota
	// Disabled: reporting is off for this session (declined, consent
	// aborted, or the folder is unusable).
	Disabled
	// Active: the session is being recorded.
	Active
)

func (s Status) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Disabled:
		return "disabled"
	case Active:
		return "active"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Config holds everything Start needs. Folder, Clock, and Logger are
// required.
type Config struct {
	Folder string
	Clock  clock.Clock
	Logger *slog.Logger

	// Registry defaults to arbiter.Process.
	Registry *arbiter.Registry
	// Component defaults to version.AgentName.
	Component string
	// StatisticsVersion defaults to version.Statistics.
	StatisticsVersion int

	// Consent may be nil, in which case a missing settings file
	// disables the agent.
	Consent Consent

	// Uploader may be nil to skip uploading.
	Uploader          upload.Uploader
	UploadConcurrency int

	CheckpointInterval time.Duration

	Facts hostfacts.Sources

	// Install lists files to place in Plugins/.
	Install []spool.InstallItem
}

// Agent is a started telemetry agent.
type Agent struct {
	status   Status
	logger   *slog.Logger
	dir      spool.Dir
	identity identity.Identity
	manager  *lifecycle.Manager
	drain    *upload.Drain
}

// Start runs the startup sequence described in the package
// documentation.
func Start(ctx context.Context, cfg Config) (*Agent, error) {
	if cfg.Clock == nil || cfg.Logger == nil || cfg.Folder == "" {
		return &Agent{status: Disabled, logger: slog.New(slog.DiscardHandler)},
			fmt.Errorf("agent: Folder, Clock, and Logger are required")
	}
	registry := cfg.Registry
	if registry == nil {
		registry = arbiter.Process
	}
	component := cfg.Component
	if component == "" {
		component = version.AgentName
	}
	statisticsVersion := cfg.StatisticsVersion
	if statisticsVersion == 0 {
		statisticsVersion = version.Statistics
	}
	logger := cfg.Logger

	candidate := registry.Register(component, statisticsVersion)
	if !candidate.Elect() {
		logger.Info("another copy of the agent is active, standing down",
			"statistics_version", statisticsVersion)
		return &Agent{status: Inactive, logger: logger}, nil
	}

	agent := &Agent{status: Disabled, logger: logger, dir: spool.New(cfg.Folder)}
	if err := agent.dir.Ensure(); err != nil {
		return agent, err
	}

	loaded, ok := agent.loadIdentity(ctx, cfg.Consent)
	if !ok {
		logger.Info("no reporting decision, agent disabled for this session")
		return agent, nil
	}
	agent.identity = loaded
	if err := identity.Save(agent.dir.SettingsPath(), loaded); err != nil {
		logger.Warn("could not save settings", "error", err)
	}
	if !loaded.Enabled {
		logger.Info("reporting is disabled in settings")
		return agent, nil
	}

	facts := hostfacts.NewCache(cfg.Facts)
	facts.Static()

	manager, err := lifecycle.New(lifecycle.Config{
		Dir:               agent.dir,
		Clock:             cfg.Clock,
		Logger:            logger,
		ID:                loaded.HexID(),
		StatisticsVersion: statisticsVersion,
		Facts:             facts.Static,
		Interval:          cfg.CheckpointInterval,
	})
	if err != nil {
		return agent, err
	}
	if _, err := manager.Start(); err != nil {
		return agent, err
	}
	agent.manager = manager
	agent.status = Active

	if cfg.Uploader != nil {
		queue := &upload.Queue{
			Dir:         agent.dir,
			Uploader:    cfg.Uploader,
			Logger:      logger,
			Concurrency: cfg.UploadConcurrency,
		}
		agent.drain = queue.Drain(ctx)
	}

	if len(cfg.Install) > 0 {
		installed, err := agent.dir.Install(cfg.Install)
		if err != nil {
			logger.Warn("could not install agent into plugins folder", "error", err)
		}
		for _, name := range installed {
			logger.Info("installed into plugins folder", "name", name)
		}
	}

	logger.Info("statistics agent started",
		"folder", cfg.Folder,
		"id", loaded.HexID(),
		"version", version.Version,
	)
	return agent, nil
}

// loadIdentity returns the stored identity, or asks for consent when
// there is none. ok is false when no decision was obtained.
func (a *Agent) loadIdentity(ctx context.Context, consent Consent) (identity.Identity, bool) {
	loaded, err := identity.Load(a.dir.SettingsPath(), a.logger)
	if err == nil {
		return loaded, true
	}
	if !errors.Is(err, identity.ErrAbsent) {
		a.logger.Warn("settings file is unusable, asking again", "error", err)
	}
	if consent == nil {
		return identity.Identity{}, false
	}
	return consent.Request(ctx)
}

// Status reports what the agent is doing.
func (a *Agent) Status() Status { return a.status }

// Identity returns the installation identity. Zero unless the agent got
// past consent.
func (a *Agent) Identity() identity.Identity { return a.identity }

// Drain returns the upload pass started by Start, or nil.
func (a *Agent) Drain() *upload.Drain { return a.drain }

// ObservePhase forwards a host phase change.
func (a *Agent) ObservePhase(phase session.Phase) {
	if a.manager != nil {
		a.manager.Observe(phase)
	}
}

// Tick is the host's per-frame callback.
func (a *Agent) Tick() {
	if a.manager == nil {
		return
	}
	if err := a.manager.Tick(); err != nil {
		a.logger.Warn("checkpoint failed", "error", err)
	}
}

// Run checkpoints on a timer until ctx is done, for hosts without a
// per-frame callback.
func (a *Agent) Run(ctx context.Context) {
	if a.manager != nil {
		a.manager.Run(ctx)
	}
}

// Shutdown finalizes the session report. Returns the report path, or ""
// when the agent was not active.
func (a *Agent) Shutdown() (string, error) {
	if a.manager == nil {
		return "", nil
	}
	return a.manager.Shutdown()
}
