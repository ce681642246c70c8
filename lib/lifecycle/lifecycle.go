// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/modstats/lib/clock"
	"github.com/bureau-foundation/modstats/lib/report"
	"github.com/bureau-foundation/modstats/lib/session"
	"github.com/bureau-foundation/modstats/lib/spool"
)

// DefaultInterval is the minimum spacing between checkpoints.
const DefaultInterval = 15 * time.Second

// State is the manager's position in its lifecycle.
type State int

const (
	// Idle: created, Start not yet called.
	Idle State = iota
	// Running: the session is being recorded and checkpointed.
	Running
	// Finalized: the final report is written; further calls are no-ops.
	Finalized
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Finalized:
		return "finalized"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrNotIdle is returned by Start on a manager that was already started.
var ErrNotIdle = errors.New("lifecycle: manager already started")

// Config holds the manager's collaborators.
type Config struct {
	Dir    spool.Dir
	Clock  clock.Clock
	Logger *slog.Logger

	// ID is the installation identifier in hex form.
	ID string

	// StatisticsVersion is stamped into every report.
	StatisticsVersion int

	// Facts returns the static part of each report. Called on every
	// Tick, Checkpoint, and Shutdown without the manager's lock held,
	// so it should be cheap once warm (hostfacts.Cache.Static).
	Facts func() report.Static

	// Interval is the minimum time between checkpoints. Defaults to
	// DefaultInterval when zero.
	Interval time.Duration
}

// Manager owns the session recorder and the files derived from it.
// Methods are safe for concurrent use.
type Manager struct {
	dir               spool.Dir
	clock             clock.Clock
	logger            *slog.Logger
	id                string
	statisticsVersion int
	facts             func() report.Static
	interval          time.Duration

	mu             sync.Mutex
	state          State
	recorder       *session.Recorder
	checkpointed   bool
	lastCheckpoint time.Time
}

// New validates cfg and returns an idle manager.
func New(cfg Config) (*Manager, error) {
	if cfg.Clock == nil {
		return nil, fmt.Errorf("lifecycle: Clock is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("lifecycle: Logger is required")
	}
	if cfg.Dir.Root == "" {
		return nil, fmt.Errorf("lifecycle: Dir is required")
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("lifecycle: Interval must not be negative, got %s", cfg.Interval)
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	facts := cfg.Facts
	if facts == nil {
		facts = func() report.Static { return report.Static{} }
	}

	return &Manager{
		dir:               cfg.Dir,
		clock:             cfg.Clock,
		logger:            cfg.Logger,
		id:                cfg.ID,
		statisticsVersion: cfg.StatisticsVersion,
		facts:             facts,
		interval:          interval,
	}, nil
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start recovers a leftover checkpoint into the report queue and opens
// the session. It returns the path the checkpoint was recovered to, or
// "" when there was none. A failed recovery is logged and does not
// prevent the session from starting; the checkpoint is then overwritten
// by this session's first checkpoint.
func (m *Manager) Start() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Idle {
		return "", ErrNotIdle
	}

	recovered, err := m.dir.RecoverCheckpoint()
	if err != nil {
		m.logger.Warn("could not recover checkpoint from previous session", "error", err)
	} else if recovered != "" {
		m.logger.Info("recovered checkpoint from previous session", "path", recovered)
	}

	m.recorder = session.NewRecorder(m.clock.Now())
	m.state = Running
	return recovered, nil
}

// Observe records that the host is in phase now.
func (m *Manager) Observe(phase session.Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Running {
		return
	}
	m.recorder.Observe(phase, m.clock.Now())
}

// Tick checkpoints when the interval has elapsed since the previous
// checkpoint. The first tick after Start always checkpoints.
func (m *Manager) Tick() error {
	static := m.facts()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Running {
		return nil
	}
	if m.checkpointed && m.clock.Now().Sub(m.lastCheckpoint) < m.interval {
		return nil
	}
	return m.checkpointLocked(static)
}

// Checkpoint replaces checkpoint.json with the current session state
// regardless of the interval.
func (m *Manager) Checkpoint() error {
	static := m.facts()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Running {
		return nil
	}
	return m.checkpointLocked(static)
}

// Run checkpoints on a ticker until ctx is done or the manager is
// finalized. For hosts that have no per-frame callback.
func (m *Manager) Run(ctx context.Context) {
	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.State() == Finalized {
				return
			}
			if err := m.Tick(); err != nil {
				m.logger.Warn("checkpoint failed", "error", err)
			}
		}
	}
}

// Shutdown writes the final report into the queue, removes the
// checkpoint, and finalizes the manager. It returns the report path.
// When the report cannot be written the checkpoint is left in place so
// the next session recovers it.
func (m *Manager) Shutdown() (string, error) {
	static := m.facts()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Running {
		return "", nil
	}
	m.state = Finalized

	data, err := m.renderLocked(static)
	if err != nil {
		return "", err
	}
	path, err := m.dir.WriteReport(data)
	if err != nil {
		return "", err
	}
	if err := m.dir.RemoveCheckpoint(); err != nil {
		// Recovered next session as an extra partial report.
		m.logger.Warn("could not remove checkpoint after finalizing", "error", err)
	}

	m.logger.Info("session report finalized", "path", path)
	return path, nil
}

func (m *Manager) checkpointLocked(static report.Static) error {
	data, err := m.renderLocked(static)
	if err != nil {
		return err
	}
	if err := m.dir.WriteCheckpoint(data); err != nil {
		return err
	}
	m.checkpointed = true
	m.logger.Debug("checkpoint written", "finished", m.lastCheckpoint)
	return nil
}

// renderLocked snapshots the recorder at the current time and encodes
// the report. The snapshot instant never precedes the previous one.
func (m *Manager) renderLocked(static report.Static) ([]byte, error) {
	now := m.clock.Now()
	if m.checkpointed && now.Before(m.lastCheckpoint) {
		now = m.lastCheckpoint
	}
	m.lastCheckpoint = now

	phases := m.recorder.Snapshot(now)
	document := report.Build(m.id, m.statisticsVersion, report.Session{
		Started:  m.recorder.Started(),
		Finished: m.recorder.LastMark(),
		Crashed:  false,
		Phases:   phases,
	}, static)

	return report.Encode(document)
}
