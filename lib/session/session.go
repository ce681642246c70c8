// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session accumulates how long the host spends in each of its
// phases (main menu, loading, flight, ...) over one process lifetime.
package session

import (
	"strings"
	"sync"
	"time"
)

// Phase names a stage of the host application's lifecycle. Phases are
// compared exactly; [Phase.Key] gives the lower-cased form used in
// reports.
type Phase string

// Key returns the report key for the phase.
func (p Phase) Key() string { return strings.ToLower(string(p)) }

// Recorder tracks the open phase and the time credited to each phase
// so far. All methods take the observation instant explicitly so the
// caller's clock decides what "now" is.
//
// A Recorder is safe for concurrent use: the host's phase callback and
// the checkpoint ticker may run on different goroutines.
type Recorder struct {
	mu sync.Mutex

	started    time.Time
	current    Phase
	hasCurrent bool

	// currentStart is the instant up to which the open phase has been
	// credited. Snapshot moves it forward.
	currentStart time.Time

	// lastMark is the most recent instant at which time was credited
	// (phase change or snapshot).
	lastMark time.Time

	durations map[Phase]time.Duration
}

// NewRecorder returns a Recorder for a session that began at started.
func NewRecorder(started time.Time) *Recorder {
	return &Recorder{
		started:      started,
		currentStart: started,
		lastMark:     started,
		durations:    make(map[Phase]time.Duration),
	}
}

// Observe records that the host is in phase at now. When phase differs
// from the open phase, the elapsed time of the open phase is credited
// and phase becomes the open phase. The first observation only opens a
// phase: time before it is not attributed to anything.
func (r *Recorder) Observe(phase Phase, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasCurrent && phase == r.current {
		return
	}
	if r.hasCurrent {
		r.creditLocked(now)
	} else {
		r.markLocked(now)
	}
	r.current = phase
	r.hasCurrent = true
}

// Snapshot credits the open phase up to now and returns a copy of the
// accumulated durations. The open phase stays open; its start moves to
// now, so consecutive snapshots never count the same interval twice.
func (r *Recorder) Snapshot(now time.Time) map[Phase]time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasCurrent {
		r.creditLocked(now)
	} else {
		r.markLocked(now)
	}

	snapshot := make(map[Phase]time.Duration, len(r.durations))
	for phase, duration := range r.durations {
		snapshot[phase] = duration
	}
	return snapshot
}

// creditLocked adds now-currentStart to the open phase and moves
// currentStart to now. An instant before currentStart credits nothing
// and leaves currentStart unchanged.
func (r *Recorder) creditLocked(now time.Time) {
	if elapsed := now.Sub(r.currentStart); elapsed > 0 {
		r.durations[r.current] += elapsed
	}
	r.markLocked(now)
}

func (r *Recorder) markLocked(now time.Time) {
	if now.After(r.currentStart) {
		r.currentStart = now
	}
	if now.After(r.lastMark) {
		r.lastMark = now
	}
}

// Started returns the session start time.
func (r *Recorder) Started() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Current returns the open phase, or ok=false before the first
// observation.
func (r *Recorder) Current() (phase Phase, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.hasCurrent
}

// LastMark returns the latest instant up to which time has been
// credited. Reports use it as their "finished" time.
func (r *Recorder) LastMark() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastMark
}
