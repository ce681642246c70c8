// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bureau-foundation/modstats/lib/clock"
	"github.com/bureau-foundation/modstats/lib/session"
)

// step is one scripted phase of the simulated host.
type step struct {
	phase    session.Phase
	duration time.Duration
}

// parsePhases parses NAME=DURATION flag values.
func parsePhases(values []string) ([]step, error) {
	steps := make([]step, 0, len(values))
	for _, value := range values {
		name, rawDuration, found := strings.Cut(value, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("phase %q: want NAME=DURATION", value)
		}
		duration, err := time.ParseDuration(strings.TrimSpace(rawDuration))
		if err != nil {
			return nil, fmt.Errorf("phase %q: %w", value, err)
		}
		if duration < 0 {
			return nil, fmt.Errorf("phase %q: negative duration", value)
		}
		steps = append(steps, step{phase: session.Phase(name), duration: duration})
	}
	return steps, nil
}

// frameSink is the part of the agent the frame loop drives.
type frameSink interface {
	ObservePhase(session.Phase)
	Tick()
}

// simulate runs the scripted phases, ticking once per frame. It
// returns early when ctx is done.
func simulate(ctx context.Context, clk clock.Clock, sink frameSink, steps []step) {
	ticker := clk.NewTicker(frameInterval)
	defer ticker.Stop()

	for _, current := range steps {
		sink.ObservePhase(current.phase)
		sink.Tick()
		deadline := clk.Now().Add(current.duration)
		for clk.Now().Before(deadline) {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sink.Tick()
			}
		}
	}
}
