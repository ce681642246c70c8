// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package arbiter

import (
	"fmt"
	"sync"
)

// State is the election state of a Candidate.
type State int

const (
	// Pending candidates have registered but not yet elected.
	Pending State = iota
	// Won is held by at most one candidate per component.
	Won
	// Lost candidates must do no further work for the process lifetime.
	Lost
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Process is the process-wide registry. Every loaded copy of a
// component registers here.
var Process = NewRegistry()

// Registry is a table of candidates keyed by component name, guarded by
// a single mutex.
type Registry struct {
	mu         sync.Mutex
	components map[string][]*Candidate
	sequence   uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{components: make(map[string][]*Candidate)}
}

// Candidate is one loaded copy of a component.
type Candidate struct {
	registry  *Registry
	component string
	version   int
	sequence  uint64
	state     State
}

// Register adds a copy of component built at version. Call it once per
// copy, as early as the copy is loaded, so that every copy is visible
// before any of them elects.
func (r *Registry) Register(component string, version int) *Candidate {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sequence++
	candidate := &Candidate{
		registry:  r,
		component: component,
		version:   version,
		sequence:  r.sequence,
	}
	r.components[component] = append(r.components[component], candidate)
	return candidate
}

// Candidates returns the number of copies registered for component.
func (r *Registry) Candidates(component string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.components[component])
}

// Elect reports whether this candidate is the single active copy of its
// component. The first call decides; later calls return the same
// answer.
func (c *Candidate) Elect() bool {
	registry := c.registry
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if c.state != Pending {
		return c.state == Won
	}

	peers := registry.components[c.component]
	leader := c
	for _, peer := range peers {
		if peer.state == Won {
			c.state = Lost
			return false
		}
		if peer.version > leader.version ||
			(peer.version == leader.version && peer.sequence < leader.sequence) {
			leader = peer
		}
	}

	if leader != c {
		c.state = Lost
		return false
	}
	c.state = Won
	return true
}

// State returns the candidate's current election state.
func (c *Candidate) State() State {
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()
	return c.state
}

// Version returns the version the candidate registered with.
func (c *Candidate) Version() int { return c.version }

// Component returns the component name the candidate registered under.
func (c *Candidate) Component() string { return c.component }
