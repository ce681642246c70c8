// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostfacts

import (
	"log/slog"
	"sync"
)

// WarnOnce logs a warning the first time a given source misbehaves and
// stays silent for that source afterwards. Safe for concurrent use.
type WarnOnce struct {
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewWarnOnce returns a WarnOnce that logs through logger.
func NewWarnOnce(logger *slog.Logger) *WarnOnce {
	return &WarnOnce{logger: logger, seen: make(map[string]struct{})}
}

// Warn logs message with the given attributes unless source has already
// been warned about. Returns true when the warning was emitted.
func (w *WarnOnce) Warn(source, message string, args ...any) bool {
	w.mu.Lock()
	_, already := w.seen[source]
	if !already {
		w.seen[source] = struct{}{}
	}
	w.mu.Unlock()

	if already {
		return false
	}
	w.logger.Warn(message, append([]any{"source", source}, args...)...)
	return true
}

// Warned reports whether source has been warned about.
func (w *WarnOnce) Warned(source string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.seen[source]
	return ok
}
