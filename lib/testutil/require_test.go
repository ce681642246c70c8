// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"testing"
	"time"
)

// recordingTB captures Fatalf instead of stopping the test. Fatalf
// panics so the helper under test stops the way runtime.Goexit would.
type recordingTB struct {
	message string
}

type fatal struct{}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Fatalf(format string, args ...any) {
	r.message = fmt.Sprintf(format, args...)
	panic(fatal{})
}

func expectFatal(t *testing.T, run func(tb TB)) string {
	t.Helper()
	recorder := &recordingTB{}
	func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				if _, ok := recovered.(fatal); !ok {
					panic(recovered)
				}
			}
		}()
		run(recorder)
	}()
	if recorder.message == "" {
		t.Fatal("helper did not fail")
	}
	return recorder.message
}

func TestRequireReceive(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 7
	if got := RequireReceive(t, ch, time.Second, "value"); got != 7 {
		t.Errorf("RequireReceive = %d, want 7", got)
	}

	message := expectFatal(t, func(tb TB) {
		RequireReceive(tb, make(chan int), time.Millisecond, "waiting for %s", "nothing")
	})
	if message != "timed out after 1ms: waiting for nothing" {
		t.Errorf("timeout message = %q", message)
	}

	closed := make(chan int)
	close(closed)
	expectFatal(t, func(tb TB) { RequireReceive(tb, closed, time.Second) })
}

func TestRequireClosed(t *testing.T) {
	done := make(chan struct{})
	close(done)
	RequireClosed(t, done, time.Second, "closed channel")

	expectFatal(t, func(tb TB) { RequireClosed(tb, make(chan struct{}), time.Millisecond) })
}

func TestRequireEventually(t *testing.T) {
	calls := 0
	RequireEventually(t, func() bool { calls++; return calls >= 3 }, time.Second, "third call")
	if calls != 3 {
		t.Errorf("condition called %d times, want 3", calls)
	}

	expectFatal(t, func(tb TB) { RequireEventually(tb, func() bool { return false }, 5*time.Millisecond) })
}
