// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source so that session
// accounting and checkpoint pacing can be tested deterministically.
//
// Every component that reads the wall clock (the session recorder via
// its callers, the lifecycle manager's checkpoint pacing, the upload
// queue's timestamps) takes a [Clock] instead of calling the time
// package. Production wiring passes [Real]; tests pass [Fake] and move
// time forward with [FakeClock.Advance]:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	manager := lifecycle.New(lifecycle.Config{Clock: fake, ...})
//	manager.Observe("mainmenu")
//	fake.Advance(time.Second)
//	manager.Observe("flight")
//
// When a goroutine is waiting on a [Ticker] from a FakeClock, use
// [FakeClock.WaitForTimers] before advancing so that the goroutine has
// registered its ticker and the advance cannot race past it.
package clock
