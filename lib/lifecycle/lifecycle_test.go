// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/modstats/lib/clock"
	"github.com/bureau-foundation/modstats/lib/report"
	"github.com/bureau-foundation/modstats/lib/spool"
	"github.com/bureau-foundation/modstats/lib/testutil"
)

const testID = "0123456789abcdef0123456789abcdef"

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newManager(t *testing.T, dir spool.Dir, fake *clock.FakeClock) *Manager {
	t.Helper()
	manager, err := New(Config{
		Dir:               dir,
		Clock:             fake,
		Logger:            slog.New(slog.DiscardHandler),
		ID:                testID,
		StatisticsVersion: 8,
		Facts: func() report.Static {
			return report.Static{Platform: report.PlatformLinux}
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return manager
}

func readDocument(t *testing.T, path string) *report.Document {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if err := report.Validate(data); err != nil {
		t.Fatalf("%s does not validate: %v", path, err)
	}
	document, err := report.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	return document
}

func TestNewRequiresCollaborators(t *testing.T) {
	fake := clock.Fake(epoch)
	logger := slog.New(slog.DiscardHandler)
	dir := spool.New(t.TempDir())

	for name, cfg := range map[string]Config{
		"no clock":          {Dir: dir, Logger: logger},
		"no logger":         {Dir: dir, Clock: fake},
		"no dir":            {Clock: fake, Logger: logger},
		"negative interval": {Dir: dir, Clock: fake, Logger: logger, Interval: -time.Second},
	} {
		if _, err := New(cfg); err == nil {
			t.Errorf("%s: New succeeded", name)
		}
	}
}

func TestEndToEndSession(t *testing.T) {
	fake := clock.Fake(epoch)
	dir := spool.New(t.TempDir())
	manager := newManager(t, dir, fake)

	if _, err := manager.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	manager.Observe("MainMenu")
	fake.Advance(1000 * time.Millisecond)
	manager.Observe("Flight")
	fake.Advance(4000 * time.Millisecond)

	path, err := manager.Shutdown()
	if err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if path != dir.ReportPath(0) {
		t.Errorf("final report at %s, want report-0", path)
	}

	document := readDocument(t, path)
	if document.Scenes["mainmenu"] != 1000 || document.Scenes["flight"] != 4000 || len(document.Scenes) != 2 {
		t.Errorf("scenes = %v, want mainmenu=1000 flight=4000", document.Scenes)
	}
	if document.Crashed {
		t.Error("final report marked crashed")
	}
	if !document.Started.Equal(epoch) || !document.Finished.Equal(epoch.Add(5*time.Second)) {
		t.Errorf("started=%v finished=%v", document.Started, document.Finished)
	}
	if document.ID != testID || document.StatisticsVersion != 8 || document.Platform != report.PlatformLinux {
		t.Errorf("document header = %+v", document)
	}
	if _, err := os.Stat(dir.CheckpointPath()); !os.IsNotExist(err) {
		t.Error("checkpoint remains after clean shutdown")
	}
	if manager.State() != Finalized {
		t.Errorf("state = %v, want finalized", manager.State())
	}
}

func TestStartOnlyFromIdle(t *testing.T) {
	manager := newManager(t, spool.New(t.TempDir()), clock.Fake(epoch))
	if _, err := manager.Start(); err != nil {
		t.Fatal(err)
	}
	if _, err := manager.Start(); !errors.Is(err, ErrNotIdle) {
		t.Errorf("second Start = %v, want ErrNotIdle", err)
	}
}

func TestBeforeStartIsNoop(t *testing.T) {
	dir := spool.New(t.TempDir())
	manager := newManager(t, dir, clock.Fake(epoch))

	manager.Observe("Flight")
	if err := manager.Tick(); err != nil {
		t.Fatal(err)
	}
	if path, err := manager.Shutdown(); path != "" || err != nil {
		t.Errorf("Shutdown before Start = %q, %v", path, err)
	}
	if entries, _ := os.ReadDir(dir.Root); len(entries) != 0 {
		t.Errorf("idle manager wrote %d files", len(entries))
	}
}

func TestTickPacing(t *testing.T) {
	fake := clock.Fake(epoch)
	dir := spool.New(t.TempDir())
	manager := newManager(t, dir, fake)
	if _, err := manager.Start(); err != nil {
		t.Fatal(err)
	}
	manager.Observe("Flight")

	// First tick checkpoints immediately.
	if err := manager.Tick(); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(dir.CheckpointPath())
	if err != nil {
		t.Fatalf("no checkpoint after first tick: %v", err)
	}

	// Ticks inside the interval do nothing.
	fake.Advance(14 * time.Second)
	if err := manager.Tick(); err != nil {
		t.Fatal(err)
	}
	unchanged, _ := os.ReadFile(dir.CheckpointPath())
	if !bytes.Equal(first, unchanged) {
		t.Error("checkpoint rewritten before the interval elapsed")
	}

	fake.Advance(time.Second)
	if err := manager.Tick(); err != nil {
		t.Fatal(err)
	}
	document := readDocument(t, dir.CheckpointPath())
	if document.Scenes["flight"] != 15000 {
		t.Errorf("flight after 15s = %v, want 15000", document.Scenes["flight"])
	}
	if document.Crashed {
		t.Error("checkpoint marked crashed")
	}
}

func TestCheckpointsDoNotDoubleCount(t *testing.T) {
	fake := clock.Fake(epoch)
	dir := spool.New(t.TempDir())
	manager := newManager(t, dir, fake)
	if _, err := manager.Start(); err != nil {
		t.Fatal(err)
	}
	manager.Observe("Flight")

	for range 3 {
		fake.Advance(15 * time.Second)
		if err := manager.Checkpoint(); err != nil {
			t.Fatal(err)
		}
	}
	if got := readDocument(t, dir.CheckpointPath()).Scenes["flight"]; got != 45000 {
		t.Errorf("flight after three checkpoints = %v, want 45000", got)
	}
}

func TestCrashRecovery(t *testing.T) {
	fake := clock.Fake(epoch)
	dir := spool.New(t.TempDir())

	crashed := newManager(t, dir, fake)
	if _, err := crashed.Start(); err != nil {
		t.Fatal(err)
	}
	crashed.Observe("Flight")
	fake.Advance(20 * time.Second)
	if err := crashed.Checkpoint(); err != nil {
		t.Fatal(err)
	}
	checkpoint, err := os.ReadFile(dir.CheckpointPath())
	if err != nil {
		t.Fatal(err)
	}
	// The process dies here: no Shutdown.

	next := newManager(t, dir, fake)
	recovered, err := next.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if recovered != dir.ReportPath(0) {
		t.Errorf("recovered to %q, want report-0", recovered)
	}
	content, err := os.ReadFile(dir.ReportPath(0))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(content, checkpoint) {
		t.Error("recovered report differs from the checkpoint")
	}
	if _, err := os.Stat(dir.CheckpointPath()); !os.IsNotExist(err) {
		t.Error("checkpoint still present after recovery")
	}
	reports, err := dir.Reports()
	if err != nil || len(reports) != 1 {
		t.Errorf("queue = %v, %v, want exactly report-0", reports, err)
	}

	// The new session finalizes into the next slot.
	fake.Advance(time.Second)
	path, err := next.Shutdown()
	if err != nil {
		t.Fatal(err)
	}
	if path != dir.ReportPath(1) {
		t.Errorf("final report at %s, want report-1", path)
	}
}

func TestAfterFinalizedIsNoop(t *testing.T) {
	fake := clock.Fake(epoch)
	dir := spool.New(t.TempDir())
	manager := newManager(t, dir, fake)
	if _, err := manager.Start(); err != nil {
		t.Fatal(err)
	}
	if _, err := manager.Shutdown(); err != nil {
		t.Fatal(err)
	}

	manager.Observe("Flight")
	fake.Advance(time.Minute)
	if err := manager.Tick(); err != nil {
		t.Fatal(err)
	}
	if err := manager.Checkpoint(); err != nil {
		t.Fatal(err)
	}
	if path, err := manager.Shutdown(); path != "" || err != nil {
		t.Errorf("second Shutdown = %q, %v", path, err)
	}
	if _, err := os.Stat(dir.CheckpointPath()); !os.IsNotExist(err) {
		t.Error("finalized manager wrote a checkpoint")
	}
	if reports, _ := dir.Reports(); len(reports) != 1 {
		t.Errorf("queue has %d reports, want 1", len(reports))
	}
}

func TestRunCheckpointsOnTicker(t *testing.T) {
	fake := clock.Fake(epoch)
	dir := spool.New(t.TempDir())
	manager := newManager(t, dir, fake)
	if _, err := manager.Start(); err != nil {
		t.Fatal(err)
	}
	manager.Observe("Editor")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		manager.Run(ctx)
		close(done)
	}()

	fake.WaitForTimers(1)
	fake.Advance(DefaultInterval)

	testutil.RequireEventually(t, func() bool {
		_, err := os.Stat(dir.CheckpointPath())
		return err == nil
	}, 5*time.Second, "checkpoint after one interval")

	cancel()
	testutil.RequireClosed(t, done, 5*time.Second, "Run returning after cancellation")
}

func TestSlowFactsDoNotBlockObserve(t *testing.T) {
	fake := clock.Fake(epoch)
	entered := make(chan struct{})
	release := make(chan struct{})
	var enterOnce sync.Once

	manager, err := New(Config{
		Dir:    spool.New(t.TempDir()),
		Clock:  fake,
		Logger: slog.New(slog.DiscardHandler),
		ID:     testID,
		Facts: func() report.Static {
			enterOnce.Do(func() { close(entered) })
			<-release
			return report.Static{Platform: report.PlatformLinux}
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := manager.Start(); err != nil {
		t.Fatal(err)
	}

	tickDone := make(chan struct{})
	go func() {
		defer close(tickDone)
		manager.Tick()
	}()
	testutil.RequireClosed(t, entered, 5*time.Second, "Tick did not ask for facts")

	observed := make(chan struct{})
	go func() {
		defer close(observed)
		manager.Observe("Flight")
	}()
	testutil.RequireClosed(t, observed, 5*time.Second, "Observe blocked behind fact collection")

	close(release)
	testutil.RequireClosed(t, tickDone, 5*time.Second, "Tick did not finish")
}

func TestUnusableFolderDoesNotHang(t *testing.T) {
	root := filepath.Join(t.TempDir(), "stats")
	if err := os.WriteFile(root, []byte("not a directory"), 0o644); err != nil {
		t.Fatal(err)
	}
	manager := newManager(t, spool.New(root), clock.Fake(epoch))

	done := make(chan struct{})
	var shutdownErr error
	go func() {
		defer close(done)
		// Recovery fails and is logged; the session still starts.
		if _, err := manager.Start(); err != nil {
			t.Errorf("Start: %v", err)
		}
		manager.Observe("MainMenu")
		if err := manager.Tick(); err == nil {
			t.Error("Tick wrote a checkpoint under a regular file")
		}
		_, shutdownErr = manager.Shutdown()
	}()
	testutil.RequireClosed(t, done, 5*time.Second, "lifecycle hung on an unusable folder")

	if shutdownErr == nil {
		t.Error("Shutdown reported success under a regular file")
	}
	if manager.State() != Finalized {
		t.Errorf("state = %v, want finalized", manager.State())
	}
	manager.Observe("Flight")
	manager.Tick()
}
