// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/bureau-foundation/modstats/lib/report"
	"github.com/bureau-foundation/modstats/lib/spool"
)

// Queue uploads the report files in a spool directory.
type Queue struct {
	Dir      spool.Dir
	Uploader Uploader
	Logger   *slog.Logger

	// Concurrency bounds the number of uploads in flight. Zero or
	// negative means one goroutine per file with no bound.
	Concurrency int
}

// Result summarizes a finished drain.
type Result struct {
	// Files is the number of report files in the snapshot.
	Files int
	// Sent counts files the collector confirmed.
	Sent int
	// Failed counts files left in the queue.
	Failed int
}

// Drain is one in-progress pass over the queue.
type Drain struct {
	done chan struct{}

	mu     sync.Mutex
	result Result
}

// Done is closed once every file in the snapshot has been handled.
func (d *Drain) Done() <-chan struct{} { return d.done }

// Wait blocks until the drain finishes or ctx is done, and returns the
// result so far.
func (d *Drain) Wait(ctx context.Context) (Result, error) {
	select {
	case <-d.done:
		return d.Result(), nil
	case <-ctx.Done():
		return d.Result(), ctx.Err()
	}
}

// Result returns the counts recorded so far. After Done is closed they
// are final.
func (d *Drain) Result() Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.result
}

type outcome struct {
	report spool.Report
	digest string
	err    error
}

// Drain starts uploading every report file present now and returns
// without waiting. Files that appear later are left for the next drain.
func (q *Queue) Drain(ctx context.Context) *Drain {
	drain := &Drain{done: make(chan struct{})}

	reports, err := q.Dir.Reports()
	if err != nil {
		q.Logger.Warn("cannot list queued reports", "error", err)
		close(drain.done)
		return drain
	}
	drain.result.Files = len(reports)
	if len(reports) == 0 {
		close(drain.done)
		return drain
	}

	q.Logger.Info("uploading queued reports", "count", len(reports))

	var slots chan struct{}
	if q.Concurrency > 0 {
		slots = make(chan struct{}, q.Concurrency)
	}

	results := make(chan outcome, len(reports))
	for _, queued := range reports {
		go func() {
			results <- q.send(ctx, queued, slots)
		}()
	}

	go q.complete(drain, results, len(reports))
	return drain
}

// send uploads one file. It holds a slot, when slots is non-nil, for
// the duration of the upload.
func (q *Queue) send(ctx context.Context, queued spool.Report, slots chan struct{}) outcome {
	if slots != nil {
		select {
		case slots <- struct{}{}:
			defer func() { <-slots }()
		case <-ctx.Done():
			return outcome{report: queued, err: ctx.Err()}
		}
	}

	body, err := os.ReadFile(queued.Path)
	if err != nil {
		return outcome{report: queued, err: fmt.Errorf("reading report: %w", err)}
	}

	digest, err := report.Digest(body)
	if err != nil {
		// A file that is not JSON is still sent; the collector decides.
		q.Logger.Warn("queued report is not valid JSON", "path", queued.Path, "error", err)
	}

	return outcome{report: queued, digest: digest, err: q.Uploader.Upload(ctx, body)}
}

// complete is the single consumer of upload outcomes. It is the only
// goroutine that deletes report files.
func (q *Queue) complete(drain *Drain, results <-chan outcome, count int) {
	defer close(drain.done)

	for range count {
		result := <-results
		if result.err != nil {
			q.Logger.Warn("report upload failed, keeping it for the next session",
				"path", result.report.Path,
				"digest", result.digest,
				"error", result.err,
			)
			drain.mu.Lock()
			drain.result.Failed++
			drain.mu.Unlock()
			continue
		}

		if err := os.Remove(result.report.Path); err != nil && !os.IsNotExist(err) {
			q.Logger.Warn("uploaded report could not be deleted and will be sent again",
				"path", result.report.Path,
				"error", err,
			)
		}
		q.Logger.Info("report uploaded", "path", result.report.Path, "digest", result.digest)

		drain.mu.Lock()
		drain.result.Sent++
		drain.mu.Unlock()
	}
}
