// SPDX-License-Identifier: MIT

// Package jobs runs the discovery-and-download pass: list recent events per
// device, skip already-captured clips, and download the rest with bounded
// concurrency.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ManuGH/nestsync/internal/log"
	"github.com/ManuGH/nestsync/internal/metrics"
	"github.com/ManuGH/nestsync/internal/nest"
)

// unitResult is the outcome of one download unit.
type unitResult struct {
	event nest.CameraEvent
	bytes int
	err   error
}

// RunPass executes one full discovery pass. Device listing is sequential;
// downloads run concurrently up to deps.Concurrency admission slots. The pass
// does not return until every admitted download has finished or failed, and
// a failing unit never aborts its siblings.
func RunPass(ctx context.Context, deps Deps) (Status, error) {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Concurrency < 1 {
		return Status{}, fmt.Errorf("jobs: concurrency must be >= 1 (got %d)", deps.Concurrency)
	}

	ctx = log.ContextWithPassID(ctx, uuid.NewString())
	logger := log.WithComponentFromContext(ctx, "jobs")
	started := deps.Clock()
	logger.Info().
		Str("event", "pass.start").
		Int("devices", len(deps.Devices)).
		Msg("checking for new events")

	status := Status{LastRun: started, Devices: len(deps.Devices)}

	// Admission slots. A unit holds one slot from admission until its
	// result has been handed off, which caps both in-flight downloads and
	// pending results.
	sem := make(chan struct{}, deps.Concurrency)
	results := make(chan unitResult, deps.Concurrency)
	var wg sync.WaitGroup

	drainOne := func(res unitResult) {
		if res.err != nil {
			status.Failed++
			logger.Error().
				Err(res.err).
				Str("event", "download.failed").
				Str("event_id", res.event.ID()).
				Msg("download error")
		} else {
			status.Completed++
			logger.Info().
				Str("event", "download.progress").
				Str("event_id", res.event.ID()).
				Int("completed", status.Completed).
				Int("total", status.Total).
				Msg("download progress")
		}
		metrics.RecordDownload(res.err == nil, res.bytes)
	}

	for _, device := range deps.Devices {
		// Window end is "now" at call time, not frozen pass-wide; later
		// devices see a slightly later window.
		events, err := deps.Client.ListEvents(ctx, deps.Tokens, device.ID, deps.Clock(), deps.Lookback)
		if err != nil {
			// Fatal to this device's pass step only.
			status.Error = err.Error()
			metrics.IncListingFailure(device.ID)
			logger.Error().
				Err(err).
				Str("event", "listing.failed").
				Str("device_id", device.ID).
				Str("device_name", device.Name).
				Msg("failed to list events, skipping device for this pass")
			continue
		}
		status.EventsFound += len(events)
		metrics.RecordEvents(device.ID, len(events))
		logger.Info().
			Str("event", "listing.complete").
			Str("device_name", device.Name).
			Int("count", len(events)).
			Msg("received camera events")

		for _, event := range events {
			if !deps.Tree.IsNew(event) {
				status.Skipped++
				metrics.IncSkipped()
				logger.Debug().
					Str("event", "download.skipped").
					Str("event_id", event.ID()).
					Str("path", deps.Tree.ClipPath(event)).
					Msg("skipping camera event, file already exists")
				continue
			}

			logger.Info().
				Str("event", "download.start").
				Str("event_id", event.ID()).
				Str("path", deps.Tree.ClipPath(event)).
				Msg("downloading camera event")

			// Blocking admission with opportunistic drain: while waiting
			// for a slot, completed units are consumed so the pass never
			// accumulates unbounded pending work.
			admitted := false
			for !admitted {
				select {
				case sem <- struct{}{}:
					admitted = true
				case res := <-results:
					drainOne(res)
				}
			}

			status.Total++
			ev := event
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				results <- runUnit(ctx, deps, ev)
			}()
		}
	}

	// Exhaustive drain: every admitted unit reports before the pass returns.
	go func() {
		wg.Wait()
		close(results)
	}()
	for res := range results {
		drainOne(res)
	}

	metrics.ObservePassDuration(deps.Clock().Sub(started).Seconds())
	logger.Info().
		Str("event", "pass.complete").
		Int("completed", status.Completed).
		Int("failed", status.Failed).
		Int("total", status.Total).
		Msg("all downloads complete")
	return status, nil
}

// runUnit executes one download with its own freshly constructed credential
// context, writes the clip, and reports the outcome.
func runUnit(ctx context.Context, deps Deps, event nest.CameraEvent) unitResult {
	tokens := deps.NewUnitTokens()
	data, err := deps.Client.DownloadClip(ctx, tokens, event)
	if err != nil {
		return unitResult{event: event, err: fmt.Errorf("download clip: %w", err)}
	}
	if err := deps.Tree.WriteClip(ctx, event, data); err != nil {
		return unitResult{event: event, err: fmt.Errorf("store clip: %w", err)}
	}
	return unitResult{event: event, bytes: len(data)}
}
