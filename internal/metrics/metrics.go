// SPDX-License-Identifier: MIT

// Package metrics exposes prometheus collectors for the sync daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Discovery metrics
	devicesDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nestsync_devices_discovered",
		Help: "Number of camera devices in the last directory snapshot",
	})

	eventsDiscovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nestsync_events_discovered_total",
		Help: "Camera events returned by manifest listings, per device",
	}, []string{"device"})

	listingFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nestsync_listing_failures_total",
		Help: "Per-device manifest listing failures",
	}, []string{"device"})

	// Download metrics
	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nestsync_downloads_total",
		Help: "Completed download units by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	downloadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nestsync_download_bytes_total",
		Help: "Total clip bytes written to disk",
	})

	downloadsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nestsync_downloads_skipped_total",
		Help: "Events skipped because the output file already exists",
	})

	passDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nestsync_pass_duration_seconds",
		Help:    "Wall-clock duration of discovery passes",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	// Credential cache metrics
	cacheRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nestsync_credential_refresh_total",
		Help: "Credential cache refreshes by artifact and outcome",
	}, []string{"artifact", "outcome"}) // artifact=account_token|service_token|directory

	// Prune metrics
	pruneDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nestsync_prune_deleted_total",
		Help: "Clips deleted by retention pruning",
	})

	pruneKept = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nestsync_prune_kept",
		Help: "Clips retained by the last prune pass",
	})
)

// RecordDevices records the size of the filtered device directory.
func RecordDevices(count int) {
	devicesDiscovered.Set(float64(count))
}

// RecordEvents counts events returned by a manifest listing.
func RecordEvents(device string, count int) {
	eventsDiscovered.WithLabelValues(device).Add(float64(count))
}

// IncListingFailure counts a per-device listing failure.
func IncListingFailure(device string) {
	listingFailures.WithLabelValues(device).Inc()
}

// RecordDownload counts a finished download unit.
func RecordDownload(success bool, bytes int) {
	outcome := "failure"
	if success {
		outcome = "success"
		downloadBytes.Add(float64(bytes))
	}
	downloadsTotal.WithLabelValues(outcome).Inc()
}

// IncSkipped counts an event skipped by the existence check.
func IncSkipped() {
	downloadsSkipped.Inc()
}

// ObservePassDuration records the duration of a discovery pass in seconds.
func ObservePassDuration(seconds float64) {
	passDuration.Observe(seconds)
}

// RecordCacheRefresh counts a credential cache refresh attempt.
func RecordCacheRefresh(artifact string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	cacheRefreshTotal.WithLabelValues(artifact, outcome).Inc()
}

// RecordPrune records the result of a prune pass.
func RecordPrune(deleted, kept int) {
	pruneDeleted.Add(float64(deleted))
	pruneKept.Set(float64(kept))
}
