// SPDX-License-Identifier: MIT

package nest

import (
	"fmt"
	"time"

	"github.com/sosodev/duration"

	"github.com/ManuGH/nestsync/internal/log"
)

// MaxEventDuration caps a single recorded event. Manifests occasionally
// report implausibly long periods; those are truncated, never dropped.
const MaxEventDuration = 10 * time.Minute

// fractionalZLayout accepts timestamps like "2026-08-01T12:00:00.000Z" where
// the trailing Z is a literal rather than an offset designator.
const fractionalZLayout = "2006-01-02T15:04:05.999999999Z"

// CameraEvent is one recorded motion window of a device.
type CameraEvent struct {
	DeviceID  string
	StartTime time.Time
	Duration  time.Duration
}

// EndTime derives the end of the recording window.
func (e CameraEvent) EndTime() time.Time {
	return e.StartTime.Add(e.Duration)
}

// ID renders a human-readable event identity for logs and traces. It is not
// a storage key.
func (e CameraEvent) ID() string {
	return fmt.Sprintf("%s->%s|%s",
		e.StartTime.Format(time.RFC3339),
		e.EndTime().Format(time.RFC3339),
		e.DeviceID)
}

// eventFromPeriod builds a CameraEvent from the two manifest attributes. The
// reported duration is clamped to MaxEventDuration with a warning.
func eventFromPeriod(deviceID, programDateTime, durationStr string) (CameraEvent, error) {
	start, err := parseTimestamp(programDateTime)
	if err != nil {
		return CameraEvent{}, fmt.Errorf("parse period start %q: %w", programDateTime, err)
	}

	iso, err := duration.Parse(durationStr)
	if err != nil {
		return CameraEvent{}, fmt.Errorf("parse period duration %q: %w", durationStr, err)
	}
	dur := iso.ToTimeDuration()

	if dur > MaxEventDuration {
		logger := log.WithComponent("nest")
		logger.Warn().
			Str("event", "manifest.duration_clamped").
			Str("device_id", deviceID).
			Str("program_date_time", programDateTime).
			Dur("reported", dur).
			Dur("clamped", MaxEventDuration).
			Msg("event duration exceeded cap; clipping download window")
		dur = MaxEventDuration
	}

	return CameraEvent{DeviceID: deviceID, StartTime: start, Duration: dur}, nil
}

// parseTimestamp accepts strict RFC 3339 first, then the fractional-Z
// fallback. First match wins.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(fractionalZLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
