// SPDX-License-Identifier: MIT

package nest

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventFromPeriod(t *testing.T) {
	tests := []struct {
		name         string
		start        string
		duration     string
		wantStart    time.Time
		wantDuration time.Duration
		wantErr      bool
	}{
		{
			name:         "strict rfc3339",
			start:        "2026-08-01T12:00:00Z",
			duration:     "PT2M30S",
			wantStart:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			wantDuration: 2*time.Minute + 30*time.Second,
		},
		{
			name:         "rfc3339 with offset",
			start:        "2026-08-01T05:00:00-07:00",
			duration:     "PT10S",
			wantStart:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			wantDuration: 10 * time.Second,
		},
		{
			name:         "fractional seconds with literal Z",
			start:        "2026-08-01T12:00:00.123Z",
			duration:     "PT1M",
			wantStart:    time.Date(2026, 8, 1, 12, 0, 0, 123000000, time.UTC),
			wantDuration: time.Minute,
		},
		{
			name:         "duration above cap is clamped",
			start:        "2026-08-01T12:00:00Z",
			duration:     "PT45M",
			wantStart:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			wantDuration: MaxEventDuration,
		},
		{
			name:         "duration exactly at cap is preserved",
			start:        "2026-08-01T12:00:00Z",
			duration:     "PT10M",
			wantStart:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			wantDuration: MaxEventDuration,
		},
		{
			name:     "unparseable timestamp",
			start:    "yesterday",
			duration: "PT1M",
			wantErr:  true,
		},
		{
			name:     "unparseable duration",
			start:    "2026-08-01T12:00:00Z",
			duration: "90 seconds",
			wantErr:  true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			event, err := eventFromPeriod("device-1", tc.start, tc.duration)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, event.StartTime.Equal(tc.wantStart), "start = %v, want %v", event.StartTime, tc.wantStart)
			assert.Equal(t, tc.wantDuration, event.Duration)
			assert.Equal(t, "device-1", event.DeviceID)
		})
	}
}

func TestEventFromPeriodClampWarning(t *testing.T) {
	var buf bytes.Buffer
	logSink.redirect(&buf)
	defer logSink.redirect(nil)

	event, err := eventFromPeriod("device-1", "2026-08-01T12:00:00Z", "PT45M")
	require.NoError(t, err)
	require.Equal(t, MaxEventDuration, event.Duration)

	out := buf.String()
	assert.Contains(t, out, `"manifest.duration_clamped"`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"device_id":"device-1"`)

	// A duration exactly at the cap is not a clamp and must stay quiet.
	buf.Reset()
	_, err = eventFromPeriod("device-1", "2026-08-01T12:00:00Z", "PT10M")
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "manifest.duration_clamped")
}

func TestEventEndTimeAndID(t *testing.T) {
	event := CameraEvent{
		DeviceID:  "device-1",
		StartTime: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Duration:  5 * time.Minute,
	}
	assert.Equal(t, time.Date(2026, 8, 1, 12, 5, 0, 0, time.UTC), event.EndTime())
	assert.Equal(t, "2026-08-01T12:00:00Z->2026-08-01T12:05:00Z|device-1", event.ID())
}
