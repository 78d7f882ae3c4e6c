// SPDX-License-Identifier: MIT

package nest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="dynamic">
  <Period id="0" programDateTime="2026-08-01T12:00:00Z" duration="PT2M">
    <AdaptationSet mimeType="video/mp4"/>
  </Period>
  <Period id="1" programDateTime="2026-08-01T12:10:00.500Z" duration="PT30S"/>
  <Period id="2" duration="PT1M"/>
  <Period id="3" programDateTime="2026-08-01T12:20:00Z"/>
  <Period id="4" programDateTime="not-a-time" duration="PT1M"/>
  <Period id="5" programDateTime="2026-08-01T12:30:00Z" duration="one minute"/>
  <Period id="6" programDateTime="2026-08-01T12:40:00Z" duration="PT20M"/>
</MPD>`

func TestParseManifest(t *testing.T) {
	events, err := parseManifest("device-1", []byte(sampleManifest))
	require.NoError(t, err)

	// Records 2-5 are malformed and skipped; 0, 1, and 6 survive, with 6
	// clamped to the duration cap.
	require.Len(t, events, 3)

	assert.Equal(t, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), events[0].StartTime)
	assert.Equal(t, 2*time.Minute, events[0].Duration)

	assert.Equal(t, time.Date(2026, 8, 1, 12, 10, 0, 500000000, time.UTC), events[1].StartTime)
	assert.Equal(t, 30*time.Second, events[1].Duration)

	assert.Equal(t, time.Date(2026, 8, 1, 12, 40, 0, 0, time.UTC), events[2].StartTime)
	assert.Equal(t, MaxEventDuration, events[2].Duration)
}

func TestParseManifestEmpty(t *testing.T) {
	events, err := parseManifest("device-1", []byte(`<MPD></MPD>`))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParseManifestMalformedXML(t *testing.T) {
	_, err := parseManifest("device-1", []byte(`<MPD><Period programDateTime=`))
	require.Error(t, err)
}

func TestParseManifestOrderPreserved(t *testing.T) {
	// Manifest order is not chronological; parsing must not reorder.
	manifest := `<MPD>
  <Period programDateTime="2026-08-01T12:30:00Z" duration="PT1M"/>
  <Period programDateTime="2026-08-01T12:00:00Z" duration="PT1M"/>
</MPD>`
	events, err := parseManifest("device-1", []byte(manifest))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].StartTime.After(events[1].StartTime))
}
