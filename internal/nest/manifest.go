// SPDX-License-Identifier: MIT

package nest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/ManuGH/nestsync/internal/log"
)

// parseManifest scans a DASH manifest for Period records and extracts one
// CameraEvent per well-formed record. A record missing either attribute or
// failing to parse is skipped; partial manifests never abort the listing.
func parseManifest(deviceID string, data []byte) ([]CameraEvent, error) {
	logger := log.WithComponent("nest")
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var events []CameraEvent
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("nest: parse manifest: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Period" {
			continue
		}

		var programDateTime, durationStr string
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "programDateTime":
				programDateTime = attr.Value
			case "duration":
				durationStr = attr.Value
			}
		}
		if programDateTime == "" || durationStr == "" {
			logger.Debug().
				Str("event", "manifest.period_skipped").
				Str("device_id", deviceID).
				Msg("period record missing attributes")
			continue
		}

		event, err := eventFromPeriod(deviceID, programDateTime, durationStr)
		if err != nil {
			logger.Debug().
				Err(err).
				Str("event", "manifest.period_skipped").
				Str("device_id", deviceID).
				Msg("period record failed to parse")
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
