// SPDX-License-Identifier: MIT

// Package nest fetches recording manifests and clip payloads from the camera
// frontend API.
package nest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultEventsURL = "https://nest-camera-frontend.googleapis.com/dashmanifest/namespace/nest-phoenix-prod/device/{device_id}"
	defaultClipURL   = "https://nest-camera-frontend.googleapis.com/mp4clip/namespace/nest-phoenix-prod/device/{device_id}"

	// apiTimeLayout is the window-bound format the manifest endpoint expects.
	apiTimeLayout = "2006-01-02T15:04:05"

	defaultRequestsPerSecond = 5
	defaultRequestBurst      = 10
)

// TokenSource mints camera-service bearer tokens. Satisfied by
// *googleauth.Connection.
type TokenSource interface {
	ServiceToken(ctx context.Context) (string, error)
}

// Options configures a Client.
type Options struct {
	// EventsURL and ClipURL override the production endpoints, mainly for
	// tests. Both contain a {device_id} placeholder.
	EventsURL string
	ClipURL   string

	// RequestsPerSecond throttles calls against the frontend API. Zero or
	// negative applies the default.
	RequestsPerSecond float64

	// RequestBurst is the limiter's burst size. Zero or negative applies
	// the default.
	RequestBurst int

	// HTTPClient defaults to a client with a 2 minute timeout; clip
	// downloads can be tens of megabytes.
	HTTPClient *http.Client
}

// Client is a stateless frontend API client. Credentials are supplied per
// call so each download unit can bring its own token cache.
type Client struct {
	eventsURL string
	clipURL   string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient builds a Client against the production endpoints unless
// overridden.
func NewClient(opts Options) *Client {
	c := &Client{
		eventsURL: opts.EventsURL,
		clipURL:   opts.ClipURL,
		http:      opts.HTTPClient,
	}
	if c.eventsURL == "" {
		c.eventsURL = defaultEventsURL
	}
	if c.clipURL == "" {
		c.clipURL = defaultClipURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 2 * time.Minute}
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	burst := opts.RequestBurst
	if burst <= 0 {
		burst = defaultRequestBurst
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// ListEvents fetches and parses the recording manifest of one device for the
// window (end-lookback, end]. Events come back in manifest order, which is
// not guaranteed chronological.
func (c *Client) ListEvents(ctx context.Context, tokens TokenSource, deviceID string, windowEnd time.Time, lookback time.Duration) ([]CameraEvent, error) {
	windowStart := windowEnd.Add(-lookback)
	params := map[string]string{
		"start_time": formatAPITime(windowStart),
		"end_time":   formatAPITime(windowEnd),
		"types":      "4",
		"variant":    "2",
	}

	body, err := c.get(ctx, tokens, "list events", c.eventsURL, deviceID, params)
	if err != nil {
		return nil, err
	}
	return parseManifest(deviceID, body)
}

// DownloadClip fetches the mp4 payload for the exact start/end instants of an
// event.
func (c *Client) DownloadClip(ctx context.Context, tokens TokenSource, event CameraEvent) ([]byte, error) {
	params := map[string]string{
		"start_time": strconv.FormatInt(event.StartTime.UnixMilli(), 10),
		"end_time":   strconv.FormatInt(event.EndTime().UnixMilli(), 10),
	}
	return c.get(ctx, tokens, "download clip", c.clipURL, event.DeviceID, params)
}

func (c *Client) get(ctx context.Context, tokens TokenSource, op, urlTemplate, deviceID string, params map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Sentinel: ErrTimeout, Operation: op, Err: err}
	}

	token, err := tokens.ServiceToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("nest: %s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.ReplaceAll(urlTemplate, "{device_id}", deviceID), nil)
	if err != nil {
		return nil, fmt.Errorf("nest: %s: build request: %w", op, err)
	}
	q := req.URL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.http.Do(req)
	if err != nil {
		sentinel := ErrUpstreamUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			sentinel = ErrTimeout
		}
		return nil, &APIError{Sentinel: sentinel, Operation: op, Err: err}
	}
	defer res.Body.Close() //nolint:errcheck

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		return nil, &APIError{
			Sentinel:  classifyStatus(res.StatusCode),
			Operation: op,
			Status:    res.StatusCode,
			Body:      strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &APIError{Sentinel: ErrUpstreamBadResponse, Operation: op, Err: err}
	}
	return body, nil
}

// formatAPITime renders a window bound as "2026-08-01T12:00:00.000Z".
func formatAPITime(t time.Time) string {
	return t.UTC().Format(apiTimeLayout) + ".000Z"
}
