// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/ManuGH/nestsync/internal/googleauth"
	"github.com/ManuGH/nestsync/internal/library"
	"github.com/ManuGH/nestsync/internal/nest"
)

// CameraService is the slice of the frontend API a pass needs. Satisfied by
// *nest.Client.
type CameraService interface {
	ListEvents(ctx context.Context, tokens nest.TokenSource, deviceID string, windowEnd time.Time, lookback time.Duration) ([]nest.CameraEvent, error)
	DownloadClip(ctx context.Context, tokens nest.TokenSource, event nest.CameraEvent) ([]byte, error)
}

// Deps holds all collaborators of a discovery pass.
type Deps struct {
	// Client reaches the camera frontend API.
	Client CameraService

	// Tree is the output clip tree (dedup + writes).
	Tree *library.Tree

	// Tokens is the session credential cache used for manifest listings.
	Tokens nest.TokenSource

	// NewUnitTokens constructs the private credential context of one
	// download unit. Units never share mutable cache state with the
	// discovery loop or with each other; the cost is an extra token fetch
	// per unit.
	NewUnitTokens func() nest.TokenSource

	// Devices is the session's camera list.
	Devices []googleauth.Device

	// Lookback is the listing window per device.
	Lookback time.Duration

	// Concurrency caps simultaneously running download units.
	Concurrency int

	// Clock defaults to time.Now; tests inject a fake.
	Clock func() time.Time
}

// Status summarises one discovery pass.
type Status struct {
	LastRun     time.Time `json:"last_run"`
	Devices     int       `json:"devices"`
	EventsFound int       `json:"events_found"`
	Skipped     int       `json:"skipped"`
	Completed   int       `json:"completed"`
	Failed      int       `json:"failed"`
	Total       int       `json:"total"`
	Error       string    `json:"error,omitempty"`
}

// StatusStore keeps the last pass status for the status API.
type StatusStore struct {
	mu   sync.RWMutex
	last Status
	set  bool
}

// Set records the latest pass status.
func (s *StatusStore) Set(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = status
	s.set = true
}

// Get returns the last recorded status and whether a pass has run yet.
func (s *StatusStore) Get() (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.set
}
