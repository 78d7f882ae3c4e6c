// SPDX-License-Identifier: MIT

// Package googleauth owns the session credential cache: three independently
// expiring artifacts (account token, camera-service token, device directory)
// refreshed lazily on access.
package googleauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/nestsync/internal/foyer"
	"github.com/ManuGH/nestsync/internal/log"
	"github.com/ManuGH/nestsync/internal/metrics"
)

const (
	accessTokenTTL = time.Hour
	directoryTTL   = 24 * time.Hour

	// cameraTrait tags devices that expose a camera stream.
	cameraTrait = "action.devices.traits.CameraStream"
	// vendorSubstring selects first-party camera hardware from the directory.
	vendorSubstring = "Nest"
)

// DirectoryService fetches the account's device directory snapshot.
type DirectoryService interface {
	HomeGraph(ctx context.Context, accessToken string) (*foyer.HomeGraph, error)
}

// Device is a camera retained from the directory snapshot.
type Device struct {
	// ID is the stable external device identifier.
	ID string
	// Name is the user-visible display name.
	Name string
}

// Options configures a Connection.
type Options struct {
	Username    string
	MasterToken string

	// Authenticator defaults to the production OAuth client.
	Authenticator Authenticator
	// Directory may be nil for connections that only mint tokens (download
	// units never touch the directory).
	Directory DirectoryService
	// Clock defaults to time.Now; tests inject a fake.
	Clock func() time.Time
}

// Connection is one session's credential cache. It is safe for concurrent
// use, but download units deliberately construct their own Connection so no
// mutable cache state crosses unit boundaries.
type Connection struct {
	username    string
	masterToken string
	deviceID    string

	auth      Authenticator
	directory DirectoryService
	clock     func() time.Time

	accountToken *cached[string]
	serviceToken *cached[string]
	homeGraph    *cached[*foyer.HomeGraph]
}

// New builds a Connection with empty cache slots.
func New(opts Options) *Connection {
	auth := opts.Authenticator
	if auth == nil {
		auth = NewOAuthClient()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Connection{
		username:     opts.Username,
		masterToken:  opts.MasterToken,
		deviceID:     randomDeviceID(),
		auth:         auth,
		directory:    opts.Directory,
		clock:        clock,
		accountToken: newCached[string](accessTokenTTL),
		serviceToken: newCached[string](accessTokenTTL),
		homeGraph:    newCached[*foyer.HomeGraph](directoryTTL),
	}
}

// AccountToken returns a fresh account-scope bearer token, refreshing it if
// the cached one aged out.
func (c *Connection) AccountToken(ctx context.Context) (string, error) {
	return c.token(ctx, c.accountToken, ScopeAccount, "account_token")
}

// ServiceToken returns a fresh camera-service bearer token.
func (c *Connection) ServiceToken(ctx context.Context) (string, error) {
	return c.token(ctx, c.serviceToken, ScopeNest, "service_token")
}

func (c *Connection) token(ctx context.Context, slot *cached[string], scope, artifact string) (string, error) {
	if tok, ok := slot.get(c.clock()); ok {
		return tok, nil
	}
	tok, err := c.auth.Token(ctx, c.username, c.masterToken, c.deviceID, scope)
	metrics.RecordCacheRefresh(artifact, err)
	if err != nil {
		return "", fmt.Errorf("refresh %s: %w", strings.ReplaceAll(artifact, "_", " "), err)
	}
	slot.put(tok, c.clock())
	return tok, nil
}

// HomeGraph returns the cached device directory, fetching a new snapshot at
// most once per TTL window.
func (c *Connection) HomeGraph(ctx context.Context) (*foyer.HomeGraph, error) {
	if graph, ok := c.homeGraph.get(c.clock()); ok {
		return graph, nil
	}
	if c.directory == nil {
		return nil, fmt.Errorf("googleauth: connection has no directory service")
	}
	token, err := c.AccountToken(ctx)
	if err != nil {
		return nil, err
	}
	graph, err := c.directory.HomeGraph(ctx, token)
	metrics.RecordCacheRefresh("directory", err)
	if err != nil {
		return nil, fmt.Errorf("refresh device directory: %w", err)
	}
	c.homeGraph.put(graph, c.clock())
	return graph, nil
}

// CameraDevices filters the directory snapshot down to first-party cameras:
// devices carrying the camera-stream trait, a matching hardware vendor, and a
// non-empty stable ID.
func (c *Connection) CameraDevices(ctx context.Context) ([]Device, error) {
	graph, err := c.HomeGraph(ctx)
	if err != nil {
		return nil, err
	}

	var devices []Device
	for _, dev := range graph.Devices {
		if !hasTrait(dev.Traits, cameraTrait) {
			continue
		}
		if !strings.Contains(dev.HardwareModel, vendorSubstring) {
			continue
		}
		if dev.AgentID == "" {
			continue
		}
		devices = append(devices, Device{ID: dev.AgentID, Name: dev.Name})
	}

	logger := log.WithComponentFromContext(ctx, "googleauth")
	logger.Info().
		Str("event", "directory.filtered").
		Int("device_count", len(devices)).
		Msg("found camera devices")
	metrics.RecordDevices(len(devices))
	return devices, nil
}

func hasTrait(traits []string, want string) bool {
	for _, t := range traits {
		if t == want {
			return true
		}
	}
	return false
}

// randomDeviceID generates the 16-hex-digit Android device ID attached to
// auth requests. A fresh ID per connection is sufficient; the endpoint does
// not require registration.
func randomDeviceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(fmt.Sprintf("googleauth: read random: %v", err))
	}
	return hex.EncodeToString(b[:])
}
