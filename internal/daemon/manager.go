// SPDX-License-Identifier: MIT

// Package daemon drives the sync loop: two independent timers alternate
// discovery passes and retention prune passes over one long-lived session.
package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/ManuGH/nestsync/internal/config"
	"github.com/ManuGH/nestsync/internal/foyer"
	"github.com/ManuGH/nestsync/internal/googleauth"
	"github.com/ManuGH/nestsync/internal/jobs"
	"github.com/ManuGH/nestsync/internal/library"
	"github.com/ManuGH/nestsync/internal/log"
	"github.com/ManuGH/nestsync/internal/nest"
)

// session is the state established at startup: one credential cache plus the
// filtered device list. It is discarded and rebuilt from scratch when device
// discovery fails.
type session struct {
	conn    *googleauth.Connection
	devices []googleauth.Device
	close   func() error
}

// Manager owns the daemon loop.
type Manager struct {
	cfg    config.Config
	tree   *library.Tree
	status *jobs.StatusStore

	mu   sync.Mutex
	sess *session

	// Injection points for tests; New wires production implementations.
	newSession func(ctx context.Context) (*session, error)
	runPass    func(ctx context.Context, sess *session) (jobs.Status, error)
	runPrune   func(ctx context.Context)
}

// New builds a Manager from validated configuration.
func New(cfg config.Config) *Manager {
	m := &Manager{
		cfg:    cfg,
		tree:   library.NewTree(cfg.OutputDir, cfg.Location()),
		status: &jobs.StatusStore{},
	}
	client := nest.NewClient(nest.Options{})
	m.newSession = m.establishSession
	m.runPass = func(ctx context.Context, sess *session) (jobs.Status, error) {
		return jobs.RunPass(ctx, jobs.Deps{
			Client: client,
			Tree:   m.tree,
			Tokens: sess.conn,
			NewUnitTokens: func() nest.TokenSource {
				return googleauth.New(googleauth.Options{
					Username:    cfg.Username,
					MasterToken: cfg.MasterToken,
				})
			},
			Devices:     sess.devices,
			Lookback:    time.Duration(cfg.LookbackMinutes) * time.Minute,
			Concurrency: cfg.Concurrency,
		})
	}
	m.runPrune = func(ctx context.Context) {
		m.tree.Prune(ctx, cfg.Retention())
	}
	return m
}

// Status exposes the last-pass snapshot for the API.
func (m *Manager) Status() *jobs.StatusStore {
	return m.status
}

// Ready reports whether a session has been established.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess != nil
}

// Run executes the loop until ctx is cancelled. In once mode a single
// discovery pass runs and Run returns.
func (m *Manager) Run(ctx context.Context) error {
	logger := log.WithComponent("daemon")

	if m.cfg.Once {
		m.checkPass(ctx)
		return nil
	}

	logger.Info().
		Str("event", "daemon.start").
		Dur("check_interval", m.cfg.CheckInterval).
		Msg("checking for events at regular intervals")
	if retention := m.cfg.Retention(); retention > 0 {
		logger.Info().
			Str("event", "daemon.prune_enabled").
			Dur("retention", retention).
			Dur("prune_interval", m.cfg.PruneInterval).
			Msg("clip pruning enabled")
	} else {
		logger.Info().
			Str("event", "daemon.prune_disabled").
			Msg("clip pruning disabled (retention = 0)")
	}

	checkTicker := time.NewTicker(m.cfg.CheckInterval)
	defer checkTicker.Stop()
	pruneTicker := time.NewTicker(m.cfg.PruneInterval)
	defer pruneTicker.Stop()

	// First pass runs immediately; tickers only fire after one interval.
	m.checkPass(ctx)
	m.prunePass(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info().Str("event", "daemon.stop").Msg("shutting down")
			m.closeSession()
			return nil
		case <-checkTicker.C:
			m.checkPass(ctx)
		case <-pruneTicker.C:
			m.prunePass(ctx)
		}
	}
}

// checkPass ensures a session exists and runs one discovery pass. A pass
// always runs to completion: the pass context survives shutdown signals so
// admitted downloads are never cancelled midway.
func (m *Manager) checkPass(ctx context.Context) {
	logger := log.WithComponent("daemon")

	sess, err := m.ensureSession(ctx)
	if err != nil {
		logger.Error().
			Err(err).
			Str("event", "session.failed").
			Msg("failed to establish session, will retry next pass")
		return
	}

	status, err := m.runPass(context.WithoutCancel(ctx), sess)
	if err != nil {
		logger.Error().Err(err).Str("event", "pass.failed").Msg("error checking events")
		return
	}
	m.status.Set(status)
}

// prunePass runs retention pruning when a session exists. Without a session
// the output tree is untouched, mirroring the discovery loop.
func (m *Manager) prunePass(ctx context.Context) {
	if !m.Ready() {
		return
	}
	m.runPrune(ctx)
}

func (m *Manager) ensureSession(ctx context.Context) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess != nil {
		return m.sess, nil
	}
	sess, err := m.newSession(ctx)
	if err != nil {
		return nil, err
	}
	m.sess = sess
	return sess, nil
}

func (m *Manager) closeSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess != nil && m.sess.close != nil {
		if err := m.sess.close(); err != nil {
			logger := log.WithComponent("daemon")
			logger.Debug().Err(err).Msg("closing session")
		}
	}
	m.sess = nil
}

// establishSession builds the production session: a foyer directory client,
// a credential cache around it, and the filtered camera list.
func (m *Manager) establishSession(ctx context.Context) (*session, error) {
	directory, err := foyer.New("")
	if err != nil {
		return nil, err
	}
	conn := googleauth.New(googleauth.Options{
		Username:    m.cfg.Username,
		MasterToken: m.cfg.MasterToken,
		Directory:   directory,
	})
	devices, err := conn.CameraDevices(ctx)
	if err != nil {
		_ = directory.Close()
		return nil, err
	}
	return &session{conn: conn, devices: devices, close: directory.Close}, nil
}
