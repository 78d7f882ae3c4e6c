// SPDX-License-Identifier: MIT

// Package api exposes the daemon's small observation surface: liveness,
// readiness, prometheus metrics, and a JSON snapshot of the last pass.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/nestsync/internal/jobs"
	"github.com/ManuGH/nestsync/internal/log"
)

// Deps wires the server to daemon state.
type Deps struct {
	// Status holds the last pass snapshot.
	Status *jobs.StatusStore

	// Ready reports whether a session (credentials + device list) exists.
	Ready func() bool

	Version string
}

// Server serves the observation endpoints.
type Server struct {
	http *http.Server
	deps Deps
}

// New builds a Server listening on addr.
func New(addr string, deps Deps) *Server {
	s := &Server{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/api/status", s.handleStatus)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	logger := log.WithComponent("api")
	logger.Info().
		Str("event", "api.listen").
		Str("addr", s.http.Addr).
		Msg("status API listening")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"version":   s.deps.Version,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	ready := s.deps.Ready != nil && s.deps.Ready()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"ready":     ready,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Status == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "status not available"})
		return
	}
	status, ok := s.deps.Status.Get()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "no pass has run yet"})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := log.WithComponent("api")
		logger.Error().Err(err).Msg("failed to encode response")
	}
}
