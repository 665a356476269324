// SPDX-License-Identifier: MIT

// Package api provides the HTTP surface of the zi2anki daemon.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/zi2anki/internal/api/middleware"
	"github.com/ManuGH/zi2anki/internal/audit"
	"github.com/ManuGH/zi2anki/internal/config"
	"github.com/ManuGH/zi2anki/internal/deck"
	"github.com/ManuGH/zi2anki/internal/health"
)

// BuildRunner is the daemon-side contract the API triggers builds
// through. The runner owns single-flight semantics; the API only asks.
type BuildRunner interface {
	// TriggerAsync starts a build in the background. It returns false
	// when a build is already running.
	TriggerAsync(reason string) bool
	// Building reports whether a build is in flight right now.
	Building() bool
	// Status returns the most recent build status, or nil before the
	// first build.
	Status() *deck.Status
}

// Server handles HTTP requests for the zi2anki daemon.
type Server struct {
	cfg    config.AppConfig
	health *health.Manager
	runner BuildRunner
	audit  *audit.Logger
}

// New constructs an API server. The health manager and runner are owned
// by the daemon and shared with the server.
func New(cfg config.AppConfig, healthManager *health.Manager, runner BuildRunner) *Server {
	return &Server{
		cfg:    cfg,
		health: healthManager,
		runner: runner,
		audit:  audit.NewLogger(),
	}
}

// Handler builds the complete routing tree including the middleware stack.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        "zi2anki/api",
		EnableLogging:         true,
		RateLimitEnabled:      s.cfg.API.RateLimitEnabled,
		RateLimitRPS:          s.cfg.API.RateLimitRPS,
		RateLimitBurst:        s.cfg.API.RateLimitBurst,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.With(s.authMiddleware).Post("/build", s.handleBuild)
	})

	r.Handle("/files/*", http.StripPrefix("/files/", s.secureFileServer()))

	return r
}
