// SPDX-License-Identifier: MIT

package daemon

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/zi2anki/internal/config"
)

// ServerConfig holds the HTTP server settings of the daemon.
type ServerConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns the server settings for a listen address.
// The write timeout leaves room for serving a large deck over a slow
// link; everything else is conservative.
func DefaultServerConfig(listen string) ServerConfig {
	return ServerConfig{
		ListenAddr:      listen,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    60 * time.Second,
		IdleTimeout:     120 * time.Second,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Deps contains the dependencies required by the daemon Manager.
type Deps struct {
	// Logger is the structured logger for the daemon.
	Logger zerolog.Logger

	// Config is the application configuration.
	Config config.AppConfig

	// APIHandler is the HTTP handler for the API server.
	APIHandler http.Handler
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.APIHandler == nil {
		return ErrMissingAPIHandler
	}
	return nil
}
