// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/ManuGH/zi2anki/internal/deck"
	"github.com/ManuGH/zi2anki/internal/log"
)

// statusResponse is the payload of GET /api/status.
type statusResponse struct {
	Version  string       `json:"version"`
	Building bool         `json:"building"`
	Build    *deck.Status `json:"build,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Version:  s.cfg.Version,
		Building: s.runner.Building(),
		Build:    s.runner.Status(),
	})
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	if !s.runner.TriggerAsync("api") {
		logger.Warn().
			Str("event", "build.conflict").
			Str("remote_addr", r.RemoteAddr).
			Msg("build already in progress")
		recordBuildTrigger("conflict")

		w.Header().Set("Retry-After", "30")
		writeErrorDetail(w, http.StatusConflict, "conflict", "a deck build is already in progress")
		return
	}

	logger.Info().
		Str("event", "build.triggered").
		Str("remote_addr", r.RemoteAddr).
		Msg("deck build started")
	recordBuildTrigger("accepted")

	w.Header().Set("Location", "/api/status")
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"detail": "deck build started",
	})
}
