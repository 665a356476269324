// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/ManuGH/zi2anki/internal/auth"
	"github.com/ManuGH/zi2anki/internal/log"
)

// authMiddleware enforces API token authentication on the build endpoint.
//
// An empty configured token leaves the endpoint open. The daemon targets
// a single operator on a private interface; the startup log calls out the
// open state so it is never a surprise.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.cfg.API.Token
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		logger := log.WithComponentFromContext(r.Context(), "auth")

		reqToken := auth.ExtractToken(r)
		if reqToken == "" {
			logger.Warn().
				Str("event", "auth.missing_token").
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("authorization header missing")
			s.audit.AuthMissing(r.Context(), r.RemoteAddr, r.URL.Path)
			writeUnauthorized(w)
			return
		}

		if !auth.AuthorizeToken(reqToken, token) {
			logger.Warn().
				Str("event", "auth.invalid_token").
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("invalid api token")
			s.audit.AuthFailure(r.Context(), r.RemoteAddr, r.URL.Path, "invalid token")
			writeUnauthorized(w)
			return
		}

		s.audit.AuthSuccess(r.Context(), r.RemoteAddr, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
