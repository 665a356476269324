// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ManuGH/zi2anki/internal/log"
	"github.com/ManuGH/zi2anki/internal/platform/paths"
)

// secureFileServer serves build artifacts (the .apkg deck and skip
// reports) from the data directory with checks against path traversal,
// symlink escapes and directory listing.
func (s *Server) secureFileServer() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.WithComponentFromContext(r.Context(), "api")

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			logger.Warn().Str("event", "file_req.denied").Str("path", r.URL.Path).Str("reason", "method_not_allowed").Msg("method not allowed")
			recordFileRequestDenied("method_not_allowed")
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		path := r.URL.Path
		// Screen for traversal sequences before touching the filesystem,
		// including multiple URL-decode passes, Unicode normalization and
		// NUL bytes.
		if isPathTraversal(path) {
			logger.Warn().Str("event", "file_req.denied").Str("path", r.URL.Path).Str("reason", "path_escape").Msg("detected traversal sequence")
			recordFileRequestDenied("path_escape")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if path == "" || strings.HasSuffix(path, "/") {
			logger.Warn().Str("event", "file_req.denied").Str("path", r.URL.Path).Str("reason", "directory_listing").Msg("directory listing forbidden")
			recordFileRequestDenied("directory_listing")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if !isServableArtifact(path) {
			logger.Warn().Str("event", "file_req.denied").Str("path", r.URL.Path).Str("reason", "forbidden_type").Msg("file type not servable")
			recordFileRequestDenied("forbidden_type")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		realPath, err := paths.ResolveDataFilePath(s.cfg.DataDir, path, false)
		if err != nil {
			switch {
			case errors.Is(err, paths.ErrNotFound):
				logger.Info().Str("event", "file_req.not_found").Str("path", path).Msg("file not found")
				recordFileRequestDenied("not_found")
				writeNotFound(w)
			case errors.Is(err, paths.ErrEscapes):
				logger.Warn().Str("event", "file_req.denied").Str("path", path).Str("reason", "path_escape").Msg("path escapes data directory")
				recordFileRequestDenied("path_escape")
				http.Error(w, "Forbidden", http.StatusForbidden)
			case errors.Is(err, paths.ErrIsDirectory):
				logger.Warn().Str("event", "file_req.denied").Str("path", path).Str("reason", "directory_listing").Msg("resolved path is a directory")
				recordFileRequestDenied("directory_listing")
				http.Error(w, "Forbidden", http.StatusForbidden)
			default:
				logger.Error().Err(err).Str("event", "file_req.internal_error").Str("path", path).Msg("could not resolve path")
				recordFileRequestDenied("internal_error")
				writeInternalError(w)
			}
			return
		}

		// #nosec G304 -- realPath is validated to reside inside the data directory
		f, err := os.Open(realPath)
		if err != nil {
			logger.Error().Err(err).Str("event", "file_req.internal_error").Str("path", realPath).Msg("could not open file for serving")
			recordFileRequestDenied("internal_error")
			writeInternalError(w)
			return
		}
		defer func() {
			if err := f.Close(); err != nil {
				logger.Warn().Err(err).Str("path", realPath).Msg("failed to close file")
			}
		}()

		info, err := f.Stat()
		if err != nil {
			logger.Error().Err(err).Str("event", "file_req.internal_error").Str("path", realPath).Msg("could not stat opened file")
			recordFileRequestDenied("internal_error")
			writeInternalError(w)
			return
		}

		// Weak ETag from modtime and size. Rebuilds rewrite the deck
		// atomically, so a changed file always changes the validator.
		etag := fmt.Sprintf(`W/"%x-%x"`, info.ModTime().UnixNano(), info.Size())
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			recordFileCacheHit()
			w.WriteHeader(http.StatusNotModified)
			return
		}

		// Explicit types for the artifacts the daemon produces. Anki
		// accepts .apkg only as a plain binary download.
		lowerName := strings.ToLower(info.Name())
		switch {
		case strings.HasSuffix(lowerName, ".apkg"):
			w.Header().Set("Content-Type", "application/octet-stream")
		case strings.HasSuffix(lowerName, ".csv"):
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		}

		logger.Info().Str("event", "file_req.allowed").Str("path", path).Msg("serving file")
		recordFileRequestAllowed()
		recordFileCacheMiss()
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}

// isServableArtifact restricts serving to what a build produces: the
// .apkg deck and CSV skip reports. The audio cache and the badger
// database also live under the data dir and must stay internal.
func isServableArtifact(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".apkg") || strings.HasSuffix(lower, ".csv")
}

// isPathTraversal performs robust checks against path traversal attempts.
// It decodes the input multiple times to catch double-encoding, applies
// Unicode normalization, and searches for dangerous sequences including NULs.
func isPathTraversal(p string) bool {
	decoded := p
	// Multiple decode passes catch double and triple encodings.
	for i := 0; i < 3; i++ {
		prev := decoded
		if d, err := url.PathUnescape(decoded); err == nil {
			decoded = d
		} else if d2, err2 := url.QueryUnescape(decoded); err2 == nil {
			decoded = d2
		}
		if decoded == prev {
			break
		}
	}

	lower := strings.ToLower(decoded)
	dangerSubstrings := []string{
		"..",        // parent traversal
		"..\\",      // windows-style backslash
		"%00",       // encoded NUL
		"\x00",      // literal NUL
		"%c0%ae",    // overlong UTF-8 for '.'
		"%e0%80%ae", // another overlong variant
	}
	for _, pat := range dangerSubstrings {
		if strings.Contains(lower, pat) {
			return true
		}
	}

	// Normalize and check again for dot-dot. Deck names may carry CJK
	// characters, so normalization has to run before the final verdict.
	normalized := strings.ToLower(norm.NFC.String(decoded))
	return strings.Contains(normalized, "..")
}
