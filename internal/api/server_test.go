// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ManuGH/zi2anki/internal/config"
	"github.com/ManuGH/zi2anki/internal/deck"
	"github.com/ManuGH/zi2anki/internal/health"
)

// stubRunner satisfies BuildRunner without running anything.
type stubRunner struct {
	triggerOK bool
	building  bool
	status    *deck.Status
	triggered []string
}

func (s *stubRunner) TriggerAsync(reason string) bool {
	s.triggered = append(s.triggered, reason)
	return s.triggerOK
}

func (s *stubRunner) Building() bool { return s.building }

func (s *stubRunner) Status() *deck.Status { return s.status }

func newTestServer(t *testing.T, cfg config.AppConfig, runner *stubRunner) http.Handler {
	t.Helper()
	if cfg.DataDir == "" {
		cfg.DataDir = t.TempDir()
	}
	if cfg.Version == "" {
		cfg.Version = "test"
	}
	srv := New(cfg, health.NewManager(cfg.Version), runner)
	return srv.Handler()
}

func TestHandleStatus(t *testing.T) {
	runner := &stubRunner{
		building: true,
		status: &deck.Status{
			BuildID: "b-123",
			Words:   42,
			Notes:   40,
			Cards:   80,
		},
	}
	handler := newTestServer(t, config.AppConfig{Version: "1.2.3"}, runner)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got struct {
		Version  string       `json:"version"`
		Building bool         `json:"building"`
		Build    *deck.Status `json:"build"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Version != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", got.Version)
	}
	if !got.Building {
		t.Error("expected building=true")
	}
	if got.Build == nil || got.Build.BuildID != "b-123" {
		t.Errorf("unexpected build status: %+v", got.Build)
	}
	if got.Build.Words != 42 || got.Build.Cards != 80 {
		t.Errorf("unexpected counters: %+v", got.Build)
	}
}

func TestHandleStatusBeforeFirstBuild(t *testing.T) {
	handler := newTestServer(t, config.AppConfig{}, &stubRunner{})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), `"build"`) {
		t.Errorf("expected build field to be omitted before first build, got %s", w.Body.String())
	}
}

func TestHandleBuildAccepted(t *testing.T) {
	runner := &stubRunner{triggerOK: true}
	handler := newTestServer(t, config.AppConfig{}, runner)

	req := httptest.NewRequest(http.MethodPost, "/api/build", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/api/status" {
		t.Errorf("Location = %q, want /api/status", loc)
	}
	if len(runner.triggered) != 1 || runner.triggered[0] != "api" {
		t.Errorf("unexpected trigger reasons: %v", runner.triggered)
	}
}

func TestHandleBuildConflict(t *testing.T) {
	runner := &stubRunner{triggerOK: false}
	handler := newTestServer(t, config.AppConfig{}, runner)

	req := httptest.NewRequest(http.MethodPost, "/api/build", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if ra := w.Header().Get("Retry-After"); ra != "30" {
		t.Errorf("Retry-After = %q, want 30", ra)
	}
	if !strings.Contains(w.Body.String(), "conflict") {
		t.Errorf("expected conflict in body, got %s", w.Body.String())
	}
}

func TestHandleBuildAuth(t *testing.T) {
	cfg := config.AppConfig{}
	cfg.API.Token = "sekrit"

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"missing token", "", "", http.StatusUnauthorized},
		{"wrong token", "Authorization", "Bearer wrong", http.StatusUnauthorized},
		{"bearer token", "Authorization", "Bearer sekrit", http.StatusAccepted},
		{"api token header", "X-API-Token", "sekrit", http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestServer(t, cfg, &stubRunner{triggerOK: true})

			req := httptest.NewRequest(http.MethodPost, "/api/build", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandleBuildOpenWithoutToken(t *testing.T) {
	// No configured token leaves the endpoint open for a single-operator setup.
	handler := newTestServer(t, config.AppConfig{}, &stubRunner{triggerOK: true})

	req := httptest.NewRequest(http.MethodPost, "/api/build", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202 without configured token, got %d", w.Code)
	}
}

func TestStatusDoesNotRequireAuth(t *testing.T) {
	cfg := config.AppConfig{}
	cfg.API.Token = "sekrit"
	handler := newTestServer(t, cfg, &stubRunner{})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status endpoint should be public, got %d", w.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	handler := newTestServer(t, config.AppConfig{}, &stubRunner{})

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestHandlerSetsSecurityHeaders(t *testing.T) {
	handler := newTestServer(t, config.AppConfig{}, &stubRunner{})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("expected nosniff on API responses, got %q", got)
	}
	if got := w.Header().Get("X-Request-ID"); got == "" {
		t.Error("expected request id header on API responses")
	}
}
