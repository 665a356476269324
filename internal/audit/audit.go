// SPDX-License-Identifier: MIT

// Package audit provides structured audit logging for security-sensitive
// operations. Events follow the WHO/WHAT/WHEN pattern so a log scrape can
// answer who triggered a build, who failed auth, and when config changed.
package audit

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	zlog "github.com/ManuGH/zi2anki/internal/log"
)

// EventType classifies an audit event.
type EventType string

const (
	// Configuration events
	EventConfigReload      EventType = "config.reload"
	EventConfigReloadError EventType = "config.reload.error"

	// Deck build events
	EventBuildStart   EventType = "build.start"
	EventBuildSuccess EventType = "build.success"
	EventBuildError   EventType = "build.error"

	// Authentication events
	EventAuthSuccess EventType = "auth.success"
	EventAuthFailure EventType = "auth.failure"
	EventAuthMissing EventType = "auth.missing"
)

// Event is a single structured audit record.
type Event struct {
	Timestamp  time.Time         `json:"timestamp"`
	Type       EventType         `json:"type"`
	Actor      string            `json:"actor"`             // WHO: remote addr, trigger reason, or "system"
	Action     string            `json:"action"`            // WHAT: human-readable action
	Resource   string            `json:"resource"`          // endpoint, config file, deck
	Result     string            `json:"result"`            // success, failure, denied
	RemoteAddr string            `json:"remote_addr"`       // client address for HTTP-borne events
	RequestID  string            `json:"request_id"`        // correlation id
	Details    map[string]string `json:"details,omitempty"` // additional context
}

// Logger writes audit events through the shared zerolog pipeline with a
// log_type marker so audit lines are filterable from operational logs.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates an audit logger on the "audit" component.
func NewLogger() *Logger {
	return &Logger{
		logger: zlog.WithComponent("audit").With().
			Str("log_type", "audit").
			Logger(),
	}
}

// Log writes one audit event. A zero timestamp is filled in.
func (l *Logger) Log(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	logEvent := l.logger.Info().
		Time("timestamp", event.Timestamp).
		Str("event_type", string(event.Type)).
		Str("actor", event.Actor).
		Str("action", event.Action).
		Str("resource", event.Resource).
		Str("result", event.Result)

	if event.RemoteAddr != "" {
		logEvent.Str("remote_addr", event.RemoteAddr)
	}
	if event.RequestID != "" {
		logEvent.Str("request_id", event.RequestID)
	}
	for key, value := range event.Details {
		logEvent.Str(key, value)
	}

	logEvent.Msg("audit event")
}

// LogFromContext logs an event carrying the request id stored in ctx by
// the request-id middleware, when the event has none of its own.
func (l *Logger) LogFromContext(ctx context.Context, event Event) {
	if event.RequestID == "" {
		event.RequestID = zlog.RequestIDFromContext(ctx)
	}
	l.Log(event)
}

// ConfigReload records a configuration reload attempt. Actor names the
// trigger, e.g. "hangup" for SIGHUP or "file-watch".
func (l *Logger) ConfigReload(actor, result string, details map[string]string) {
	typ := EventConfigReload
	if result != "success" {
		typ = EventConfigReloadError
	}
	l.Log(Event{
		Type:     typ,
		Actor:    actor,
		Action:   "reloaded configuration",
		Resource: "config",
		Result:   result,
		Details:  details,
	})
}

// BuildStart records the start of a deck build.
func (l *Logger) BuildStart(actor, deckName string) {
	l.Log(Event{
		Type:     EventBuildStart,
		Actor:    actor,
		Action:   "started deck build",
		Resource: deckName,
		Result:   "started",
	})
}

// BuildComplete records a finished deck build with its output counts.
func (l *Logger) BuildComplete(actor, deckName string, notes, cards int, duration time.Duration) {
	l.Log(Event{
		Type:     EventBuildSuccess,
		Actor:    actor,
		Action:   "completed deck build",
		Resource: deckName,
		Result:   "success",
		Details: map[string]string{
			"notes":       strconv.Itoa(notes),
			"cards":       strconv.Itoa(cards),
			"duration_ms": strconv.FormatInt(duration.Milliseconds(), 10),
		},
	})
}

// BuildError records a failed deck build.
func (l *Logger) BuildError(actor, deckName, reason string) {
	l.Log(Event{
		Type:     EventBuildError,
		Actor:    actor,
		Action:   "deck build failed",
		Resource: deckName,
		Result:   "failure",
		Details: map[string]string{
			"error": reason,
		},
	})
}

// AuthSuccess records a successful token authentication.
func (l *Logger) AuthSuccess(ctx context.Context, remoteAddr, endpoint string) {
	l.LogFromContext(ctx, Event{
		Type:       EventAuthSuccess,
		Actor:      remoteAddr,
		Action:     "authenticated successfully",
		Resource:   endpoint,
		Result:     "success",
		RemoteAddr: remoteAddr,
	})
}

// AuthFailure records a rejected token.
func (l *Logger) AuthFailure(ctx context.Context, remoteAddr, endpoint, reason string) {
	l.LogFromContext(ctx, Event{
		Type:       EventAuthFailure,
		Actor:      remoteAddr,
		Action:     "authentication failed",
		Resource:   endpoint,
		Result:     "failure",
		RemoteAddr: remoteAddr,
		Details: map[string]string{
			"reason": reason,
		},
	})
}

// AuthMissing records a request that reached a protected endpoint
// without credentials.
func (l *Logger) AuthMissing(ctx context.Context, remoteAddr, endpoint string) {
	l.LogFromContext(ctx, Event{
		Type:       EventAuthMissing,
		Actor:      remoteAddr,
		Action:     "accessed endpoint without authentication",
		Resource:   endpoint,
		Result:     "denied",
		RemoteAddr: remoteAddr,
	})
}
