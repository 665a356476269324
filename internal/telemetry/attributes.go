// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"
	HTTPUserAgentKey  = "http.user_agent"

	// Deck build attributes
	BuildIDKey       = "build.id"
	BuildWordsKey    = "build.words"
	BuildNotesKey    = "build.notes"
	BuildCardsKey    = "build.cards"
	BuildSkippedKey  = "build.skipped"
	BuildDurationKey = "build.duration_ms"

	// TTS attributes
	TTSWordKey     = "tts.word"
	TTSOutcomeKey  = "tts.outcome"
	TTSEndpointKey = "tts.endpoint"

	// Audio store attributes
	StoreBackendKey = "store.backend"
	StoreClipsKey   = "store.clips"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// BuildAttributes creates deck-build span attributes.
func BuildAttributes(buildID string, words, notes, cards, skipped int, durationMS int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(BuildIDKey, buildID),
		attribute.Int(BuildWordsKey, words),
		attribute.Int(BuildNotesKey, notes),
		attribute.Int(BuildCardsKey, cards),
		attribute.Int(BuildSkippedKey, skipped),
		attribute.Int64(BuildDurationKey, durationMS),
	}
}

// TTSAttributes creates speech-fetch span attributes. Empty fields are
// omitted.
func TTSAttributes(word, outcome, endpoint string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if word != "" {
		attrs = append(attrs, attribute.String(TTSWordKey, word))
	}
	if outcome != "" {
		attrs = append(attrs, attribute.String(TTSOutcomeKey, outcome))
	}
	if endpoint != "" {
		attrs = append(attrs, attribute.String(TTSEndpointKey, endpoint))
	}
	return attrs
}

// StoreAttributes creates audio-store span attributes.
func StoreAttributes(backend string, clips int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(StoreBackendKey, backend),
		attribute.Int(StoreClipsKey, clips),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
