// SPDX-License-Identifier: MIT

package telemetry

import (
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestHTTPAttributes(t *testing.T) {
	attrs := HTTPAttributes("GET", "/api/status", "http://localhost:8080/api/status", 200)

	if len(attrs) != 4 {
		t.Fatalf("Expected 4 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, HTTPMethodKey, "GET")
	verifyAttribute(t, attrs, HTTPRouteKey, "/api/status")
	verifyAttribute(t, attrs, HTTPURLKey, "http://localhost:8080/api/status")
	verifyIntAttribute(t, attrs, HTTPStatusCodeKey, 200)
}

func TestBuildAttributes(t *testing.T) {
	attrs := BuildAttributes("b-123", 480, 450, 900, 30, 4200)

	if len(attrs) != 6 {
		t.Fatalf("Expected 6 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, BuildIDKey, "b-123")
	verifyIntAttribute(t, attrs, BuildWordsKey, 480)
	verifyIntAttribute(t, attrs, BuildNotesKey, 450)
	verifyIntAttribute(t, attrs, BuildCardsKey, 900)
	verifyIntAttribute(t, attrs, BuildSkippedKey, 30)
	verifyInt64Attribute(t, attrs, BuildDurationKey, 4200)
}

func TestTTSAttributes(t *testing.T) {
	tests := []struct {
		name     string
		word     string
		outcome  string
		endpoint string
		wantLen  int
	}{
		{
			name:     "all fields",
			word:     "你好",
			outcome:  "fetched",
			endpoint: "https://translate.google.com",
			wantLen:  3,
		},
		{
			name:    "only word",
			word:    "你好",
			wantLen: 1,
		},
		{
			name:    "empty fields",
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := TTSAttributes(tt.word, tt.outcome, tt.endpoint)

			if len(attrs) != tt.wantLen {
				t.Errorf("Expected %d attributes, got %d", tt.wantLen, len(attrs))
			}

			if tt.word != "" {
				verifyAttribute(t, attrs, TTSWordKey, tt.word)
			}
			if tt.outcome != "" {
				verifyAttribute(t, attrs, TTSOutcomeKey, tt.outcome)
			}
			if tt.endpoint != "" {
				verifyAttribute(t, attrs, TTSEndpointKey, tt.endpoint)
			}
		})
	}
}

func TestStoreAttributes(t *testing.T) {
	attrs := StoreAttributes("badger", 512)

	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, StoreBackendKey, "badger")
	verifyIntAttribute(t, attrs, StoreClipsKey, 512)
}

func TestErrorAttributes(t *testing.T) {
	err := errors.New("test error")
	attrs := ErrorAttributes(err, "network_error")

	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}

	verifyBoolAttribute(t, attrs, ErrorKey, true)
	verifyAttribute(t, attrs, ErrorTypeKey, "network_error")
}

// Helper functions for attribute verification

func verifyAttribute(t *testing.T, attrs []attribute.KeyValue, key, expectedValue string) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsString() != expectedValue {
				t.Errorf("Expected %s=%s, got %s", key, expectedValue, attr.Value.AsString())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyIntAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue int) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsInt64() != int64(expectedValue) {
				t.Errorf("Expected %s=%d, got %d", key, expectedValue, attr.Value.AsInt64())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyInt64Attribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue int64) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsInt64() != expectedValue {
				t.Errorf("Expected %s=%d, got %d", key, expectedValue, attr.Value.AsInt64())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyBoolAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue bool) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsBool() != expectedValue {
				t.Errorf("Expected %s=%t, got %t", key, expectedValue, attr.Value.AsBool())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}
