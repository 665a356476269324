// SPDX-License-Identifier: MIT

package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zlog "github.com/ManuGH/zi2anki/internal/log"
)

// captureLogger returns a Logger writing to an in-memory buffer so tests
// can decode the emitted JSON lines.
func captureLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Logger{logger: zerolog.New(&buf)}, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var events []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &ev), "line: %s", line)
		events = append(events, ev)
	}
	return events
}

func TestNewLogger(t *testing.T) {
	assert.NotNil(t, NewLogger())
}

func TestLog_WritesStructuredEvent(t *testing.T) {
	logger, buf := captureLogger()

	logger.Log(Event{
		Type:       EventAuthFailure,
		Actor:      "192.168.1.50",
		Action:     "authentication failed",
		Resource:   "/api/build",
		Result:     "failure",
		RemoteAddr: "192.168.1.50",
		RequestID:  "req-123",
		Details:    map[string]string{"reason": "invalid token"},
	})

	events := decodeLines(t, buf)
	require.Len(t, events, 1)
	ev := events[0]

	assert.Equal(t, "auth.failure", ev["event_type"])
	assert.Equal(t, "192.168.1.50", ev["actor"])
	assert.Equal(t, "authentication failed", ev["action"])
	assert.Equal(t, "/api/build", ev["resource"])
	assert.Equal(t, "failure", ev["result"])
	assert.Equal(t, "192.168.1.50", ev["remote_addr"])
	assert.Equal(t, "req-123", ev["request_id"])
	assert.Equal(t, "invalid token", ev["reason"])
}

func TestLog_FillsTimestamp(t *testing.T) {
	logger, buf := captureLogger()

	logger.Log(Event{
		Type:   EventBuildStart,
		Actor:  "system",
		Result: "started",
	})

	events := decodeLines(t, buf)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0]["timestamp"])
}

func TestLog_OmitsEmptyOptionalFields(t *testing.T) {
	logger, buf := captureLogger()

	logger.Log(Event{
		Type:   EventConfigReload,
		Actor:  "system",
		Result: "success",
	})

	events := decodeLines(t, buf)
	require.Len(t, events, 1)
	_, hasAddr := events[0]["remote_addr"]
	assert.False(t, hasAddr)
	_, hasReqID := events[0]["request_id"]
	assert.False(t, hasReqID)
}

func TestLogFromContext_PullsRequestID(t *testing.T) {
	logger, buf := captureLogger()

	ctx := zlog.ContextWithRequestID(context.Background(), "req-789")
	logger.LogFromContext(ctx, Event{
		Type:   EventAuthSuccess,
		Actor:  "10.0.0.1",
		Result: "success",
	})

	events := decodeLines(t, buf)
	require.Len(t, events, 1)
	assert.Equal(t, "req-789", events[0]["request_id"])
}

func TestLogFromContext_KeepsExplicitRequestID(t *testing.T) {
	logger, buf := captureLogger()

	ctx := zlog.ContextWithRequestID(context.Background(), "from-ctx")
	logger.LogFromContext(ctx, Event{
		Type:      EventAuthSuccess,
		Actor:     "10.0.0.1",
		Result:    "success",
		RequestID: "explicit",
	})

	events := decodeLines(t, buf)
	require.Len(t, events, 1)
	assert.Equal(t, "explicit", events[0]["request_id"])
}

func TestConfigReload_ResultSelectsEventType(t *testing.T) {
	logger, buf := captureLogger()

	logger.ConfigReload("hangup", "success", nil)
	logger.ConfigReload("file-watch", "failure", map[string]string{"error": "file not found"})

	events := decodeLines(t, buf)
	require.Len(t, events, 2)

	assert.Equal(t, "config.reload", events[0]["event_type"])
	assert.Equal(t, "hangup", events[0]["actor"])

	assert.Equal(t, "config.reload.error", events[1]["event_type"])
	assert.Equal(t, "file not found", events[1]["error"])
}

func TestBuildLifecycle(t *testing.T) {
	logger, buf := captureLogger()

	logger.BuildStart("api", "HSK Deck")
	logger.BuildComplete("api", "HSK Deck", 120, 240, 3200*time.Millisecond)
	logger.BuildError("csv-change", "HSK Deck", "words CSV unreadable")

	events := decodeLines(t, buf)
	require.Len(t, events, 3)

	assert.Equal(t, "build.start", events[0]["event_type"])
	assert.Equal(t, "HSK Deck", events[0]["resource"])

	assert.Equal(t, "build.success", events[1]["event_type"])
	assert.Equal(t, "120", events[1]["notes"])
	assert.Equal(t, "240", events[1]["cards"])
	assert.Equal(t, "3200", events[1]["duration_ms"])

	assert.Equal(t, "build.error", events[2]["event_type"])
	assert.Equal(t, "csv-change", events[2]["actor"])
	assert.Equal(t, "words CSV unreadable", events[2]["error"])
}

func TestAuthEvents(t *testing.T) {
	logger, buf := captureLogger()
	ctx := context.Background()

	logger.AuthSuccess(ctx, "192.168.1.50", "/api/build")
	logger.AuthFailure(ctx, "192.168.1.51", "/api/build", "invalid token")
	logger.AuthMissing(ctx, "192.168.1.52", "/api/build")

	events := decodeLines(t, buf)
	require.Len(t, events, 3)

	assert.Equal(t, "auth.success", events[0]["event_type"])
	assert.Equal(t, "success", events[0]["result"])

	assert.Equal(t, "auth.failure", events[1]["event_type"])
	assert.Equal(t, "invalid token", events[1]["reason"])

	assert.Equal(t, "auth.missing", events[2]["event_type"])
	assert.Equal(t, "denied", events[2]["result"])
	assert.Equal(t, "192.168.1.52", events[2]["actor"])
}

func BenchmarkLogger_Log(b *testing.B) {
	logger := &Logger{logger: zerolog.New(&bytes.Buffer{})}
	event := Event{
		Type:       EventAuthSuccess,
		Actor:      "benchmark",
		Action:     "test",
		Resource:   "/test",
		Result:     "success",
		RemoteAddr: "127.0.0.1",
		Details: map[string]string{
			"key1": "value1",
			"key2": "value2",
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Log(event)
	}
}
