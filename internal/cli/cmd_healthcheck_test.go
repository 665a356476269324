package cli

import (
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthServer(t *testing.T, status int) int {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(status) })
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(status) })
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.Listener.Addr().(*net.TCPAddr).Port
}

func TestHealthcheckCommand_Ready(t *testing.T) {
	port := healthServer(t, http.StatusOK)

	out, err := executeCommand(t, "healthcheck", "--port", fmt.Sprint(port))
	require.NoError(t, err)
	assert.Contains(t, out, "ok (/readyz)")
}

func TestHealthcheckCommand_Live(t *testing.T) {
	port := healthServer(t, http.StatusOK)

	out, err := executeCommand(t, "healthcheck", "--mode", "live", "--port", fmt.Sprint(port))
	require.NoError(t, err)
	assert.Contains(t, out, "ok (/healthz)")
}

func TestHealthcheckCommand_NotReady(t *testing.T) {
	port := healthServer(t, http.StatusServiceUnavailable)

	_, err := executeCommand(t, "healthcheck", "--port", fmt.Sprint(port))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned")
}

func TestHealthcheckCommand_InvalidMode(t *testing.T) {
	_, err := executeCommand(t, "healthcheck", "--mode", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mode")
}

func TestHealthcheckCommand_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	_, err = executeCommand(t, "healthcheck", "--port", fmt.Sprint(port), "--timeout", "2s")
	require.Error(t, err)
}
