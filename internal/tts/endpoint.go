package tts

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	xnet "github.com/ManuGH/zi2anki/internal/platform/net"
)

// NormalizeEndpoint validates a configured speech endpoint base URL and
// returns it in canonical form: lowercased scheme and host, no trailing
// slash, no query, fragment or credentials.
func NormalizeEndpoint(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("endpoint empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("endpoint scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("endpoint missing host")
	}
	if u.User != nil {
		return "", fmt.Errorf("endpoint must not include credentials")
	}
	if u.RawQuery != "" {
		return "", fmt.Errorf("endpoint must not include query")
	}
	if u.Fragment != "" {
		return "", fmt.Errorf("endpoint must not include fragment")
	}

	host, err := xnet.NormalizeHost(u.Hostname())
	if err != nil {
		return "", err
	}

	hostPort := host
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return "", fmt.Errorf("invalid endpoint port %q", p)
		}
		hostPort = net.JoinHostPort(host, p)
	} else if strings.Contains(host, ":") {
		// bare IPv6 literal
		hostPort = "[" + host + "]"
	}

	path := strings.TrimRight(u.Path, "/")
	return scheme + "://" + hostPort + path, nil
}
