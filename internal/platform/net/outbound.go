// SPDX-License-Identifier: MIT

package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ErrEndpointNotAllowed indicates the endpoint did not match the allowlist.
var ErrEndpointNotAllowed = errors.New("endpoint not allowed by outbound policy")

// Allowlist names the endpoints a daemon may talk to. Empty Hosts and
// CIDRs leave the policy in its permissive shape: any publicly routable
// host passes, private and special-purpose ranges are refused. Empty
// Schemes means http and https; empty Ports means any valid port.
type Allowlist struct {
	Hosts   []string
	CIDRs   []string
	Ports   []int
	Schemes []string
}

// Policy is the outbound access policy for the speech endpoint. The
// one-shot CLI leaves Enforce off; serve mode turns it on via config.
type Policy struct {
	Enforce bool
	Allow   Allowlist
}

// CheckEndpoint verifies the endpoint URL against the policy. Host names
// are resolved so a DNS record cannot smuggle a blocked address past a
// host-shaped check.
func CheckEndpoint(ctx context.Context, raw string, policy Policy) error {
	if !policy.Enforce {
		return nil
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Errorf("endpoint url empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("invalid endpoint url: %w", err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("missing endpoint scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("missing endpoint host")
	}

	scheme := strings.ToLower(u.Scheme)
	if !schemeAllowed(policy.Allow.Schemes, scheme) {
		return fmt.Errorf("scheme %q not allowed", scheme)
	}

	port, err := endpointPort(u, scheme)
	if err != nil {
		return err
	}
	if !portAllowed(policy.Allow.Ports, port) {
		return fmt.Errorf("port %d not allowed", port)
	}

	host, err := NormalizeHost(u.Hostname())
	if err != nil {
		return err
	}

	allowedHosts, err := normalizeHostAllowlist(policy.Allow.Hosts)
	if err != nil {
		return err
	}
	allowedCIDRs, err := ParseCIDRs(policy.Allow.CIDRs)
	if err != nil {
		return err
	}

	ips, err := resolveHostIPs(ctx, host)
	if err != nil {
		return err
	}

	_, hostAllowed := allowedHosts[host]
	ipAllowed := false
	for _, ip := range ips {
		inCIDRs := ipInCIDRs(ip, allowedCIDRs)
		if isBlockedIP(ip) && !hostAllowed && !inCIDRs {
			return fmt.Errorf("%w: blocked ip %s", ErrEndpointNotAllowed, ip.String())
		}
		if inCIDRs {
			ipAllowed = true
		}
	}

	// With a populated allowlist the policy is restrictive: the endpoint
	// must match by host or by address.
	if (len(allowedHosts) > 0 || len(allowedCIDRs) > 0) && !hostAllowed && !ipAllowed {
		return ErrEndpointNotAllowed
	}
	return nil
}

// ParseCIDRs parses allowlist entries. Bare IPs are accepted and widened
// to single-address networks.
func ParseCIDRs(entries []string) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		ip, ipnet, err := net.ParseCIDR(entry)
		if err == nil {
			ipnet.IP = ip
			nets = append(nets, ipnet)
			continue
		}
		ip = net.ParseIP(entry)
		if ip == nil {
			return nil, fmt.Errorf("invalid CIDR or IP: %s", entry)
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		nets = append(nets, &net.IPNet{
			IP:   ip,
			Mask: net.CIDRMask(bits, bits),
		})
	}
	return nets, nil
}

func schemeAllowed(allowed []string, scheme string) bool {
	if len(allowed) == 0 {
		return scheme == "http" || scheme == "https"
	}
	for _, s := range allowed {
		if strings.EqualFold(strings.TrimSpace(s), scheme) {
			return true
		}
	}
	return false
}

func portAllowed(allowed []int, port int) bool {
	if len(allowed) == 0 {
		return port >= 1 && port <= 65535
	}
	for _, p := range allowed {
		if p == port {
			return true
		}
	}
	return false
}

func endpointPort(u *url.URL, scheme string) (int, error) {
	if u.Port() == "" {
		switch scheme {
		case "http":
			return 80, nil
		case "https":
			return 443, nil
		default:
			return 0, fmt.Errorf("unknown scheme %q", scheme)
		}
	}
	portStr := u.Port()
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	return port, nil
}

func normalizeHostAllowlist(hosts []string) (map[string]struct{}, error) {
	allow := make(map[string]struct{})
	for _, host := range hosts {
		normalized, err := NormalizeHost(host)
		if err != nil {
			return nil, err
		}
		allow[normalized] = struct{}{}
	}
	return allow, nil
}

func resolveHostIPs(ctx context.Context, host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve host %q: %w", host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("resolve host %q: no addresses", host)
	}
	ips := make([]net.IP, 0, len(addrs))
	for _, addr := range addrs {
		if addr.IP != nil {
			ips = append(ips, addr.IP)
		}
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("resolve host %q: no valid addresses", host)
	}
	return ips, nil
}

// isBlockedIP covers the ranges a vocabulary daemon has no business
// contacting: loopback, link-local, multicast and RFC1918 space.
func isBlockedIP(ip net.IP) bool {
	if ip == nil {
		return true
	}
	return ip.IsLoopback() ||
		ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsPrivate()
}

func ipInCIDRs(ip net.IP, cidrs []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, n := range cidrs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
