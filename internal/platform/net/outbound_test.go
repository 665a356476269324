// SPDX-License-Identifier: MIT

package net

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCheckEndpoint(t *testing.T) {
	enforced := Policy{Enforce: true}

	cases := []struct {
		name     string
		policy   Policy
		rawURL   string
		wantErr  bool
		errMatch func(error) bool
	}{
		{
			name:   "not enforced passes anything",
			policy: Policy{Enforce: false},
			rawURL: "http://127.0.0.1:5002",
		},
		{
			name:   "public ip passes permissive policy",
			policy: enforced,
			rawURL: "https://192.0.2.10",
		},
		{
			name:    "reject loopback",
			policy:  enforced,
			rawURL:  "http://127.0.0.1:5002",
			wantErr: true,
			errMatch: func(err error) bool {
				return errors.Is(err, ErrEndpointNotAllowed) && strings.Contains(err.Error(), "blocked ip")
			},
		},
		{
			name:    "reject ipv6 loopback",
			policy:  enforced,
			rawURL:  "http://[::1]:5002",
			wantErr: true,
			errMatch: func(err error) bool {
				return strings.Contains(err.Error(), "blocked ip")
			},
		},
		{
			name:    "reject link-local metadata ip",
			policy:  enforced,
			rawURL:  "http://169.254.169.254",
			wantErr: true,
			errMatch: func(err error) bool {
				return strings.Contains(err.Error(), "blocked ip")
			},
		},
		{
			name:    "reject private range",
			policy:  enforced,
			rawURL:  "http://10.10.55.64:5002",
			wantErr: true,
			errMatch: func(err error) bool {
				return strings.Contains(err.Error(), "blocked ip")
			},
		},
		{
			name: "host allowlist admits loopback mirror",
			policy: Policy{
				Enforce: true,
				Allow:   Allowlist{Hosts: []string{"127.0.0.1"}},
			},
			rawURL: "http://127.0.0.1:5002",
		},
		{
			name: "cidr allowlist admits private range",
			policy: Policy{
				Enforce: true,
				Allow:   Allowlist{CIDRs: []string{"10.0.0.0/8"}},
			},
			rawURL: "http://10.10.55.64:5002",
		},
		{
			name: "allowlisted host matches",
			policy: Policy{
				Enforce: true,
				Allow:   Allowlist{Hosts: []string{"192.0.2.10"}},
			},
			rawURL: "https://192.0.2.10",
		},
		{
			name: "allowlist excludes other hosts",
			policy: Policy{
				Enforce: true,
				Allow:   Allowlist{Hosts: []string{"192.0.2.10"}},
			},
			rawURL:  "https://198.51.100.7",
			wantErr: true,
			errMatch: func(err error) bool {
				return errors.Is(err, ErrEndpointNotAllowed)
			},
		},
		{
			name:    "reject scheme outside default set",
			policy:  enforced,
			rawURL:  "ftp://192.0.2.10",
			wantErr: true,
			errMatch: func(err error) bool {
				return strings.Contains(err.Error(), "scheme")
			},
		},
		{
			name: "reject port outside allowlist",
			policy: Policy{
				Enforce: true,
				Allow:   Allowlist{Ports: []int{443}},
			},
			rawURL:  "https://192.0.2.10:8443",
			wantErr: true,
			errMatch: func(err error) bool {
				return strings.Contains(err.Error(), "port")
			},
		},
		{
			name: "default port satisfies port allowlist",
			policy: Policy{
				Enforce: true,
				Allow:   Allowlist{Ports: []int{443}},
			},
			rawURL: "https://192.0.2.10",
		},
		{
			name:    "reject empty url",
			policy:  enforced,
			rawURL:  "   ",
			wantErr: true,
			errMatch: func(err error) bool {
				return strings.Contains(err.Error(), "empty")
			},
		},
		{
			name:    "reject missing scheme",
			policy:  enforced,
			rawURL:  "192.0.2.10:443",
			wantErr: true,
			errMatch: func(err error) bool {
				return err != nil
			},
		},
		{
			name: "invalid allowlist cidr",
			policy: Policy{
				Enforce: true,
				Allow:   Allowlist{CIDRs: []string{"not-a-cidr"}},
			},
			rawURL:  "https://192.0.2.10",
			wantErr: true,
			errMatch: func(err error) bool {
				return strings.Contains(err.Error(), "invalid CIDR")
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckEndpoint(context.Background(), tc.rawURL, tc.policy)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("CheckEndpoint(%q) = nil, want error", tc.rawURL)
				}
				if tc.errMatch != nil && !tc.errMatch(err) {
					t.Errorf("CheckEndpoint(%q) error = %v", tc.rawURL, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckEndpoint(%q): %v", tc.rawURL, err)
			}
		})
	}
}

func TestParseCIDRs(t *testing.T) {
	nets, err := ParseCIDRs([]string{"10.0.0.0/8", " 192.0.2.10 ", "", "2001:db8::1"})
	if err != nil {
		t.Fatalf("ParseCIDRs: %v", err)
	}
	if len(nets) != 3 {
		t.Fatalf("got %d nets, want 3", len(nets))
	}
	ones, bits := nets[1].Mask.Size()
	if ones != 32 || bits != 32 {
		t.Errorf("bare IPv4 widened to /%d, want /32", ones)
	}
	ones, bits = nets[2].Mask.Size()
	if ones != 128 || bits != 128 {
		t.Errorf("bare IPv6 widened to /%d, want /128", ones)
	}

	if _, err := ParseCIDRs([]string{"bogus"}); err == nil {
		t.Error("ParseCIDRs accepted a bogus entry")
	}
}
