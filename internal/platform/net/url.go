// SPDX-License-Identifier: MIT

package net

import "net/url"

// SanitizeURL removes user info and query parameters for safe logging.
func SanitizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}
