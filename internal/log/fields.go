// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldBuildID   = "build_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Domain fields
	FieldWord    = "word"
	FieldDeck    = "deck"
	FieldBackend = "backend"

	// Path / URL fields
	FieldPath    = "path"
	FieldBaseURL = "base_url"
)
