// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldSessionID = "session_id"
	FieldContentID = "content_id"

	// Process / pipeline fields
	FieldComponent = "component"
	FieldEvent     = "event"

	// Media / stream fields
	FieldSourceIndex = "source_index"
	FieldQuality     = "quality"
	FieldProvider    = "provider"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path / URL fields
	FieldURL  = "url"
	FieldPath = "path"
)
