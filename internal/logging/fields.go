package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (backend_opened, read_backoff, ...).
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldBackend names the kernel log access mechanism in use.
	FieldBackend = "backend"
	// FieldSessionID is the standardized structured logging key for reader session identifiers.
	FieldSessionID = "session_id"
)
