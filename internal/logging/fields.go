package logging

// Standardized structured logging keys shared across components.
const (
	// FieldComponent names the emitting component (scheduler, tailer, ...).
	FieldComponent = "component"
	// FieldDeploymentID is the watched deployment identifier.
	FieldDeploymentID = "deployment_id"
	// FieldGroup is a log group name.
	FieldGroup = "group"
	// FieldRunID identifies one watch invocation.
	FieldRunID = "run_id"
	// FieldEventType tags machine-searchable event markers.
	FieldEventType = "event_type"
	// FieldErrorHint carries a short operator-facing remediation hint.
	FieldErrorHint = "error_hint"
	// FieldAlert flags warnings or anomalies that should stand out.
	FieldAlert = "alert"
)
