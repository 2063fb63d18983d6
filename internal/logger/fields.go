package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the status API request ID (UUID)
	FieldRequestID = "request_id"

	// FieldJobID is the pipeline job run ID
	FieldJobID = "job_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldSource is the data source identifier
	FieldSource = "source"

	// FieldItemKey is the work item key inside a job
	FieldItemKey = "item_key"

	// FieldURL is the fetched URL
	FieldURL = "url"
)

// Metric fields, used for aggregation.
const (
	FieldDurationMs = "duration_ms"
	FieldCount      = "count"
	FieldSize       = "size"
	FieldStatus     = "status"
)
