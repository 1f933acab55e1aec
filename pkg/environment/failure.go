package environment

import "time"

// FailureContext is the structured record attached to an environment when a
// workflow step fails. Detailed step-by-step output lives in the trace store;
// the context carries just enough to identify what failed and where the
// details are.
type FailureContext struct {
	// FailedStep is the name of the step that failed.
	FailedStep string `json:"failed_step"`

	// ErrorKind is the error classification of the step failure.
	ErrorKind string `json:"error_kind"`

	// Summary is the human-readable one-line failure description.
	Summary string `json:"summary"`

	// StartedAt is when the workflow execution started.
	StartedAt time.Time `json:"started_at"`

	// FailedAt is when the failure occurred.
	FailedAt time.Time `json:"failed_at"`

	// Duration is how long the workflow ran before failing.
	Duration time.Duration `json:"duration"`

	// TraceID is the distributed trace identifier of the failed workflow.
	TraceID string `json:"trace_id,omitempty"`

	// RunID references the workflow run in the event store, where the full
	// step-by-step record can be inspected.
	RunID string `json:"run_id,omitempty"`
}
