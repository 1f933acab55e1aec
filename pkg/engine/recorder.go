package engine

import (
	"context"
	"time"

	"github.com/envlane/envlane/pkg/stores"
)

// RunRecorder receives the append-only record of a workflow run. Recording
// is diagnostic: a recorder failure is logged but never fails the workflow.
type RunRecorder interface {
	RecordRunStarted(ctx context.Context, runID, env, workflow string, at time.Time) error
	RecordRunCompleted(ctx context.Context, runID string, failed bool, errMsg string) error
	RecordStepEvent(ctx context.Context, runID, step, level, message string, duration time.Duration) error
}

// NopRecorder discards all run records.
type NopRecorder struct{}

func (NopRecorder) RecordRunStarted(context.Context, string, string, string, time.Time) error {
	return nil
}

func (NopRecorder) RecordRunCompleted(context.Context, string, bool, string) error {
	return nil
}

func (NopRecorder) RecordStepEvent(context.Context, string, string, string, string, time.Duration) error {
	return nil
}

// EventStoreRecorder persists run records to the SQLite event store.
type EventStoreRecorder struct {
	Store *stores.EventStore
}

// RecordRunStarted inserts the run row.
func (r *EventStoreRecorder) RecordRunStarted(ctx context.Context, runID, env, workflow string, at time.Time) error {
	return r.Store.CreateRun(ctx, &stores.Run{
		ID:          runID,
		Environment: env,
		Workflow:    workflow,
		Status:      stores.RunStatusRunning,
		StartedAt:   at,
	})
}

// RecordRunCompleted closes the run row with its outcome.
func (r *EventStoreRecorder) RecordRunCompleted(ctx context.Context, runID string, failed bool, errMsg string) error {
	status := stores.RunStatusCompleted
	var msg *string
	if failed {
		status = stores.RunStatusFailed
		msg = &errMsg
	}
	return r.Store.CompleteRun(ctx, runID, status, msg)
}

// RecordStepEvent appends a step event to the run's log.
func (r *EventStoreRecorder) RecordStepEvent(ctx context.Context, runID, step, level, message string, duration time.Duration) error {
	ms := duration.Milliseconds()
	return r.Store.AppendStepEvent(ctx, &stores.StepEvent{
		RunID:      runID,
		Step:       step,
		Level:      stores.EventLevel(level),
		Message:    message,
		DurationMS: &ms,
		Timestamp:  time.Now(),
	})
}
