package engine

import (
	"context"
	"net/netip"

	"github.com/envlane/envlane/pkg/environment"
	"github.com/envlane/envlane/pkg/telemetry"
)

// Step is one unit of work inside a workflow. Steps are capability objects:
// they act on the external world through the collaborator interfaces and
// never touch lifecycle phases or the snapshot repository.
type Step interface {
	// Name identifies the step in logs, events and failure contexts.
	Name() string

	// Execute performs the step. A returned error aborts the workflow.
	Execute(ctx context.Context, sc *StepContext) error
}

// Outputs is the scratch space steps use to pass values forward within one
// workflow run. The apply step records the discovered instance address here;
// later steps and the completing transition read it.
type Outputs struct {
	InstanceIP netip.Addr
	InstanceID string
}

// StepContext carries the read view of the environment plus per-run state
// into each step.
type StepContext struct {
	// Env is the environment snapshot the workflow started from.
	Env environment.ErasedState

	// RunID identifies this workflow execution in the event store.
	RunID string

	// BuildDir is the per-environment directory for rendered tool inputs.
	BuildDir string

	// Outputs accumulates values produced by earlier steps.
	Outputs Outputs

	// Log is scoped to the environment, workflow and run.
	Log *telemetry.Logger
}

// Target returns the SSH target for the instance. Steps that run before an
// address is known must not call it; the runner only schedules them after
// the apply step has filled Outputs or the snapshot already carries an
// address.
func (sc *StepContext) Target() Target {
	ip := sc.Env.InstanceIP()
	if sc.Outputs.InstanceIP.IsValid() {
		ip = sc.Outputs.InstanceIP
	}
	return Target{Host: ip, SSH: sc.Env.SSH()}
}
