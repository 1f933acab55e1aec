package engine

import (
	"context"
	"unicode/utf8"

	"github.com/envlane/envlane/pkg/environment"
	"github.com/envlane/envlane/pkg/telemetry"
	"github.com/google/uuid"
)

// maxSummaryLen bounds the error summary stored in a failure context.
const maxSummaryLen = 500

// workflowResult is the outcome of one workflow execution.
type workflowResult struct {
	outputs    Outputs
	failedStep string
	failure    *environment.FailureContext
	err        error
}

// executeWorkflow runs the steps against the given snapshot: one root span
// for the workflow, one child span per step, fail-fast on the first error.
// On failure the returned result carries a fully populated FailureContext;
// the caller owns the phase transition and persistence either way.
func (s *Service) executeWorkflow(ctx context.Context, workflow string, state environment.ErasedState, steps []Step) workflowResult {
	runID := uuid.NewString()
	started := s.deps.Clock.Now()
	name := state.Name().String()

	ctx, span := s.tel.Tracer.StartWorkflowSpan(ctx, workflow, name, runID)
	defer span.End()

	log := s.log.WithEnvironment(name).WithWorkflow(workflow).WithRunID(runID)
	log.Infof("starting %s workflow with %d steps", workflow, len(steps))

	s.tel.Metrics.RecordWorkflowStarted(workflow)
	if err := s.deps.Events.RecordRunStarted(ctx, runID, name, workflow, started); err != nil {
		log.WithError(err).Warn("failed to record run start")
	}

	sc := &StepContext{
		Env:      state,
		RunID:    runID,
		BuildDir: state.BuildDir(s.deps.WorkspaceRoot),
		Log:      log,
	}

	failedStep, err := s.runSteps(ctx, workflow, sc, steps)
	finished := s.deps.Clock.Now()
	duration := finished.Sub(started)

	if err != nil {
		telemetry.RecordError(span, err)
		s.tel.Metrics.RecordWorkflowCompleted(workflow, "failed", duration)
		s.tel.Metrics.RecordError(string(KindOf(err)))
		if recErr := s.deps.Events.RecordRunCompleted(ctx, runID, true, err.Error()); recErr != nil {
			log.WithError(recErr).Warn("failed to record run completion")
		}
		log.WithError(err).Errorf("%s workflow failed at step %s", workflow, failedStep)

		return workflowResult{
			outputs:    sc.Outputs,
			failedStep: failedStep,
			failure: &environment.FailureContext{
				FailedStep: failedStep,
				ErrorKind:  string(KindOf(err)),
				Summary:    summarize(err),
				StartedAt:  started.UTC(),
				FailedAt:   finished.UTC(),
				Duration:   duration,
				TraceID:    telemetry.TraceID(ctx),
				RunID:      runID,
			},
			err: err,
		}
	}

	telemetry.RecordSuccess(span)
	s.tel.Metrics.RecordWorkflowCompleted(workflow, "completed", duration)
	if recErr := s.deps.Events.RecordRunCompleted(ctx, runID, false, ""); recErr != nil {
		log.WithError(recErr).Warn("failed to record run completion")
	}
	log.Infof("%s workflow completed in %s", workflow, duration)

	return workflowResult{outputs: sc.Outputs}
}

// runSteps executes the steps in order and stops at the first failure,
// returning the failed step's name alongside the error.
func (s *Service) runSteps(ctx context.Context, workflow string, sc *StepContext, steps []Step) (string, error) {
	for _, step := range steps {
		stepCtx, span := s.tel.Tracer.StartStepSpan(ctx, step.Name())
		log := sc.Log.WithStep(step.Name())
		log.Info("step started")

		timer := telemetry.NewTimer()
		err := step.Execute(stepCtx, sc)
		elapsed := timer.Duration()

		if err != nil {
			telemetry.RecordError(span, err)
			span.End()
			s.tel.Metrics.RecordStepExecution(workflow, step.Name(), "failed", elapsed)
			if recErr := s.deps.Events.RecordStepEvent(ctx, sc.RunID, step.Name(), "error", err.Error(), elapsed); recErr != nil {
				log.WithError(recErr).Warn("failed to record step event")
			}
			log.WithError(err).Error("step failed")
			return step.Name(), err
		}

		telemetry.RecordSuccess(span)
		span.End()
		s.tel.Metrics.RecordStepExecution(workflow, step.Name(), "completed", elapsed)
		if recErr := s.deps.Events.RecordStepEvent(ctx, sc.RunID, step.Name(), "info", "step completed", elapsed); recErr != nil {
			log.WithError(recErr).Warn("failed to record step event")
		}
		log.Infof("step completed in %s", elapsed)
	}
	return "", nil
}

func summarize(err error) string {
	msg := err.Error()
	if len(msg) <= maxSummaryLen {
		return msg
	}
	cut := maxSummaryLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
