package engine

import (
	"context"

	"github.com/envlane/envlane/pkg/environment"
)

// Run takes an environment from Released (or RunFailed, for a retry)
// through application startup to Running. Running is both the in-progress
// and the success phase of this workflow: the snapshot persisted before the
// steps already carries the final phase, so success needs no further write.
func (s *Service) Run(ctx context.Context, name environment.Name) (environment.ErasedState, error) {
	state, err := s.loadState(ctx, name, "run")
	if err != nil {
		return environment.ErasedState{}, err
	}

	var env environment.Environment[environment.Running]
	switch state.Phase() {
	case environment.PhaseReleased:
		released, err := environment.Restore[environment.Released](state)
		if err != nil {
			return environment.ErasedState{}, restoreError(err, name, "run")
		}
		env = environment.StartRunning(released)
	case environment.PhaseRunFailed:
		failed, err := environment.Restore[environment.RunFailed](state)
		if err != nil {
			return environment.ErasedState{}, restoreError(err, name, "run")
		}
		s.log.WithEnvironment(name.String()).Infof("retrying run after failure at step %s", failed.Failure().FailedStep)
		env = environment.RetryRun(failed)
	default:
		return environment.ErasedState{}, phaseError(state, "run", "released or run_failed")
	}

	inProgress := environment.Erase(env)
	if err := s.save(ctx, inProgress, "run"); err != nil {
		return environment.ErasedState{}, err
	}

	res := s.executeWorkflow(ctx, "run", inProgress, s.runWorkflowSteps())
	if res.err != nil {
		failedState := environment.Erase(environment.MarkRunFailed(env, *res.failure))
		if saveErr := s.save(ctx, failedState, "run"); saveErr != nil {
			return failedState, saveErr
		}
		return failedState, res.err
	}

	return inProgress, nil
}

// runWorkflowSteps is the fixed application startup workflow.
func (s *Service) runWorkflowSteps() []Step {
	return []Step{
		&ComposeUp{Compose: s.deps.Compose},
		&ValidateServices{Compose: s.deps.Compose},
	}
}
