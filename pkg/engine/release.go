package engine

import (
	"context"

	"github.com/envlane/envlane/pkg/environment"
)

// Release takes an environment from Configured (or ReleaseFailed, for a
// retry) through artifact deployment to Released.
func (s *Service) Release(ctx context.Context, name environment.Name) (environment.ErasedState, error) {
	state, err := s.loadState(ctx, name, "release")
	if err != nil {
		return environment.ErasedState{}, err
	}

	var env environment.Environment[environment.Releasing]
	switch state.Phase() {
	case environment.PhaseConfigured:
		configured, err := environment.Restore[environment.Configured](state)
		if err != nil {
			return environment.ErasedState{}, restoreError(err, name, "release")
		}
		env = environment.StartReleasing(configured)
	case environment.PhaseReleaseFailed:
		failed, err := environment.Restore[environment.ReleaseFailed](state)
		if err != nil {
			return environment.ErasedState{}, restoreError(err, name, "release")
		}
		s.log.WithEnvironment(name.String()).Infof("retrying release after failure at step %s", failed.Failure().FailedStep)
		env = environment.RetryRelease(failed)
	default:
		return environment.ErasedState{}, phaseError(state, "release", "configured or release_failed")
	}

	inProgress := environment.Erase(env)
	if err := s.save(ctx, inProgress, "release"); err != nil {
		return environment.ErasedState{}, err
	}

	res := s.executeWorkflow(ctx, "release", inProgress, s.releaseSteps(inProgress))
	if res.err != nil {
		failedState := environment.Erase(environment.MarkReleaseFailed(env, *res.failure))
		if saveErr := s.save(ctx, failedState, "release"); saveErr != nil {
			return failedState, saveErr
		}
		return failedState, res.err
	}

	final := environment.Erase(environment.CompleteReleasing(env))
	if err := s.save(ctx, final, "release"); err != nil {
		return final, err
	}
	return final, nil
}

// releaseSteps builds the release workflow. Monitoring config only ships
// when the environment requested the monitoring stack.
func (s *Service) releaseSteps(state environment.ErasedState) []Step {
	steps := []Step{
		&RenderAppTemplates{Renderer: s.deps.Renderer, TemplatesDir: s.deps.TemplatesDir},
		&UploadComposeFiles{Transport: s.deps.Transport},
	}
	if state.Features().Monitoring {
		steps = append(steps, &UploadMonitoringConfig{Transport: s.deps.Transport})
	} else {
		s.log.WithEnvironment(state.Name().String()).Debug("monitoring not requested, skipping UploadMonitoringConfig")
	}
	steps = append(steps, &UploadAppConfig{Transport: s.deps.Transport})
	return steps
}
