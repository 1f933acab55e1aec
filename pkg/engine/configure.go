package engine

import (
	"context"

	"github.com/envlane/envlane/pkg/environment"
)

// Configure takes an environment from Provisioned (or ConfigureFailed, for
// a retry) through host configuration to Configured.
func (s *Service) Configure(ctx context.Context, name environment.Name) (environment.ErasedState, error) {
	state, err := s.loadState(ctx, name, "configure")
	if err != nil {
		return environment.ErasedState{}, err
	}

	var env environment.Environment[environment.Configuring]
	switch state.Phase() {
	case environment.PhaseProvisioned:
		provisioned, err := environment.Restore[environment.Provisioned](state)
		if err != nil {
			return environment.ErasedState{}, restoreError(err, name, "configure")
		}
		env = environment.StartConfiguring(provisioned)
	case environment.PhaseConfigureFailed:
		failed, err := environment.Restore[environment.ConfigureFailed](state)
		if err != nil {
			return environment.ErasedState{}, restoreError(err, name, "configure")
		}
		s.log.WithEnvironment(name.String()).Infof("retrying configure after failure at step %s", failed.Failure().FailedStep)
		env = environment.RetryConfigure(failed)
	default:
		return environment.ErasedState{}, phaseError(state, "configure", "provisioned or configure_failed")
	}

	inProgress := environment.Erase(env)
	if err := s.save(ctx, inProgress, "configure"); err != nil {
		return environment.ErasedState{}, err
	}

	res := s.executeWorkflow(ctx, "configure", inProgress, s.configureSteps(inProgress))
	if res.err != nil {
		failedState := environment.Erase(environment.MarkConfigureFailed(env, *res.failure))
		if saveErr := s.save(ctx, failedState, "configure"); saveErr != nil {
			return failedState, saveErr
		}
		return failedState, res.err
	}

	final := environment.Erase(environment.CompleteConfiguring(env))
	if err := s.save(ctx, final, "configure"); err != nil {
		return final, err
	}
	return final, nil
}

// configureSteps builds the configuration workflow. The firewall step only
// runs when the environment requested it.
func (s *Service) configureSteps(state environment.ErasedState) []Step {
	steps := []Step{
		&RenderInventory{Playbooks: s.deps.Playbooks},
		&InstallDocker{Playbooks: s.deps.Playbooks},
		&InstallDockerCompose{Playbooks: s.deps.Playbooks},
	}
	if state.Features().Firewall {
		steps = append(steps, &ConfigureFirewall{Playbooks: s.deps.Playbooks})
	} else {
		s.log.WithEnvironment(state.Name().String()).Debug("firewall not requested, skipping ConfigureFirewall")
	}
	return steps
}
