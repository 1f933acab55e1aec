package engine

import (
	"context"

	"github.com/envlane/envlane/pkg/environment"
)

// Provision takes an environment from Created (or ProvisionFailed, for a
// retry) through the provisioning workflow to Provisioned. A retry restarts
// from the first step; the workflow's steps are idempotent against
// infrastructure that partially exists.
func (s *Service) Provision(ctx context.Context, name environment.Name) (environment.ErasedState, error) {
	state, err := s.loadState(ctx, name, "provision")
	if err != nil {
		return environment.ErasedState{}, err
	}

	var env environment.Environment[environment.Provisioning]
	switch state.Phase() {
	case environment.PhaseCreated:
		created, err := environment.Restore[environment.Created](state)
		if err != nil {
			return environment.ErasedState{}, restoreError(err, name, "provision")
		}
		env = environment.StartProvisioning(created)
	case environment.PhaseProvisionFailed:
		failed, err := environment.Restore[environment.ProvisionFailed](state)
		if err != nil {
			return environment.ErasedState{}, restoreError(err, name, "provision")
		}
		s.log.WithEnvironment(name.String()).Infof("retrying provision after failure at step %s", failed.Failure().FailedStep)
		env = environment.RetryProvision(failed)
	default:
		return environment.ErasedState{}, phaseError(state, "provision", "created or provision_failed")
	}

	inProgress := environment.Erase(env)
	if err := s.save(ctx, inProgress, "provision"); err != nil {
		return environment.ErasedState{}, err
	}

	res := s.executeWorkflow(ctx, "provision", inProgress, s.provisionSteps())
	if res.err != nil {
		failedState := environment.Erase(environment.MarkProvisionFailed(env, *res.failure))
		if saveErr := s.save(ctx, failedState, "provision"); saveErr != nil {
			return failedState, saveErr
		}
		return failedState, res.err
	}

	if !res.outputs.InstanceIP.IsValid() {
		// The apply step is required to fill this in; reaching here means
		// a broken Provisioner implementation.
		err := NewStepExecutionError("provisioner reported no instance address", nil).
			WithEnvironment(name.String()).
			WithOperation("provision")
		failedState := environment.Erase(environment.MarkProvisionFailed(env, environment.FailureContext{
			FailedStep: stepNameApplyInfrastructure,
			ErrorKind:  string(KindStepExecution),
			Summary:    err.Error(),
			StartedAt:  s.deps.Clock.Now().UTC(),
			FailedAt:   s.deps.Clock.Now().UTC(),
		}))
		if saveErr := s.save(ctx, failedState, "provision"); saveErr != nil {
			return failedState, saveErr
		}
		return failedState, err
	}

	final := environment.Erase(environment.CompleteProvisioning(env, res.outputs.InstanceIP, environment.AddressFromProvisioner))
	if err := s.save(ctx, final, "provision"); err != nil {
		return final, err
	}
	return final, nil
}

// provisionSteps is the fixed provisioning workflow.
func (s *Service) provisionSteps() []Step {
	return []Step{
		&RenderInfraTemplates{Renderer: s.deps.Renderer, TemplatesDir: s.deps.TemplatesDir},
		&InitInfrastructure{Provisioner: s.deps.Provisioner},
		&ValidateInfrastructure{Provisioner: s.deps.Provisioner},
		&PlanInfrastructure{Provisioner: s.deps.Provisioner},
		&ApplyInfrastructure{Provisioner: s.deps.Provisioner},
		&WaitForSSH{Transport: s.deps.Transport, Timeout: s.deps.SSHWaitTimeout},
		&WaitForCloudInit{Transport: s.deps.Transport, Timeout: s.deps.CloudInitTimeout},
	}
}
