package engine

import (
	"context"
	"net/netip"

	"github.com/envlane/envlane/pkg/environment"
)

// Register attaches an existing instance to a Created environment instead of
// provisioning new infrastructure. The instance must already accept SSH with
// the environment's credentials; on success the environment is Provisioned
// with the operator-supplied address and continues through configure, release
// and run like any other.
func (s *Service) Register(ctx context.Context, name environment.Name, ip netip.Addr) (environment.ErasedState, error) {
	if !ip.IsValid() {
		return environment.ErasedState{}, NewValidationError("an instance address is required", nil).
			WithEnvironment(name.String()).
			WithOperation("register").
			WithHint("pass the address of the instance to register, e.g. 10.0.0.5")
	}

	state, err := s.loadState(ctx, name, "register")
	if err != nil {
		return environment.ErasedState{}, err
	}
	if state.Phase() != environment.PhaseCreated {
		return environment.ErasedState{}, phaseError(state, "register", "created")
	}
	created, err := environment.Restore[environment.Created](state)
	if err != nil {
		return environment.ErasedState{}, restoreError(err, name, "register")
	}
	env := environment.StartProvisioning(created)

	inProgress := environment.Erase(env)
	if err := s.save(ctx, inProgress, "register"); err != nil {
		return environment.ErasedState{}, err
	}

	res := s.executeWorkflow(ctx, "register", inProgress, s.registerSteps(ip))
	if res.err != nil {
		failedState := environment.Erase(environment.MarkProvisionFailed(env, *res.failure))
		if saveErr := s.save(ctx, failedState, "register"); saveErr != nil {
			return failedState, saveErr
		}
		return failedState, res.err
	}

	final := environment.Erase(environment.CompleteProvisioning(env, ip, environment.AddressManual))
	if err := s.save(ctx, final, "register"); err != nil {
		return final, err
	}
	return final, nil
}

// registerSteps verifies the operator-supplied instance is actually
// reachable before the address is recorded.
func (s *Service) registerSteps(ip netip.Addr) []Step {
	return []Step{
		&RecordInstanceAddress{IP: ip},
		&WaitForSSH{Transport: s.deps.Transport, Timeout: s.deps.SSHWaitTimeout},
	}
}
