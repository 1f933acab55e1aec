package engine

import (
	"context"

	"github.com/envlane/envlane/pkg/environment"
)

// Destroy tears down an environment from any non-terminal phase. Destroying
// an already-destroyed environment is a logged no-op. If infrastructure
// teardown fails the error propagates and the snapshot keeps its previous
// phase, so the operator can retry.
func (s *Service) Destroy(ctx context.Context, name environment.Name) (environment.ErasedState, error) {
	state, err := s.loadState(ctx, name, "destroy")
	if err != nil {
		return environment.ErasedState{}, err
	}

	if state.IsTerminal() {
		s.log.WithEnvironment(name.String()).Info("environment already destroyed, nothing to do")
		return state, nil
	}

	// Nothing was ever provisioned in the Created phase, so there is no
	// infrastructure to tear down.
	if state.Phase() != environment.PhaseCreated {
		res := s.executeWorkflow(ctx, "destroy", state, s.destroySteps())
		if res.err != nil {
			return state, res.err
		}
	}

	destroyed, err := state.Destroy()
	if err != nil {
		// IsTerminal was checked above; this is unreachable unless the
		// snapshot changed underneath us.
		return state, NewTypeMismatchError("environment changed phase during destroy", err).
			WithEnvironment(name.String()).
			WithOperation("destroy")
	}

	final := environment.Erase(destroyed)
	if err := s.save(ctx, final, "destroy"); err != nil {
		return final, err
	}
	s.log.WithEnvironment(name.String()).Info("environment destroyed")
	return final, nil
}

// destroySteps is the teardown workflow.
func (s *Service) destroySteps() []Step {
	return []Step{
		&DestroyInfrastructure{Provisioner: s.deps.Provisioner},
	}
}
