package engine

import (
	"context"
)

const stepNameDestroyInfrastructure = "DestroyInfrastructure"

// DestroyInfrastructure tears down the environment's infrastructure through
// the provisioner.
type DestroyInfrastructure struct {
	Provisioner Provisioner
}

func (s *DestroyInfrastructure) Name() string { return stepNameDestroyInfrastructure }

func (s *DestroyInfrastructure) Execute(ctx context.Context, sc *StepContext) error {
	return s.Provisioner.Destroy(ctx, infraWorkdir(sc))
}
