package engine

import (
	"context"
	"fmt"
	"strings"
)

const (
	stepNameComposeUp        = "ComposeUp"
	stepNameValidateServices = "ValidateServices"
)

// ComposeUp starts the deployed application stack on the instance.
type ComposeUp struct {
	Compose ComposeRunner
}

func (s *ComposeUp) Name() string { return stepNameComposeUp }

func (s *ComposeUp) Execute(ctx context.Context, sc *StepContext) error {
	return s.Compose.Up(ctx, sc.Target(), remoteAppDir(sc))
}

// ValidateServices checks that every service in the stack is running.
type ValidateServices struct {
	Compose ComposeRunner
}

func (s *ValidateServices) Name() string { return stepNameValidateServices }

func (s *ValidateServices) Execute(ctx context.Context, sc *StepContext) error {
	services, err := s.Compose.Services(ctx, sc.Target(), remoteAppDir(sc))
	if err != nil {
		return NewStepExecutionError("failed to query service states", err).
			WithEnvironment(sc.Env.Name().String()).
			WithOperation(s.Name())
	}
	if len(services) == 0 {
		return NewStepExecutionError("stack reports no services", nil).
			WithEnvironment(sc.Env.Name().String()).
			WithOperation(s.Name()).
			WithHint("check the compose file defines at least one service")
	}

	var down []string
	for _, svc := range services {
		if svc.State != "running" {
			down = append(down, fmt.Sprintf("%s=%s", svc.Name, svc.State))
		}
	}
	if len(down) > 0 {
		return NewStepExecutionError(
			fmt.Sprintf("services not running: %s", strings.Join(down, ", ")), nil).
			WithEnvironment(sc.Env.Name().String()).
			WithOperation(s.Name()).
			WithHint("inspect the container logs on the instance")
	}
	sc.Log.Infof("all %d services running", len(services))
	return nil
}
