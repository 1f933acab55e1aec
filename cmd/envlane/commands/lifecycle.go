package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/envlane/envlane/pkg/environment"
)

// lifecycleOp is one phase-advancing operation on the engine service.
type lifecycleOp func(ctx context.Context, app *app, name environment.Name) (environment.ErasedState, error)

// runLifecycle parses the name argument, wires the app, runs the operation,
// and reports the resulting phase. On failure the persisted failure context
// is printed so the user sees which step broke without digging through logs.
func runLifecycle(cmd *cobra.Command, arg string, op lifecycleOp) error {
	name, err := environment.NewName(arg)
	if err != nil {
		return err
	}

	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.close(cmd.Context())

	state, opErr := op(cmd.Context(), app, name)
	if opErr != nil {
		printFailure(state)
		return opErr
	}

	fmt.Printf("Environment %s is now %s\n", state.Name(), state.Phase())
	if ip := state.InstanceIP(); ip.IsValid() {
		fmt.Printf("Instance: %s (ssh %s@%s -p %d)\n",
			ip, state.SSH().User, ip, state.SSH().Port)
	}
	return nil
}

func printFailure(state environment.ErasedState) {
	fc := state.Failure()
	if fc == nil {
		return
	}
	fmt.Printf("Environment %s is now %s\n", state.Name(), state.Phase())
	fmt.Printf("Failed step: %s (%s, after %s)\n", fc.FailedStep, fc.ErrorKind, fc.Duration)
	fmt.Printf("Cause: %s\n", fc.Summary)
	if fc.TraceID != "" {
		fmt.Printf("Trace: %s\n", fc.TraceID)
	}
	fmt.Printf("Run: envlane runs %s for the step log\n", state.Name())
}
