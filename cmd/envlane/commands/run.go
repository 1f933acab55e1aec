package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/envlane/envlane/pkg/environment"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run NAME",
		Short: "Start the released application stack",
		Long: `Start the application stack on a released environment.

Brings the compose stack up in detached mode and validates that every
service reports running before the environment is marked as such.`,
		Example: `  envlane run staging`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, args[0], func(ctx context.Context, app *app, name environment.Name) (environment.ErasedState, error) {
				return app.svc.Run(ctx, name)
			})
		},
	}
}
