package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/envlane/envlane/pkg/environment"
)

func newReleaseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "release NAME",
		Short: "Render and upload the application deployment",
		Long: `Release the application onto a configured environment.

Renders the application templates against the environment's values and
uploads the compose file, service configuration, and monitoring
configuration (when enabled) to the instance. Nothing is started until
"envlane run".`,
		Example: `  envlane release staging`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, args[0], func(ctx context.Context, app *app, name environment.Name) (environment.ErasedState, error) {
				return app.svc.Release(ctx, name)
			})
		},
	}
}
