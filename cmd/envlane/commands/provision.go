package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/envlane/envlane/pkg/environment"
)

func newProvisionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "provision NAME",
		Short: "Provision the environment's infrastructure",
		Long: `Provision infrastructure for a created environment.

Renders the infrastructure templates for the configured provider, applies
them, and waits for the instance to become reachable over SSH and finish
cloud-init. On failure the environment moves to provision_failed and the
command can be re-run to retry the whole workflow.`,
		Example: `  envlane provision staging`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, args[0], func(ctx context.Context, app *app, name environment.Name) (environment.ErasedState, error) {
				return app.svc.Provision(ctx, name)
			})
		},
	}
}
