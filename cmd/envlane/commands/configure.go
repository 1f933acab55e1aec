package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/envlane/envlane/pkg/environment"
)

func newConfigureCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "configure NAME",
		Short: "Configure the provisioned instance",
		Long: `Configure a provisioned environment's instance.

Writes the Ansible inventory for the instance and runs the configuration
playbooks: Docker, Docker Compose, and the firewall when the environment
requested it.`,
		Example: `  envlane configure staging`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, args[0], func(ctx context.Context, app *app, name environment.Name) (environment.ErasedState, error) {
				return app.svc.Configure(ctx, name)
			})
		},
	}
}
