package commands

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/spf13/cobra"

	"github.com/envlane/envlane/pkg/environment"
)

func newRegisterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "register NAME ADDRESS",
		Short: "Register an existing instance with the environment",
		Long: `Register an already-running instance instead of provisioning one.

Verifies the instance at ADDRESS accepts SSH with the environment's
credentials and records it as the environment's instance. The environment
moves to provisioned and continues through configure, release, and run like
any other. Only environments in the created phase can be registered.`,
		Example: `  envlane register staging 10.0.0.5`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ip, err := netip.ParseAddr(args[1])
			if err != nil {
				return fmt.Errorf("invalid instance address %q: %w", args[1], err)
			}
			return runLifecycle(cmd, args[0], func(ctx context.Context, app *app, name environment.Name) (environment.ErasedState, error) {
				return app.svc.Register(ctx, name, ip)
			})
		},
	}
}
