package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/envlane/envlane/pkg/environment"
)

func newPurgeCommand() *cobra.Command {
	var autoApprove bool

	cmd := &cobra.Command{
		Use:   "purge NAME",
		Short: "Remove all local data for a destroyed environment",
		Long: `Purge a destroyed environment's local data.

Removes the environment's build and data directories and its snapshot, so
it no longer appears in listings. Infrastructure is never touched; run
destroy first. Environments whose snapshot can no longer be decoded are
purged as well.`,
		Example: `  # Purge with a confirmation prompt
  envlane purge staging

  # Purge without prompting
  envlane purge staging --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := environment.NewName(args[0])
			if err != nil {
				return err
			}
			if !autoApprove && !confirmPurge(args[0]) {
				fmt.Println("Aborted")
				return nil
			}

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close(cmd.Context())

			if err := app.svc.Purge(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Printf("Environment %s purged\n", name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&autoApprove, "yes", false, "skip the confirmation prompt")

	return cmd
}

func confirmPurge(name string) bool {
	return confirm(fmt.Sprintf("Remove all local data for environment %s? [y/N]: ", name))
}
