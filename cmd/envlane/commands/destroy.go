package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/envlane/envlane/pkg/environment"
)

func newDestroyCommand() *cobra.Command {
	var autoApprove bool

	cmd := &cobra.Command{
		Use:   "destroy NAME",
		Short: "Tear down the environment",
		Long: `Destroy an environment and its infrastructure.

Tears down provisioned infrastructure (skipped when nothing was ever
provisioned) and marks the environment destroyed. The snapshot is kept so
the environment still shows up as destroyed in listings. Destroying an
already destroyed environment is a no-op.`,
		Example: `  # Destroy with a confirmation prompt
  envlane destroy staging

  # Destroy without prompting
  envlane destroy staging --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !autoApprove && !confirmDestroy(args[0]) {
				fmt.Println("Aborted")
				return nil
			}
			return runLifecycle(cmd, args[0], func(ctx context.Context, app *app, name environment.Name) (environment.ErasedState, error) {
				return app.svc.Destroy(ctx, name)
			})
		},
	}

	cmd.Flags().BoolVar(&autoApprove, "yes", false, "skip the confirmation prompt")

	return cmd
}

func confirmDestroy(name string) bool {
	return confirm(fmt.Sprintf("Destroy environment %s and its infrastructure? [y/N]: ", name))
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
