package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/envlane/envlane/pkg/environment"
)

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show an environment's state",
		Long: `Show the persisted state of an environment: its phase, provider,
instance address, feature toggles, and the failure context when the last
workflow failed.`,
		Example: `  envlane show staging`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := environment.NewName(args[0])
			if err != nil {
				return err
			}

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close(cmd.Context())

			state, err := app.svc.Show(cmd.Context(), name)
			if err != nil {
				return err
			}

			fmt.Printf("Name:      %s\n", state.Name())
			fmt.Printf("Phase:     %s\n", state.Phase())
			fmt.Printf("Provider:  %s\n", state.Provider().Kind)
			fmt.Printf("Created:   %s\n", state.CreatedAt().Format(time.RFC3339))
			if ip := state.InstanceIP(); ip.IsValid() {
				fmt.Printf("Instance:  %s\n", ip)
				fmt.Printf("SSH:       %s@%s -p %d\n", state.SSH().User, ip, state.SSH().Port)
			}
			features := state.Features()
			fmt.Printf("Features:  monitoring=%t firewall=%t\n", features.Monitoring, features.Firewall)

			if fc := state.Failure(); fc != nil {
				fmt.Println()
				fmt.Printf("Last failure:\n")
				fmt.Printf("  Step:     %s (%s)\n", fc.FailedStep, fc.ErrorKind)
				fmt.Printf("  Cause:    %s\n", fc.Summary)
				fmt.Printf("  Failed:   %s (after %s)\n", fc.FailedAt.Format(time.RFC3339), fc.Duration)
				fmt.Printf("  Run:      %s\n", fc.RunID)
				if fc.TraceID != "" {
					fmt.Printf("  Trace:    %s\n", fc.TraceID)
				}
			}
			return nil
		},
	}
}
