package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/envlane/envlane/pkg/config"
)

func newCreateCommand() *cobra.Command {
	var definitionPath string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an environment from a definition file",
		Long: `Create a new environment from a CUE definition file.

The environment starts in the created phase: its configuration is validated
and persisted, but no infrastructure exists until "envlane provision".`,
		Example: `  # Create an environment from its definition
  envlane create --config staging.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parser, err := config.NewParser()
			if err != nil {
				return err
			}
			def, err := parser.ParseFile(definitionPath)
			if err != nil {
				return err
			}
			params, err := def.CreateParams()
			if err != nil {
				return err
			}

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close(cmd.Context())

			state, err := app.svc.Create(cmd.Context(), params)
			if err != nil {
				return err
			}

			fmt.Printf("Environment %s created (provider: %s)\n",
				state.Name(), state.Provider().Kind)
			fmt.Printf("Next: envlane provision %s\n", state.Name())
			return nil
		},
	}

	cmd.Flags().StringVarP(&definitionPath, "config", "c", "", "environment definition file")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
