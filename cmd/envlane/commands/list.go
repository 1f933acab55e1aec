package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all environments",
		Long: `List every environment in the workspace with its phase and instance
address. Environments whose snapshot cannot be read are listed with the
error instead of being hidden.`,
		Example: `  envlane list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close(cmd.Context())

			entries, err := app.svc.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No environments")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPHASE\tPROVIDER\tINSTANCE")
			for _, entry := range entries {
				if entry.Err != nil {
					fmt.Fprintf(w, "%s\t(unreadable)\t\t%v\n", entry.Name, entry.Err)
					continue
				}
				instance := "-"
				if ip := entry.State.InstanceIP(); ip.IsValid() {
					instance = ip.String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					entry.Name, entry.State.Phase(), entry.State.Provider().Kind, instance)
			}
			return w.Flush()
		},
	}
}
