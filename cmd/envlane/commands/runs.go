package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/envlane/envlane/pkg/environment"
)

func newRunsCommand() *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "runs NAME",
		Short: "Show recorded workflow runs",
		Long: `Show the workflow runs recorded for an environment, newest first.
With --run, show the step-by-step event log of one run instead.`,
		Example: `  # Last runs for an environment
  envlane runs staging

  # Step log of one run
  envlane runs staging --run 4f6c01f2-...`,
		Args: cobra.ExactArgs(1),
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

			if runID != "" {
				return printStepEvents(cmd, app, runID)
			}
			return printRuns(cmd, app, name.String(), limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "show the step log of this run ID")

	return cmd
}

func printRuns(cmd *cobra.Command, app *app, env string, limit int) error {
	runs, err := app.events.ListRuns(cmd.Context(), env, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tWORKFLOW\tSTATUS\tSTARTED\tERROR")
	for _, run := range runs {
		errMsg := ""
		if run.Error != nil {
			errMsg = *run.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			run.ID, run.Workflow, run.Status, run.StartedAt.Format(time.RFC3339), errMsg)
	}
	return w.Flush()
}

func printStepEvents(cmd *cobra.Command, app *app, runID string) error {
	events, err := app.events.GetStepEvents(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No step events for this run")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tLEVEL\tDURATION\tMESSAGE")
	for _, event := range events {
		duration := "-"
		if event.DurationMS != nil {
			duration = (time.Duration(*event.DurationMS) * time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", event.Step, event.Level, duration, event.Message)
	}
	return w.Flush()
}
