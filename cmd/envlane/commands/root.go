// Package commands implements the envlane CLI.
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	workspaceDir string
	templatesDir string
	playbooksDir string
	logLevel     string
	logFormat    string
	tofuBinary   string
)

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "envlane",
		Short: "envlane - environment lifecycle orchestrator",
		Long: `envlane provisions, configures, and runs application environments
through an explicit phase lifecycle:

  created -> provisioned -> configured -> released -> running -> destroyed

Each lifecycle command drives one workflow of ordered steps against the
environment and persists the resulting phase, so a failed workflow can be
retried and an environment can always report where it stands.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "workspace", "w", defaultWorkspace(), "workspace directory holding state, build artifacts, and the event log")
	rootCmd.PersistentFlags().StringVar(&templatesDir, "templates", "", "template pack directory (default <workspace>/templates)")
	rootCmd.PersistentFlags().StringVar(&playbooksDir, "playbooks", "", "playbook directory (default <workspace>/playbooks)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&tofuBinary, "tofu-binary", "tofu", "infrastructure binary to invoke (tofu or terraform)")

	rootCmd.AddCommand(newCreateCommand())
	rootCmd.AddCommand(newProvisionCommand())
	rootCmd.AddCommand(newRegisterCommand())
	rootCmd.AddCommand(newConfigureCommand())
	rootCmd.AddCommand(newReleaseCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newDestroyCommand())
	rootCmd.AddCommand(newPurgeCommand())
	rootCmd.AddCommand(newShowCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newRunsCommand())

	return rootCmd
}

func defaultWorkspace() string {
	if dir := os.Getenv("ENVLANE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".envlane"
	}
	return filepath.Join(home, ".envlane")
}
