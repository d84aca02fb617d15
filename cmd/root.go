package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/app"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/logging"
)

var (
	verbose      bool
	jsonOutput   bool
	configPath   string
	workspaceDir string
	projectName  string
	noProgress   bool
)

var rootCmd = &cobra.Command{
	Use:   "thym-ctl",
	Short: "Cordova CLI runner for Cordova projects",
	Long: `thym-ctl runs Cordova CLI commands (build, prepare, platform, plugin)
for Cordova projects in a workspace.

Each command runs in a login shell in the project directory. Commands for
the same project never overlap; a failure reported in Cordova's output is
returned as an error, and Ctrl+C terminates the running command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(verbose, jsonOutput, os.Stderr)
		return app.Default.LoadConfig(configPath)
	},
}

// Execute runs the root command; SIGINT and SIGTERM cancel the running
// operation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default: $XDG_CONFIG_HOME/thym/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "workspace", "w", "", "Workspace directory holding the projects")
	rootCmd.PersistentFlags().StringVarP(&projectName, "project", "p", "", "Project name inside the workspace (default: project containing the current directory)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "Stream Cordova output instead of showing a progress view")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
