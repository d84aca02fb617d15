package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/cordova"
)

var buildCmd = &cobra.Command{
	Use:   "build [-- <cordova options>...]",
	Short: "Build the project for its installed platforms",
	Long: `Run "cordova build" in the project directory.

Options after -- are passed to Cordova unchanged:

  thym-ctl build -- android --release`,
	RunE: runBuild,
}

var buildArgs string

func init() {
	buildCmd.Flags().StringVar(&buildArgs, "args", "", "Extra options for cordova, split like a shell would")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	opts, err := commandOptions(args, buildArgs)
	if err != nil {
		return err
	}
	return runOperation(cmd, "cordova build", func(ctx context.Context, cli *cordova.CLI) (*cordova.Result, error) {
		return cli.Build(ctx, opts...)
	})
}
