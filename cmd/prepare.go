package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/cordova"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare [-- <cordova options>...]",
	Short: "Copy web assets and config into the platform projects",
	RunE:  runPrepare,
}

var prepareArgs string

func init() {
	prepareCmd.Flags().StringVar(&prepareArgs, "args", "", "Extra options for cordova, split like a shell would")
	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(cmd *cobra.Command, args []string) error {
	opts, err := commandOptions(args, prepareArgs)
	if err != nil {
		return err
	}
	return runOperation(cmd, "cordova prepare", func(ctx context.Context, cli *cordova.CLI) (*cordova.Result, error) {
		return cli.Prepare(ctx, opts...)
	})
}
