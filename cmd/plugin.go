package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/cordova"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Add or remove plugins",
}

func pluginMethod(cli *cordova.CLI) func(context.Context, cordova.SubCommand, ...string) (*cordova.Result, error) {
	return cli.Plugin
}

func init() {
	pluginCmd.AddCommand(
		newAddRemoveCmd(cordova.VerbPlugin, cordova.Add, "plugin", "Add plugins by id, URL or path", pluginMethod),
		newAddRemoveCmd(cordova.VerbPlugin, cordova.Remove, "plugin", "Remove plugins by id", pluginMethod),
	)
	rootCmd.AddCommand(pluginCmd)
}
