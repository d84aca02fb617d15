package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/app"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration thym-ctl runs with, as TOML.

The output can be saved as ` + config.ConfigFileName + ` and edited.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

var configPathOnly bool

func init() {
	configCmd.Flags().BoolVar(&configPathOnly, "path", false, "Print only the default config file location")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if configPathOnly {
		fmt.Fprintln(out, config.DefaultConfigPath())
		return nil
	}

	data, err := app.Default.Settings().Encode()
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
