package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/cordova"
)

var platformCmd = &cobra.Command{
	Use:   "platform",
	Short: "Add or remove platforms",
}

// addRemoveFlags are the flags shared by the add and remove sub-commands.
type addRemoveFlags struct {
	save bool
	args string
}

// options returns the Cordova options for targets.
func (f *addRemoveFlags) options(targets []string) ([]string, error) {
	opts, err := commandOptions(targets, f.args)
	if err != nil {
		return nil, err
	}
	if f.save {
		opts = append(opts, cordova.OptionSave)
	}
	return opts, nil
}

// addRemoveCmdFlags holds the flags of every add and remove command.
var addRemoveCmdFlags []*addRemoveFlags

// newAddRemoveCmd builds "<verb> add|remove <targets>...".
func newAddRemoveCmd(verb cordova.Verb, sub cordova.SubCommand, noun, short string, run func(cli *cordova.CLI) func(context.Context, cordova.SubCommand, ...string) (*cordova.Result, error)) *cobra.Command {
	flags := &addRemoveFlags{}
	addRemoveCmdFlags = append(addRemoveCmdFlags, flags)
	c := &cobra.Command{
		Use:   string(sub) + " <" + noun + ">...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(args)
			if err != nil {
				return err
			}
			label := cordova.Command{Verb: verb, Sub: sub}.Label()
			return runOperation(cmd, label, func(ctx context.Context, cli *cordova.CLI) (*cordova.Result, error) {
				return run(cli)(ctx, sub, opts...)
			})
		},
	}
	c.Flags().BoolVar(&flags.save, "save", false, "Record the change in config.xml and package.json")
	c.Flags().StringVar(&flags.args, "args", "", "Extra options for cordova, split like a shell would")
	return c
}

func platformMethod(cli *cordova.CLI) func(context.Context, cordova.SubCommand, ...string) (*cordova.Result, error) {
	return cli.Platform
}

func init() {
	platformCmd.AddCommand(
		newAddRemoveCmd(cordova.VerbPlatform, cordova.Add, "platform", "Add platforms to the project", platformMethod),
		newAddRemoveCmd(cordova.VerbPlatform, cordova.Remove, "platform", "Remove platforms from the project", platformMethod),
	)
	rootCmd.AddCommand(platformCmd)
}
