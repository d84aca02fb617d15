package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/app"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the platforms and plugins installed in the project",
	Args:  cobra.NoArgs,
	RunE:  runLs,
}

var lsOutput string

func init() {
	lsCmd.Flags().StringVarP(&lsOutput, "output", "o", outputText, "Output format: text or json")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	if err := checkOutputFormat(lsOutput); err != nil {
		return err
	}
	project, err := resolveProject()
	if err != nil {
		return err
	}

	installed, err := app.Default.Resolver(workspaceDir).Installed(project)
	if err != nil {
		return fmt.Errorf("failed to read installed platforms and plugins: %w", err)
	}

	out := cmd.OutOrStdout()
	if lsOutput == outputJSON {
		data, err := json.MarshalIndent(struct {
			Project   string   `json:"project"`
			Dir       string   `json:"dir"`
			Package   string   `json:"package,omitempty"`
			Platforms []string `json:"platforms"`
			Plugins   []string `json:"plugins"`
		}{project.Name, project.Dir, project.PackageName, nonNil(installed.Platforms), nonNil(installed.Plugins)}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal listing: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "Project:   %s\n", project.Name)
	fmt.Fprintf(out, "Directory: %s\n", project.Dir)
	if project.PackageName != "" {
		fmt.Fprintf(out, "Package:   %s\n", project.PackageName)
	}
	fmt.Fprintf(out, "Platforms: %s\n", listOrNone(installed.Platforms))
	fmt.Fprintf(out, "Plugins:   %s\n", listOrNone(installed.Plugins))
	return nil
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
