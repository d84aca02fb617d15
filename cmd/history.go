package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/app"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/audit"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display the Cordova commands run for the project",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var (
	historyOutput string
	historyLimit  int
	historyClear  bool
	historyAll    bool
)

func init() {
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", outputText, "Output format: text or json (one event per line)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Show only the last N events (0 = all)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Delete the project's history")
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "Include commands run in other checkouts with the same project name")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := checkOutputFormat(historyOutput); err != nil {
		return err
	}
	project, err := resolveProject()
	if err != nil {
		return err
	}
	history := app.Default.History()

	if historyClear {
		if err := history.Remove(project.Key()); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		logSuccess("History cleared for %s", project.Name)
		return nil
	}

	events, err := history.Events(project.Key())
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if !historyAll {
		events = audit.InDir(events, project.Dir)
	}

	if len(events) == 0 {
		logInfo("No commands recorded for project %s", project.Name)
		return nil
	}

	out := cmd.OutOrStdout()
	for _, e := range audit.Last(events, historyLimit) {
		if historyOutput == outputJSON {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to marshal event: %w", err)
			}
			fmt.Fprintln(out, string(data))
			continue
		}

		ts := e.Timestamp.Local().Format("2006-01-02 15:04:05")
		line := fmt.Sprintf("[%s] %-9s %-20s %s", ts, e.Type, e.Command, shortID(e.Invocation))
		if e.Type.Terminal() && e.Duration > 0 {
			line += fmt.Sprintf(" (%s)", e.Duration.Round(time.Millisecond))
		}
		fmt.Fprintln(out, line)
		if e.Details != "" {
			fmt.Fprintf(out, "    %s\n", e.Details)
		}
	}

	return nil
}

// shortID abbreviates an invocation id for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
