// Package tui provides the terminal progress view for thym-ctl.
//
// While a Cordova command runs, RunProgress shows a spinner with the
// command label, the project and the most recent output line:
//
//	res, err := tui.RunProgress(ctx, os.Stderr, "cordova build", "demo",
//	    func(ctx context.Context, onLine func(system.Stream, string)) (*cordova.Result, error) {
//	        return cli.Build(ctx)
//	    })
//
// Ctrl+C, Esc or q cancel the context handed to the command. The view
// stays up until the command has returned, so a cancelled shell is
// always reaped before control goes back to the caller.
//
// # Dependencies
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - spinner component
//   - github.com/charmbracelet/lipgloss - Styling
package tui
