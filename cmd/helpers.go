package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/app"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/cordova"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/errors"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/logging"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/system"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/tui"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/workspace"
)

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
)

// Output formats accepted by --output
const (
	outputText = "text"
	outputJSON = "json"
)

func checkOutputFormat(format string) error {
	if format != outputText && format != outputJSON {
		return errors.ValidationError(fmt.Sprintf("unknown output format %q (want text or json)", format))
	}
	return nil
}

// isInteractive reports whether the progress view can be drawn.
var isInteractive = func() bool {
	return term.IsTerminal(int(os.Stderr.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

// resolveProject finds the project named by --project, or the project
// containing the current directory.
func resolveProject() (*workspace.Project, error) {
	r := app.Default.Resolver(workspaceDir)

	if projectName != "" {
		p, err := r.Resolve(projectName)
		if err != nil {
			if errors.Is(err, workspace.ErrNotFound) || errors.Is(err, workspace.ErrNotCordovaProject) {
				return nil, errors.ProjectNotFound(projectName)
			}
			return nil, errors.ValidationError(err.Error())
		}
		return p, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	p, err := r.Discover(cwd)
	if err != nil {
		return nil, errors.Wrap(errors.ExitProjectNotFound, "no Cordova project here; use --project", err)
	}
	return p, nil
}

// commandOptions joins positional options with the shell-split --args value.
func commandOptions(args []string, extra string) ([]string, error) {
	opts := append([]string(nil), args...)
	if extra == "" {
		return opts, nil
	}
	split, err := shellquote.Split(extra)
	if err != nil {
		return nil, errors.ValidationError(fmt.Sprintf("invalid --args: %v", err))
	}
	return append(opts, split...), nil
}

// lineWriter prints output lines one at a time from both stream readers.
type lineWriter struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer
}

func (w *lineWriter) line(stream system.Stream, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if stream == system.Stderr {
		fmt.Fprintln(w.err, text)
		return
	}
	fmt.Fprintln(w.out, text)
}

// operation invokes one CLI method.
type operation func(ctx context.Context, cli *cordova.CLI) (*cordova.Result, error)

// runOperation resolves the project and runs op, behind the progress view
// on interactive terminals and with streamed output otherwise.
func runOperation(cmd *cobra.Command, label string, op operation) error {
	project, err := resolveProject()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	run := func(ctx context.Context, onLine func(system.Stream, string)) (*cordova.Result, error) {
		cli, err := app.Default.CLIFor(project, cordova.WithOutput(onLine))
		if err != nil {
			return nil, err
		}
		return op(ctx, cli)
	}

	var res *cordova.Result
	progress := !noProgress && !verbose && !jsonOutput && isInteractive()
	if progress {
		res, err = tui.RunProgress(ctx, cmd.ErrOrStderr(), label, project.Name, run)
	} else {
		w := &lineWriter{out: cmd.OutOrStdout(), err: cmd.ErrOrStderr()}
		res, err = run(ctx, w.line)
	}

	if err != nil {
		if progress && res != nil && errors.IsCommandExecution(err) {
			fmt.Fprint(cmd.ErrOrStderr(), res.Output)
		}
		return err
	}

	if res.State == cordova.StateCancelled {
		logWarning("%s cancelled for %s", label, project.Name)
		return errors.Cancelled(label)
	}

	logSuccess("%s completed for %s (%s)", label, project.Name, res.Duration.Round(time.Millisecond))
	return nil
}
