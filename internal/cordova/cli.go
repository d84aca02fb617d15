package cordova

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/audit"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/classifier"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/config"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/errors"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/lock"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/logging"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/system"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/workspace"
)

// State is the terminal state of an invocation.
type State int

const (
	StateSucceeded State = iota
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result describes a finished invocation.
type Result struct {
	// ID identifies the invocation in logs and history.
	ID       string
	Command  Command
	State    State
	Output   string
	Duration time.Duration
}

// Recorder receives invocation history events.
type Recorder interface {
	Log(event audit.Event) error
}

// CLI runs Cordova commands for one project.
//
// Each invocation holds the project's lock from before the shell starts
// until the shell has exited or been abandoned, so two commands for the
// same project never overlap. Commands for different projects run
// concurrently.
type CLI struct {
	project    *workspace.Project
	runner     system.ProcessRunner
	locks      *lock.Registry
	shell      system.ShellSpec
	executable string
	strategy   classifier.Strategy
	grace      time.Duration
	recorder   Recorder
	tee        func(stream system.Stream, line string)
	newID      func() string
}

// Option configures a CLI.
type Option func(*CLI)

// WithRunner sets the process runner.
func WithRunner(r system.ProcessRunner) Option {
	return func(c *CLI) {
		c.runner = r
	}
}

// WithLocks sets the lock registry. CLIs must share a registry for their
// invocations to be serialized against each other.
func WithLocks(r *lock.Registry) Option {
	return func(c *CLI) {
		c.locks = r
	}
}

// WithShell sets the shell the command is sent to.
func WithShell(spec system.ShellSpec) Option {
	return func(c *CLI) {
		c.shell = spec
	}
}

// WithExecutable sets the name the Cordova CLI is invoked by.
func WithExecutable(name string) Option {
	return func(c *CLI) {
		c.executable = name
	}
}

// WithStrategy sets how failure lines are recognised.
func WithStrategy(s classifier.Strategy) Option {
	return func(c *CLI) {
		c.strategy = s
	}
}

// WithTerminateGrace sets how long a cancelled shell is given to exit.
func WithTerminateGrace(d time.Duration) Option {
	return func(c *CLI) {
		c.grace = d
	}
}

// WithRecorder sets where invocation events are recorded.
func WithRecorder(r Recorder) Option {
	return func(c *CLI) {
		c.recorder = r
	}
}

// WithOutput forwards every output line to fn as it arrives.
func WithOutput(fn func(stream system.Stream, line string)) Option {
	return func(c *CLI) {
		c.tee = fn
	}
}

// ConfigOptions returns the options derived from cfg.
func ConfigOptions(cfg *config.Config) ([]Option, error) {
	args, err := cfg.ShellArgs()
	if err != nil {
		return nil, errors.ConfigError("invalid shell", err)
	}
	rules, err := classifier.FromConfig(cfg.Classifier)
	if err != nil {
		return nil, errors.ConfigError("invalid classifier rules", err)
	}
	return []Option{
		WithShell(system.ShellSpec{Path: args[0], Args: args[1:]}),
		WithExecutable(cfg.Executable),
		WithStrategy(rules),
		WithTerminateGrace(cfg.TerminateGrace),
	}, nil
}

// New creates a CLI for project.
func New(project *workspace.Project, opts ...Option) (*CLI, error) {
	if project == nil || project.Key() == "" {
		return nil, errors.ValidationError("a project is required")
	}
	c := &CLI{
		project:    project,
		shell:      system.ShellSpec{Path: "/bin/bash", Args: []string{"-l"}},
		executable: config.DefaultExecutable,
		grace:      config.DefaultTerminateGrace,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.runner == nil {
		c.runner = system.DefaultRunner()
	}
	if c.locks == nil {
		c.locks = lock.NewRegistry()
	}
	if c.strategy == nil {
		c.strategy = classifier.DefaultRuleSet()
	}
	return c, nil
}

// Project returns the project commands run for.
func (c *CLI) Project() *workspace.Project {
	return c.project
}

// Build runs "cordova build".
func (c *CLI) Build(ctx context.Context, options ...string) (*Result, error) {
	return c.Run(ctx, Command{Verb: VerbBuild, Options: options})
}

// Prepare runs "cordova prepare".
func (c *CLI) Prepare(ctx context.Context, options ...string) (*Result, error) {
	return c.Run(ctx, Command{Verb: VerbPrepare, Options: options})
}

// Platform runs "cordova platform add|remove".
func (c *CLI) Platform(ctx context.Context, sub SubCommand, options ...string) (*Result, error) {
	return c.Run(ctx, Command{Verb: VerbPlatform, Sub: sub, Options: options})
}

// Plugin runs "cordova plugin add|remove".
func (c *CLI) Plugin(ctx context.Context, sub SubCommand, options ...string) (*Result, error) {
	return c.Run(ctx, Command{Verb: VerbPlugin, Sub: sub, Options: options})
}

func validate(cmd Command) error {
	switch cmd.Verb {
	case VerbBuild, VerbPrepare:
		if cmd.Sub != NoSubCommand {
			return fmt.Errorf("%s takes no sub-command", cmd.Verb)
		}
	case VerbPlatform, VerbPlugin:
		if !cmd.Sub.Valid() {
			return fmt.Errorf("%s requires add or remove, got %q", cmd.Verb, cmd.Sub)
		}
	default:
		return fmt.Errorf("unknown cordova command %q", cmd.Verb)
	}
	return nil
}

// Run executes cmd in the project's working directory and waits for it.
//
// A cancelled ctx ends the invocation with StateCancelled and a nil error.
// Output the classifier recognises as a failure yields StateFailed and a
// CommandExecutionError carrying the failure lines.
func (c *CLI) Run(ctx context.Context, cmd Command) (*Result, error) {
	if err := validate(cmd); err != nil {
		return nil, errors.ValidationError(err.Error())
	}

	res := &Result{ID: c.newID(), Command: cmd}
	log := logging.ForInvocation(c.project.Key(), cmd.Label(), res.ID)
	started := time.Now()

	handle, err := c.locks.Acquire(ctx, c.project.Key())
	if err != nil {
		log.Info("cancelled while waiting for project lock", "error", err)
		res.State = StateCancelled
		res.Duration = time.Since(started)
		c.record(res, audit.EventCancelled, "cancelled while waiting for project lock")
		return res, nil
	}
	defer handle.Release()
	log.Debug("project lock acquired")
	c.record(res, audit.EventStart, "")

	err = c.execute(ctx, cmd, res, log)
	res.Duration = time.Since(started)

	switch {
	case res.State == StateCancelled:
		log.Info("command cancelled", "duration", res.Duration)
		c.record(res, audit.EventCancelled, "")
	case err != nil:
		log.Debug("command failed", "duration", res.Duration, "error", err)
		c.record(res, audit.EventFailed, err.Error())
	default:
		log.Debug("command succeeded", "duration", res.Duration)
		c.record(res, audit.EventSucceeded, "")
	}
	return res, err
}

// execute runs cmd while the project lock is held and fills in res.
func (c *CLI) execute(ctx context.Context, cmd Command, res *Result, log *slog.Logger) error {
	listener := classifier.NewListener(c.strategy, classifier.WithTee(c.tee))

	spec := c.shell
	spec.Label = cmd.Label()
	proc, err := c.runner.Start(ctx, spec, c.project.WorkingDir(), listener)
	if err != nil {
		if ctx.Err() != nil {
			res.State = StateCancelled
			return nil
		}
		res.State = StateFailed
		return errors.LaunchError(c.shell.Path, err)
	}
	log.Debug("shell started", "pid", proc.Pid(), "dir", c.project.WorkingDir())

	line := ComposeWith(c.executable, cmd.Verb, cmd.Sub, cmd.Options...)
	err = proc.Write(line)
	if err == nil {
		err = proc.Write("exit\n")
	}
	if err != nil {
		c.stop(proc, log)
		res.State = StateFailed
		res.Output = listener.Output()
		return errors.FatalIOError(err)
	}
	log.Debug("command sent", "line", line[:len(line)-1])

	select {
	case <-proc.Done():
	case <-ctx.Done():
	}

	// A shell that already exited is classified even if ctx was cancelled
	// in the meantime.
	if ctx.Err() != nil && !proc.Terminated() {
		log.Info("wait interrupted, terminating shell", "reason", ctx.Err())
		c.stop(proc, log)
		res.State = StateCancelled
		res.Output = listener.Output()
		return nil
	}

	res.Output = listener.Output()
	log.Debug("shell exited", "exit_code", proc.ExitCode())
	if msg := listener.ErrorMessage(); msg != "" {
		res.State = StateFailed
		return errors.CommandExecutionError(msg)
	}
	res.State = StateSucceeded
	return nil
}

// stop terminates proc and waits up to the grace period for it to exit.
// A shell still alive after that is killed, so the project lock is not
// released while it runs.
func (c *CLI) stop(proc system.Process, log *slog.Logger) {
	if proc.Terminated() {
		return
	}
	if err := proc.Terminate(); err != nil {
		log.Warn("failed to terminate shell", "pid", proc.Pid(), "error", err)
	}
	if c.awaitExit(proc) {
		return
	}

	log.Warn("shell ignored termination, killing it", "pid", proc.Pid(), "grace", c.grace)
	if err := proc.Kill(); err != nil {
		log.Warn("failed to kill shell", "pid", proc.Pid(), "error", err)
	}
	if !c.awaitExit(proc) {
		log.Warn("shell did not exit after kill", "pid", proc.Pid())
	}
}

// awaitExit waits up to the grace period for proc to exit.
func (c *CLI) awaitExit(proc system.Process) bool {
	if c.grace <= 0 {
		return proc.Terminated()
	}
	timer := time.NewTimer(c.grace)
	defer timer.Stop()
	select {
	case <-proc.Done():
		return true
	case <-timer.C:
		return false
	}
}

func (c *CLI) record(res *Result, eventType audit.EventType, details string) {
	if c.recorder == nil {
		return
	}
	err := c.recorder.Log(audit.Event{
		Type:       eventType,
		Project:    c.project.Key(),
		Dir:        c.project.Dir,
		Invocation: res.ID,
		Command:    res.Command.Label(),
		Duration:   res.Duration,
		Details:    details,
	})
	if err != nil {
		logging.Warn("failed to record invocation", "invocation", res.ID, "error", err)
	}
}
