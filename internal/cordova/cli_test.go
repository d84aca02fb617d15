package cordova

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/audit"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/classifier"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/config"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/errors"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/lock"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/system"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/workspace"
)

func newTestCLI(t *testing.T, project *workspace.Project, runner *system.MockRunner, locks *lock.Registry, opts ...Option) *CLI {
	t.Helper()
	opts = append([]Option{WithRunner(runner), WithLocks(locks), WithTerminateGrace(time.Second)}, opts...)
	c, err := New(project, opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func demoProject(t *testing.T) *workspace.Project {
	return &workspace.Project{Name: "demo", Dir: t.TempDir()}
}

func TestNew_RequiresProject(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) should fail")
	}
	if _, err := New(&workspace.Project{}); err == nil {
		t.Error("New() with an unnamed project should fail")
	}
}

func TestCLI_PluginAddSucceeds(t *testing.T) {
	project := demoProject(t)
	runner := system.NewMockRunner()
	runner.Script = system.MockScript{Lines: []system.MockLine{
		{Stream: system.Stdout, Text: "Installing \"org.example.plugin\" for android"},
	}}
	locks := lock.NewRegistry()
	c := newTestCLI(t, project, runner, locks)

	res, err := c.Plugin(context.Background(), Add, "org.example.plugin", OptionSave)
	if err != nil {
		t.Fatalf("Plugin() error: %v", err)
	}
	if res.State != StateSucceeded {
		t.Errorf("State = %v, want succeeded", res.State)
	}
	if !strings.Contains(res.Output, "org.example.plugin") {
		t.Errorf("Output = %q, want the shell output", res.Output)
	}
	if res.ID == "" {
		t.Error("result should carry an invocation id")
	}

	proc, ok := runner.LastProcess()
	if !ok {
		t.Fatal("no shell was started")
	}
	want := []string{"cordova plugin add org.example.plugin --save\n", "exit\n"}
	got := proc.Input()
	if len(got) != len(want) {
		t.Fatalf("input = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("input[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if proc.Dir != project.Dir {
		t.Errorf("shell dir = %q, want %q", proc.Dir, project.Dir)
	}
	if proc.Spec.Path != "/bin/bash" || len(proc.Spec.Args) != 1 || proc.Spec.Args[0] != "-l" {
		t.Errorf("shell = %q %q, want /bin/bash -l", proc.Spec.Path, proc.Spec.Args)
	}
	if proc.Spec.Label != "cordova plugin add" {
		t.Errorf("shell label = %q", proc.Spec.Label)
	}
	if locks.Held("demo") {
		t.Error("project lock should be released")
	}
}

func TestCLI_Operations(t *testing.T) {
	tests := []struct {
		name string
		run  func(c *CLI) (*Result, error)
		want string
	}{
		{"build", func(c *CLI) (*Result, error) { return c.Build(context.Background()) }, "cordova build\n"},
		{"build with options", func(c *CLI) (*Result, error) { return c.Build(context.Background(), "android", "", "--release") }, "cordova build android --release\n"},
		{"prepare", func(c *CLI) (*Result, error) { return c.Prepare(context.Background(), "ios") }, "cordova prepare ios\n"},
		{"platform add", func(c *CLI) (*Result, error) { return c.Platform(context.Background(), Add, "android") }, "cordova platform add android\n"},
		{"platform remove", func(c *CLI) (*Result, error) { return c.Platform(context.Background(), Remove, "ios") }, "cordova platform remove ios\n"},
		{"plugin remove", func(c *CLI) (*Result, error) {
			return c.Plugin(context.Background(), Remove, "cordova-plugin-device", OptionSave)
		}, "cordova plugin remove cordova-plugin-device --save\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := system.NewMockRunner()
			c := newTestCLI(t, demoProject(t), runner, lock.NewRegistry())

			res, err := tt.run(c)
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if res.State != StateSucceeded {
				t.Errorf("State = %v, want succeeded", res.State)
			}
			proc, _ := runner.LastProcess()
			if in := proc.Input(); len(in) == 0 || in[0] != tt.want {
				t.Errorf("command = %q, want %q", in, tt.want)
			}
		})
	}
}

func TestCLI_CommandFailure(t *testing.T) {
	tests := []struct {
		name   string
		lines  []system.MockLine
		wantIn string
	}{
		{
			name:   "stdout error line",
			lines:  []system.MockLine{{Stream: system.Stdout, Text: "Error: plugin not found"}},
			wantIn: "plugin not found",
		},
		{
			name:   "stderr error line",
			lines:  []system.MockLine{{Stream: system.Stderr, Text: "CordovaError: Platform android already added."}},
			wantIn: "already added",
		},
		{
			name:   "missing cordova",
			lines:  []system.MockLine{{Stream: system.Stderr, Text: "bash: line 1: cordova: command not found"}},
			wantIn: "command not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := system.NewMockRunner()
			runner.Script = system.MockScript{Lines: tt.lines, ExitCode: 1}
			locks := lock.NewRegistry()
			c := newTestCLI(t, demoProject(t), runner, locks)

			res, err := c.Plugin(context.Background(), Add, "demo")
			if !errors.IsCommandExecution(err) {
				t.Fatalf("error = %v, want CommandExecutionError", err)
			}
			if !strings.Contains(err.Error(), tt.wantIn) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantIn)
			}
			if res == nil || res.State != StateFailed {
				t.Errorf("result = %+v, want failed", res)
			}
			if locks.Held("demo") {
				t.Error("project lock should be released after a failure")
			}
		})
	}
}

func TestCLI_MultipleFailureLinesJoined(t *testing.T) {
	runner := system.NewMockRunner()
	runner.Script = system.MockScript{Lines: []system.MockLine{
		{Stream: system.Stdout, Text: "Error: first"},
		{Stream: system.Stdout, Text: "fine"},
		{Stream: system.Stdout, Text: "Error: second"},
	}}
	c := newTestCLI(t, demoProject(t), runner, lock.NewRegistry())

	_, err := c.Build(context.Background())
	if err == nil || err.Error() != "Error: first\nError: second" {
		t.Errorf("error = %v, want both failure lines", err)
	}
}

func TestCLI_NonZeroExitWithoutErrorLinesSucceeds(t *testing.T) {
	runner := system.NewMockRunner()
	runner.Script = system.MockScript{ExitCode: 1}
	c := newTestCLI(t, demoProject(t), runner, lock.NewRegistry())

	res, err := c.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if res.State != StateSucceeded {
		t.Errorf("State = %v, want succeeded", res.State)
	}
}

func TestCLI_LaunchFailure(t *testing.T) {
	runner := system.NewMockRunner()
	runner.StartErr = fmt.Errorf("exec: \"/bin/bash\": file does not exist")
	locks := lock.NewRegistry()
	c := newTestCLI(t, demoProject(t), runner, locks)

	res, err := c.Build(context.Background())
	if !errors.IsLaunchError(err) {
		t.Fatalf("error = %v, want LaunchError", err)
	}
	if res.State != StateFailed {
		t.Errorf("State = %v, want failed", res.State)
	}
	if locks.Held("demo") {
		t.Error("project lock should be released after a launch failure")
	}
}

func TestCLI_WriteFailure(t *testing.T) {
	runner := system.NewMockRunner()
	runner.Script = system.MockScript{WriteErr: fmt.Errorf("broken pipe")}
	locks := lock.NewRegistry()
	c := newTestCLI(t, demoProject(t), runner, locks)

	_, err := c.Prepare(context.Background())
	if !errors.IsFatalIO(err) {
		t.Fatalf("error = %v, want FatalIOError", err)
	}
	proc, _ := runner.LastProcess()
	if proc.TerminateCalls() != 1 {
		t.Errorf("Terminate called %d times, want 1", proc.TerminateCalls())
	}
	if locks.Held("demo") {
		t.Error("project lock should be released after a write failure")
	}
}

func TestCLI_Cancellation(t *testing.T) {
	runner := system.NewMockRunner()
	runner.Script = system.MockScript{
		Lines: []system.MockLine{{Stream: system.Stdout, Text: "Compiling..."}},
		Hang:  true,
	}
	locks := lock.NewRegistry()
	c := newTestCLI(t, demoProject(t), runner, locks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := c.Build(ctx)
		done <- outcome{res, err}
	}()

	waitFor(t, "shell to receive exit", func() bool {
		proc, ok := runner.LastProcess()
		return ok && len(proc.Input()) == 2
	})
	cancel()

	select {
	case out := <-done:
		if out.err != nil {
			t.Fatalf("Build() error = %v, want nil on cancellation", out.err)
		}
		if out.res.State != StateCancelled {
			t.Errorf("State = %v, want cancelled", out.res.State)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Build() did not return after cancellation")
	}

	proc, _ := runner.LastProcess()
	if proc.TerminateCalls() != 1 {
		t.Errorf("Terminate called %d times, want 1", proc.TerminateCalls())
	}
	if !proc.Terminated() {
		t.Error("shell should be terminated")
	}
	if locks.Held("demo") {
		t.Error("project lock should be released after cancellation")
	}
}

func TestCLI_CancelledBeforeStart(t *testing.T) {
	runner := system.NewMockRunner()
	c := newTestCLI(t, demoProject(t), runner, lock.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := c.Build(ctx)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if res.State != StateCancelled {
		t.Errorf("State = %v, want cancelled", res.State)
	}
	if runner.StartCount() != 0 {
		t.Errorf("started %d shells, want 0", runner.StartCount())
	}
}

func TestCLI_CancelledWhileWaitingForLock(t *testing.T) {
	runner := system.NewMockRunner()
	locks := lock.NewRegistry()
	c := newTestCLI(t, demoProject(t), runner, locks)

	held, ok := locks.TryAcquire("demo")
	if !ok {
		t.Fatal("TryAcquire failed")
	}
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res, err := c.Build(ctx)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if res.State != StateCancelled {
		t.Errorf("State = %v, want cancelled", res.State)
	}
	if runner.StartCount() != 0 {
		t.Error("no shell should start without the project lock")
	}
}

func TestCLI_SameProjectSerialized(t *testing.T) {
	runner := system.NewMockRunner()
	runner.Script = system.MockScript{Delay: 10 * time.Millisecond}
	locks := lock.NewRegistry()
	project := demoProject(t)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		// Separate CLIs sharing a registry still serialize.
		c := newTestCLI(t, project, runner, locks)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Build(context.Background()); err != nil {
				t.Errorf("Build() error: %v", err)
			}
		}()
	}
	wg.Wait()

	if runner.StartCount() != 5 {
		t.Errorf("started %d shells, want 5", runner.StartCount())
	}
	if got := runner.MaxConcurrent(); got != 1 {
		t.Errorf("max concurrent shells = %d, want 1", got)
	}
}

func TestCLI_DistinctProjectsRunConcurrently(t *testing.T) {
	runner := system.NewMockRunner()
	runner.Script = system.MockScript{Hang: true}
	locks := lock.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for _, name := range []string{"alpha", "beta"} {
		c := newTestCLI(t, &workspace.Project{Name: name, Dir: t.TempDir()}, runner, locks)
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Build(ctx)
		}()
	}

	waitFor(t, "both shells to start", func() bool { return runner.StartCount() == 2 })
	cancel()
	wg.Wait()

	if got := runner.MaxConcurrent(); got != 2 {
		t.Errorf("max concurrent shells = %d, want 2", got)
	}
}

func TestCLI_InvalidSubCommand(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{"plugin without sub", Command{Verb: VerbPlugin}},
		{"platform with bogus sub", Command{Verb: VerbPlatform, Sub: "update"}},
		{"build with sub", Command{Verb: VerbBuild, Sub: Add}},
		{"unknown verb", Command{Verb: "serve"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := system.NewMockRunner()
			c := newTestCLI(t, demoProject(t), runner, lock.NewRegistry())

			if _, err := c.Run(context.Background(), tt.cmd); err == nil {
				t.Error("Run() should reject the command")
			}
			if runner.StartCount() != 0 {
				t.Error("no shell should start for an invalid command")
			}
		})
	}
}

func TestCLI_UnspecifiedWorkingDir(t *testing.T) {
	runner := system.NewMockRunner()
	c := newTestCLI(t, &workspace.Project{Name: "detached"}, runner, lock.NewRegistry())

	if _, err := c.Build(context.Background()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	proc, _ := runner.LastProcess()
	if proc.Dir != "" {
		t.Errorf("shell dir = %q, want empty", proc.Dir)
	}
}

func TestCLI_ConfigOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Executable = "/opt/cordova/bin/cordova"
	cfg.Shell = "/bin/sh -e"
	cfg.Classifier.ErrorPatterns = []string{`^FAILED`}

	opts, err := ConfigOptions(cfg)
	if err != nil {
		t.Fatalf("ConfigOptions() error: %v", err)
	}

	runner := system.NewMockRunner()
	runner.Script = system.MockScript{Lines: []system.MockLine{
		{Stream: system.Stdout, Text: "Error: ignored by this rule set"},
	}}
	c := newTestCLI(t, demoProject(t), runner, lock.NewRegistry(), opts...)

	if _, err := c.Build(context.Background()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	proc, _ := runner.LastProcess()
	if proc.Spec.Path != "/bin/sh" || len(proc.Spec.Args) != 1 || proc.Spec.Args[0] != "-e" {
		t.Errorf("shell = %q %q, want /bin/sh -e", proc.Spec.Path, proc.Spec.Args)
	}
	if in := proc.Input(); in[0] != "/opt/cordova/bin/cordova build\n" {
		t.Errorf("command = %q", in[0])
	}
}

func TestConfigOptions_Invalid(t *testing.T) {
	cfg := config.Default()
	cfg.Shell = `/bin/sh "unterminated`
	if _, err := ConfigOptions(cfg); err == nil {
		t.Error("ConfigOptions() should reject an unparsable shell")
	}

	cfg = config.Default()
	cfg.Classifier.ErrorPatterns = []string{"("}
	if _, err := ConfigOptions(cfg); err == nil {
		t.Error("ConfigOptions() should reject an invalid pattern")
	}
}

func TestCLI_CustomStrategy(t *testing.T) {
	runner := system.NewMockRunner()
	runner.Script = system.MockScript{Lines: []system.MockLine{
		{Stream: system.Stdout, Text: "BUILD FAILED"},
	}}
	strategy := classifier.StrategyFunc(func(line string) bool {
		return strings.Contains(line, "FAILED")
	})
	c := newTestCLI(t, demoProject(t), runner, lock.NewRegistry(), WithStrategy(strategy))

	_, err := c.Build(context.Background())
	if !errors.IsCommandExecution(err) {
		t.Errorf("error = %v, want CommandExecutionError", err)
	}
}

func TestCLI_OutputTee(t *testing.T) {
	runner := system.NewMockRunner()
	runner.Script = system.MockScript{Lines: []system.MockLine{
		{Stream: system.Stdout, Text: "one"},
		{Stream: system.Stderr, Text: "two"},
	}}

	var mu sync.Mutex
	var seen []string
	tee := func(stream system.Stream, line string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, stream.String()+":"+line)
	}
	c := newTestCLI(t, demoProject(t), runner, lock.NewRegistry(), WithOutput(tee))

	if _, err := c.Build(context.Background()); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != "stdout:one" || seen[1] != "stderr:two" {
		t.Errorf("tee saw %q", seen)
	}
}

func TestCLI_RecordsHistory(t *testing.T) {
	history := audit.NewLogger(t.TempDir())

	runner := system.NewMockRunner()
	runner.Scripts = []system.MockScript{
		{},
		{Lines: []system.MockLine{{Stream: system.Stdout, Text: "Error: plugin not found"}}},
	}
	project := demoProject(t)
	c := newTestCLI(t, project, runner, lock.NewRegistry(), WithRecorder(history))
	ids := []string{"first", "second"}
	c.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	c.Build(context.Background())
	c.Plugin(context.Background(), Add, "missing")

	events, err := history.Events("demo")
	if err != nil {
		t.Fatalf("Events() error: %v", err)
	}

	want := []struct {
		typ        audit.EventType
		invocation string
		command    string
	}{
		{audit.EventStart, "first", "cordova build"},
		{audit.EventSucceeded, "first", "cordova build"},
		{audit.EventStart, "second", "cordova plugin add"},
		{audit.EventFailed, "second", "cordova plugin add"},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, w := range want {
		e := events[i]
		if e.Type != w.typ || e.Invocation != w.invocation || e.Command != w.command {
			t.Errorf("event %d = %s/%s/%s, want %s/%s/%s", i, e.Type, e.Invocation, e.Command, w.typ, w.invocation, w.command)
		}
		if e.Dir != project.Dir {
			t.Errorf("event %d dir = %q, want %q", i, e.Dir, project.Dir)
		}
	}
	if events[3].Details != "Error: plugin not found" {
		t.Errorf("failure details = %q", events[3].Details)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateSucceeded, "succeeded"},
		{StateFailed, "failed"},
		{StateCancelled, "cancelled"},
		{State(9), "State(9)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

// cancelAfterExitRunner starts mock shells whose context is cancelled right
// after they have exited.
type cancelAfterExitRunner struct {
	*system.MockRunner
	cancel context.CancelFunc
}

func (r cancelAfterExitRunner) Start(ctx context.Context, spec system.ShellSpec, dir string, listener system.OutputListener) (system.Process, error) {
	p, err := r.MockRunner.Start(ctx, spec, dir, listener)
	if err != nil {
		return nil, err
	}
	return cancelAfterExit{Process: p, cancel: r.cancel}, nil
}

type cancelAfterExit struct {
	system.Process
	cancel context.CancelFunc
}

func (p cancelAfterExit) Write(s string) error {
	if err := p.Process.Write(s); err != nil {
		return err
	}
	if s == "exit\n" {
		<-p.Done()
		p.cancel()
	}
	return nil
}

func TestCLI_ExitBeforeCancellationIsClassified(t *testing.T) {
	tests := []struct {
		name      string
		lines     []system.MockLine
		wantState State
		wantErr   bool
	}{
		{"failure output", []system.MockLine{{Stream: system.Stderr, Text: "Error: plugin not found"}}, StateFailed, true},
		{"clean output", []system.MockLine{{Stream: system.Stdout, Text: "Installed plugin"}}, StateSucceeded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			mock := system.NewMockRunner()
			mock.Script = system.MockScript{Lines: tt.lines}
			c, err := New(demoProject(t), WithRunner(cancelAfterExitRunner{MockRunner: mock, cancel: cancel}), WithLocks(lock.NewRegistry()))
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}

			res, err := c.Plugin(ctx, Add, "x")
			if ctx.Err() == nil {
				t.Fatal("context should be cancelled by the time Plugin returns")
			}
			if res.State != tt.wantState {
				t.Errorf("State = %v, want %v", res.State, tt.wantState)
			}
			if tt.wantErr && !errors.IsCommandExecution(err) {
				t.Errorf("error = %v, want CommandExecutionError", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("error = %v, want nil", err)
			}

			proc, _ := mock.LastProcess()
			if proc.TerminateCalls() != 0 {
				t.Error("an exited shell should not be terminated")
			}
		})
	}
}

func TestCLI_CancellationKillsStubbornShell(t *testing.T) {
	runner := system.NewMockRunner()
	runner.Script = system.MockScript{Hang: true, IgnoreTerminate: true}
	locks := lock.NewRegistry()
	c := newTestCLI(t, demoProject(t), runner, locks, WithTerminateGrace(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan *Result, 1)
	go func() {
		res, _ := c.Build(ctx)
		done <- res
	}()

	waitFor(t, "shell to receive exit", func() bool {
		proc, ok := runner.LastProcess()
		return ok && len(proc.Input()) == 2
	})
	cancel()

	var res *Result
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Build() did not return after cancellation")
	}
	if res.State != StateCancelled {
		t.Errorf("State = %v, want cancelled", res.State)
	}

	proc, _ := runner.LastProcess()
	if proc.TerminateCalls() != 1 || proc.KillCalls() != 1 {
		t.Errorf("Terminate/Kill calls = %d/%d, want 1/1", proc.TerminateCalls(), proc.KillCalls())
	}
	if !proc.Terminated() {
		t.Error("shell should be dead before Build returns")
	}
	if locks.Held("demo") {
		t.Error("lock should be released")
	}
}
