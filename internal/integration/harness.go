package integration

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/app"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/config"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/cordova"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/system"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/workspace"
)

// InvocationLog is the file, inside the project directory, where the fake
// CLI records "start <args>" and "end <args>" lines.
const InvocationLog = ".cordova-invocations"

// fakeCordova mimics the Cordova CLI:
//   - "plugin add missing" fails with an error on stderr
//   - --wait sleeps for a second, --hang for a minute
const fakeCordova = `#!/bin/sh
log="$PWD/` + InvocationLog + `"
echo "start $*" >> "$log"
echo "cordova $*"
case "$1 $2 $3" in
  "plugin add missing"*)
    echo "Error: Plugin not found in registry" >&2
    echo "end $*" >> "$log"
    exit 1
    ;;
esac
case " $* " in
  *" --hang "*) sleep 60 ;;
  *" --wait "*) sleep 1 ;;
esac
echo "end $*" >> "$log"
`

// TestHarness provides utilities for integration testing with real shells.
type TestHarness struct {
	t            *testing.T
	tempDir      string
	workspaceDir string
	cfg          *config.Config
	app          *app.App
}

// NewHarness creates a new test harness.
// It will skip the test if integration tests cannot or should not run.
func NewHarness(t *testing.T) *TestHarness {
	t.Helper()

	if testing.Short() || os.Getenv("THYM_SKIP_INTEGRATION_TESTS") != "" {
		t.Skip("integration tests disabled")
	}
	if runtime.GOOS == "windows" {
		t.Skip("integration tests need a POSIX shell")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}

	tempDir := t.TempDir()
	binDir := filepath.Join(tempDir, "bin")
	workspaceDir := filepath.Join(tempDir, "workspace")
	stateDir := filepath.Join(tempDir, "state")

	for _, dir := range []string{binDir, workspaceDir, stateDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	executable := filepath.Join(binDir, "cordova")
	if err := os.WriteFile(executable, []byte(fakeCordova), 0755); err != nil {
		t.Fatalf("Failed to write fake cordova: %v", err)
	}

	cfg := config.Default()
	cfg.Executable = executable
	cfg.Shell = "/bin/sh"
	cfg.StateDir = stateDir
	cfg.WorkspaceDir = workspaceDir
	cfg.TerminateGrace = 5 * time.Second

	h := &TestHarness{
		t:            t,
		tempDir:      tempDir,
		workspaceDir: workspaceDir,
		cfg:          cfg,
		app: app.New(
			app.WithConfig(cfg),
			app.WithRunner(system.NewOSRunner()),
		),
	}

	return h
}

// Config returns the harness configuration.
func (h *TestHarness) Config() *config.Config {
	return h.cfg
}

// App returns the application wired to real shells.
func (h *TestHarness) App() *app.App {
	return h.app
}

// CreateProject creates a minimal Cordova project in the workspace.
func (h *TestHarness) CreateProject(name string) *workspace.Project {
	h.t.Helper()

	dir := filepath.Join(h.workspaceDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		h.t.Fatalf("Failed to create project: %v", err)
	}
	configXML := `<?xml version="1.0" encoding="utf-8"?>
<widget id="io.thym.` + name + `" version="1.0.0" xmlns="http://www.w3.org/ns/widgets"><name>` + name + `</name></widget>
`
	if err := os.WriteFile(filepath.Join(dir, workspace.ConfigXML), []byte(configXML), 0644); err != nil {
		h.t.Fatalf("Failed to write config.xml: %v", err)
	}

	p, err := h.app.Resolver("").Resolve(name)
	if err != nil {
		h.t.Fatalf("Failed to resolve project: %v", err)
	}
	return p
}

// CLI returns a Cordova CLI for project.
func (h *TestHarness) CLI(project *workspace.Project, opts ...cordova.Option) *cordova.CLI {
	h.t.Helper()

	cli, err := h.app.CLIFor(project, opts...)
	if err != nil {
		h.t.Fatalf("Failed to create CLI: %v", err)
	}
	return cli
}

// Invocations returns the lines the fake CLI logged for project.
func (h *TestHarness) Invocations(project *workspace.Project) []string {
	h.t.Helper()

	data, err := os.ReadFile(filepath.Join(project.Dir, InvocationLog))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		h.t.Fatalf("Failed to read invocation log: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

// WaitForInvocation waits until the fake CLI has logged at least n lines.
func (h *TestHarness) WaitForInvocation(project *workspace.Project, n int, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if len(h.Invocations(project)) >= n {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
