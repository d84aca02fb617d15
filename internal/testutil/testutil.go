// Package testutil provides test utilities for integration tests
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/app"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/config"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/system"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/workspace"
)

// TestEnv holds the test environment
type TestEnv struct {
	T            *testing.T
	TmpDir       string
	WorkspaceDir string
	StateDir     string
	Config       *config.Config
	Runner       *system.MockRunner
	App          *app.App
	cleanup      func()
}

// NewTestEnv creates a new test environment with a mock process runner
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpDir := t.TempDir()
	workspaceDir := filepath.Join(tmpDir, "workspace")
	stateDir := filepath.Join(tmpDir, "state")

	for _, dir := range []string{workspaceDir, stateDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	cfg := config.Default()
	cfg.StateDir = stateDir
	cfg.WorkspaceDir = workspaceDir
	cfg.TerminateGrace = 0

	runner := system.NewMockRunner()

	testApp := app.New(
		app.WithConfig(cfg),
		app.WithRunner(runner),
		app.WithFS(system.DefaultFS()),
	)

	// Save original default and set test app
	originalDefault := app.Default
	app.SetDefault(testApp)

	env := &TestEnv{
		T:            t,
		TmpDir:       tmpDir,
		WorkspaceDir: workspaceDir,
		StateDir:     stateDir,
		Config:       cfg,
		Runner:       runner,
		App:          testApp,
		cleanup: func() {
			app.SetDefault(originalDefault)
		},
	}
	t.Cleanup(env.Cleanup)

	return env
}

// Cleanup restores the original app default
func (e *TestEnv) Cleanup() {
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
}

// AddProject creates a Cordova project in the workspace from the fixtures
// and returns its directory.
func (e *TestEnv) AddProject(name string) string {
	e.T.Helper()

	dir := filepath.Join(e.WorkspaceDir, name)
	if err := os.MkdirAll(filepath.Join(dir, "www"), 0755); err != nil {
		e.T.Fatalf("Failed to create project: %v", err)
	}
	files := map[string][]byte{
		workspace.ConfigXML:   ConfigXML(),
		workspace.PackageJSON: PackageJSON(),
	}
	for file, data := range files {
		if err := os.WriteFile(filepath.Join(dir, file), data, 0644); err != nil {
			e.T.Fatalf("Failed to write %s: %v", file, err)
		}
	}
	return dir
}

// Project resolves a project added with AddProject
func (e *TestEnv) Project(name string) *workspace.Project {
	e.T.Helper()

	p, err := e.App.Resolver("").Resolve(name)
	if err != nil {
		e.T.Fatalf("Failed to resolve project %s: %v", name, err)
	}
	return p
}

// Script sets the output every simulated shell prints
func (e *TestEnv) Script(lines ...string) {
	script := system.MockScript{}
	for _, l := range lines {
		script.Lines = append(script.Lines, system.MockLine{Stream: system.Stdout, Text: l})
	}
	e.Runner.Script = script
}
