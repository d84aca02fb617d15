// Package app provides the application context for thym-ctl.
// It allows dependency injection for testing.
package app

import (
	"sync"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/audit"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/config"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/cordova"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/errors"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/lock"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/logging"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/system"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/workspace"
)

// App holds the application dependencies
type App struct {
	// Config is the loaded configuration; nil until LoadConfig or WithConfig
	Config *config.Config

	// Runner launches the shells Cordova runs in
	Runner system.ProcessRunner

	// FS is used to resolve projects
	FS system.FileSystem

	// Locks serializes commands per project across every CLI the app creates
	Locks *lock.Registry

	// Audit records invocation history; derived from Config.StateDir if nil
	Audit *audit.Logger

	mu sync.Mutex
}

// Option is a function that configures the App
type Option func(*App)

// WithConfig sets the configuration
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithRunner sets a custom process runner
func WithRunner(r system.ProcessRunner) Option {
	return func(a *App) {
		a.Runner = r
	}
}

// WithFS sets a custom filesystem
func WithFS(fs system.FileSystem) Option {
	return func(a *App) {
		a.FS = fs
	}
}

// WithLocks sets a custom lock registry
func WithLocks(r *lock.Registry) Option {
	return func(a *App) {
		a.Locks = r
	}
}

// WithAudit sets a custom history logger
func WithAudit(l *audit.Logger) Option {
	return func(a *App) {
		a.Audit = l
	}
}

// New creates a new App with the given options.
func New(opts ...Option) *App {
	app := &App{}

	for _, opt := range opts {
		opt(app)
	}

	if app.Runner == nil {
		app.Runner = system.DefaultRunner()
	}
	if app.FS == nil {
		app.FS = system.DefaultFS()
	}
	if app.Locks == nil {
		app.Locks = lock.NewRegistry()
	}

	return app
}

// LoadConfig loads the configuration from path unless one is already set.
// An empty path selects the default location.
func (a *App) LoadConfig(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Config != nil {
		return nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return errors.ConfigError("failed to load configuration", err)
	}
	logging.Debug("configuration loaded", "executable", cfg.Executable, "shell", cfg.Shell, "state_dir", cfg.StateDir)
	a.Config = cfg
	return nil
}

// Settings returns the configuration, falling back to the defaults.
func (a *App) Settings() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Config == nil {
		a.Config = config.Default()
	}
	return a.Config
}

// History returns the invocation history logger.
func (a *App) History() *audit.Logger {
	cfg := a.Settings()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Audit == nil {
		a.Audit = audit.NewLogger(cfg.StateDir)
	}
	return a.Audit
}

// Resolver returns a project resolver rooted at root, or at the configured
// workspace directory when root is empty.
func (a *App) Resolver(root string) *workspace.Resolver {
	if root == "" {
		root = a.Settings().WorkspaceDir
	}
	return workspace.NewResolver(root, a.FS)
}

// CLIFor creates a Cordova CLI for project wired to the app's runner,
// lock registry and history.
func (a *App) CLIFor(project *workspace.Project, extra ...cordova.Option) (*cordova.CLI, error) {
	opts, err := cordova.ConfigOptions(a.Settings())
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		cordova.WithRunner(a.Runner),
		cordova.WithLocks(a.Locks),
		cordova.WithRecorder(a.History()),
	)
	return cordova.New(project, append(opts, extra...)...)
}

// Default is the default application instance
var Default = New()

// SetDefault sets the default application instance (used for testing)
func SetDefault(app *App) {
	Default = app
}

// ResetDefault resets to the default application instance
func ResetDefault() {
	Default = New()
}
