// Package app provides the application context for thym-ctl.
//
// This package manages application-wide dependencies using the functional
// options pattern, enabling easy testing through dependency injection.
//
// # App Context
//
// The App struct holds core dependencies:
//
//	type App struct {
//	    Config *config.Config         // Loaded configuration
//	    Runner system.ProcessRunner   // Shell launcher
//	    FS     system.FileSystem      // Project resolution
//	    Locks  *lock.Registry         // Per-project command locks
//	    Audit  *audit.Logger          // Invocation history
//	}
//
// One App owns one lock registry, so every CLI it creates with CLIFor is
// serialized against the others for the same project.
//
// # Creating an App
//
//	// Production usage
//	a := app.New()
//	if err := a.LoadConfig(""); err != nil { ... }
//
//	// Testing with custom dependencies
//	a := app.New(
//	    app.WithConfig(cfg),
//	    app.WithRunner(system.NewMockRunner()),
//	)
//
// # Available Options
//
//	WithConfig(cfg)     // Configuration, skips loading config.toml
//	WithRunner(runner)  // Custom process runner
//	WithFS(fs)          // Custom filesystem
//	WithLocks(registry) // Shared lock registry
//	WithAudit(logger)   // Custom history location
package app
