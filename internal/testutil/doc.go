// Package testutil provides test fixtures and utilities.
//
// # Fixtures
//
// Fixtures are embedded using go:embed:
//
//	fixtures/valid_config.toml
//	fixtures/invalid_config.toml
//	fixtures/package.json
//	fixtures/config.xml
//
// Helper functions load and parse them:
//
//	cfg, err := testutil.ValidConfig()
//	cfg, err := testutil.InvalidConfig()
//	data := testutil.PackageJSON()
//
// # Test Environment
//
// NewTestEnv builds an app.App over a temporary workspace and state
// directory with a system.MockRunner, and installs it as app.Default for
// the duration of the test:
//
//	env := testutil.NewTestEnv(t)
//	env.AddProject("demo")
//	env.Script("Error: plugin not found")
//	cli, _ := env.App.CLIFor(env.Project("demo"))
package testutil
