// Package logging provides logging utilities for thym-ctl.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	log := logging.ForInvocation(project, "cordova build", id)
//	log.Debug("shell started", "pid", pid)
//	logging.Warn("terminate failed", "pid", pid, "error", err)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Running %s...", label)
//	logging.UserSuccess("Plugin %s added", id)
//	logging.UserWarning("%s cancelled", label)
//	logging.UserError("Cordova failed: %v", err)
//
// Output destinations (overridable through Stdout and Stderr):
//   - UserInfo, UserSuccess: stdout
//   - UserWarning, UserError: stderr
//
// # Status Indicators
//
// User functions prepend status indicators, colored with lipgloss:
//   - ℹ (info)
//   - ✓ (success)
//   - ⚠ (warning)
//   - ✗ (error)
package logging
