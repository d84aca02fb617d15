// Package config provides configuration types and loading for thym-ctl.
//
// # Configuration File
//
// Settings are read from $XDG_CONFIG_HOME/thym/config.toml. Every key is
// optional; unset keys keep their defaults and unknown keys are rejected.
//
//	executable = "cordova"
//	shell = "/bin/bash -l"
//	terminate_grace = "2s"
//	state_dir = "~/.local/state/thym"
//	workspace_dir = "~/workspace"
//
//	[classifier]
//	ignore_case = false
//	error_patterns = ['^\s*Error:', 'CordovaError', '^npm ERR!']
//
// The shell value is split with shell quoting rules, so arguments containing
// spaces can be quoted. Error patterns are regular expressions matched against
// each line of Cordova output; the matching set depends on the CLI version in
// use, which is why it lives in configuration.
//
// # Validation
//
// Load validates the decoded struct with go-playground/validator tags and
// additionally checks that the shell string parses and every pattern compiles.
// Project names are checked with ValidateProjectName before they are used to
// build paths or lock keys.
package config
