package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	shellquote "github.com/kballard/go-shellquote"
)

// projectNameRegex validates project names.
// Names must start with a letter or digit, followed by letters, digits, dots, underscores, or hyphens.
var projectNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateProjectName checks if a project name is valid.
// Valid names:
//   - Start with a letter or digit
//   - Contain only letters, digits, dots, underscores, or hyphens
//   - Are between 1 and 128 characters long
//   - Do not contain path separators
func ValidateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}

	if !projectNameRegex.MatchString(name) {
		return fmt.Errorf("invalid project name %q: must start with a letter or digit, contain only letters, digits, dots, underscores, or hyphens, and be at most 128 characters", name)
	}

	return nil
}

const (
	DefaultExecutable     = "cordova"
	DefaultShell          = "/bin/bash -l"
	DefaultTerminateGrace = 2 * time.Second
	ConfigFileName        = "config.toml"
	appDirName            = "thym"
)

// DefaultErrorPatterns are the output lines Cordova prints when a command fails.
// The set depends on the installed CLI version and is meant to be overridden in config.toml.
var DefaultErrorPatterns = []string{
	`^\s*Error:`,
	`CordovaError`,
	`^npm ERR!`,
	`cordova: command not found`,
}

// validate is shared; building a validator caches struct metadata.
var validate = validator.New()

// Config is the thym-ctl configuration loaded from config.toml
type Config struct {
	Executable     string           `toml:"executable" validate:"required"`
	Shell          string           `toml:"shell" validate:"required"`
	TerminateGrace time.Duration    `toml:"terminate_grace" validate:"gte=0"`
	StateDir       string           `toml:"state_dir" validate:"required"`
	WorkspaceDir   string           `toml:"workspace_dir,omitempty"`
	Classifier     ClassifierConfig `toml:"classifier"`
}

// ClassifierConfig holds the rules used to recognise failures in Cordova output
type ClassifierConfig struct {
	IgnoreCase    bool     `toml:"ignore_case"`
	ErrorPatterns []string `toml:"error_patterns" validate:"required,min=1,dive,required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Executable:     DefaultExecutable,
		Shell:          DefaultShell,
		TerminateGrace: DefaultTerminateGrace,
		StateDir:       defaultStateDir(),
		Classifier: ClassifierConfig{
			ErrorPatterns: append([]string(nil), DefaultErrorPatterns...),
		},
	}
}

// Validate checks that the Config is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if strings.ContainsAny(c.Executable, " \t\n") {
		return fmt.Errorf("executable %q must not contain whitespace; pass arguments as options", c.Executable)
	}

	if _, err := c.ShellArgs(); err != nil {
		return err
	}

	for _, p := range c.Classifier.ErrorPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid error pattern %q: %w", p, err)
		}
	}

	return nil
}

// ShellArgs splits the shell setting into the program and its arguments.
func (c *Config) ShellArgs() ([]string, error) {
	args, err := shellquote.Split(c.Shell)
	if err != nil {
		return nil, fmt.Errorf("invalid shell %q: %w", c.Shell, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("shell is required")
	}
	return args, nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/thym/config.toml.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(homeDir(), ".config")
	}
	return filepath.Join(dir, appDirName, ConfigFileName)
}

func defaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appDirName)
	}
	return filepath.Join(homeDir(), ".local", "state", appDirName)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return home
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// Load reads the configuration at path on top of the defaults.
// An empty path means DefaultConfigPath; a missing default file yields the defaults,
// while a missing explicit file is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	cfg := Default()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	cfg.StateDir = ExpandHome(cfg.StateDir)
	cfg.WorkspaceDir = ExpandHome(cfg.WorkspaceDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}
