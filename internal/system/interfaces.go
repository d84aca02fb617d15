// Package system provides abstractions for OS operations to enable testing.
package system

import (
	"context"
	"io/fs"
	"os"
)

// FileSystem abstracts the read-only file system queries used to locate projects.
type FileSystem interface {
	// ReadFile reads the named file and returns the contents.
	ReadFile(path string) ([]byte, error)

	// Stat returns file info for the named file.
	Stat(path string) (fs.FileInfo, error)

	// Exists returns true if the path exists.
	Exists(path string) bool

	// IsDir returns true if the path is a directory.
	IsDir(path string) bool
}

// Stream identifies which output stream of a process produced a line.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// OutputListener receives process output one line at a time.
// Lines from one stream arrive in order and never concurrently with each
// other; lines from stdout and stderr may arrive concurrently.
type OutputListener interface {
	OnLine(stream Stream, line string)
}

// ListenerFunc adapts a function to OutputListener.
type ListenerFunc func(stream Stream, line string)

func (f ListenerFunc) OnLine(stream Stream, line string) { f(stream, line) }

// ShellSpec describes the shell to launch.
type ShellSpec struct {
	// Path is the shell executable, e.g. /bin/bash.
	Path string

	// Args are passed to the shell, e.g. ["-l"].
	Args []string

	// Env holds extra KEY=VALUE entries appended to the inherited environment.
	Env []string

	// Label is a human readable description used in logs.
	Label string
}

// Process is a running shell owned by a single operation.
type Process interface {
	// Pid returns the OS process id.
	Pid() int

	// Write sends text to the shell's standard input.
	Write(s string) error

	// Done is closed once the process has exited and all its output
	// has been delivered to the listener.
	Done() <-chan struct{}

	// Terminated reports whether Done has been closed.
	Terminated() bool

	// Terminate asks the process (and its children) to stop.
	Terminate() error

	// Kill forcibly stops the process and its children.
	Kill() error

	// ExitCode returns the exit status, or -1 while running.
	ExitCode() int
}

// ProcessRunner starts shells.
type ProcessRunner interface {
	// Start launches spec in dir (the current directory when dir is empty)
	// with its stdout and stderr wired to listener.
	Start(ctx context.Context, spec ShellSpec, dir string, listener OutputListener) (Process, error)
}

// Default instances using real OS operations.
var (
	defaultFS     FileSystem    = &osFileSystem{}
	defaultRunner ProcessRunner = NewOSRunner()
)

// DefaultFS returns the default FileSystem implementation using real OS operations.
func DefaultFS() FileSystem {
	return defaultFS
}

// DefaultRunner returns the default ProcessRunner implementation.
func DefaultRunner() ProcessRunner {
	return defaultRunner
}

// SetDefaultFS sets the default FileSystem (useful for testing).
func SetDefaultFS(fs FileSystem) {
	defaultFS = fs
}

// SetDefaultRunner sets the default ProcessRunner (useful for testing).
func SetDefaultRunner(r ProcessRunner) {
	defaultRunner = r
}

// ResetDefaults restores the default OS implementations.
func ResetDefaults() {
	defaultFS = &osFileSystem{}
	defaultRunner = NewOSRunner()
}

// osFileSystem implements FileSystem using real OS operations.
type osFileSystem struct{}

func (f *osFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (f *osFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (f *osFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (f *osFileSystem) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
