package errors

import (
	"errors"
	"fmt"
)

// Exit codes for thym-ctl
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitLaunchFailed    = 2
	ExitFatalIO         = 3
	ExitCommandFailed   = 4
	ExitConfigError     = 5
	ExitProjectNotFound = 6
	ExitCancelled       = 130
)

// ThymError is the base error type for thym-ctl
type ThymError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ThymError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ThymError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *ThymError) ExitCode() int {
	return e.Code
}

// New creates a new ThymError
func New(code int, message string) *ThymError {
	return &ThymError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a ThymError
func Wrap(code int, message string, cause error) *ThymError {
	return &ThymError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error constructors

// LaunchError returns an error for a shell that could not be started
func LaunchError(shell string, cause error) *ThymError {
	return Wrap(ExitLaunchFailed, fmt.Sprintf("failed to launch shell %s", shell), cause)
}

// FatalIOError returns an error for a failed write to a running shell
func FatalIOError(cause error) *ThymError {
	return Wrap(ExitFatalIO, "fatal error invoking cordova CLI", cause)
}

// CommandExecutionError returns an error carrying the failure text reported by the CLI.
// The message is kept verbatim for display.
func CommandExecutionError(message string) *ThymError {
	return New(ExitCommandFailed, message)
}

// Cancelled returns an error for an operation aborted on request
func Cancelled(op string) *ThymError {
	return New(ExitCancelled, fmt.Sprintf("%s cancelled", op))
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *ThymError {
	return Wrap(ExitConfigError, message, cause)
}

// ProjectNotFound returns an error for a project that cannot be resolved
func ProjectNotFound(name string) *ThymError {
	return New(ExitProjectNotFound, fmt.Sprintf("project not found: %s", name))
}

// ValidationError returns an error for input validation failures
func ValidationError(message string) *ThymError {
	return New(ExitGeneralError, message)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var thymErr *ThymError
	if errors.As(err, &thymErr) {
		return thymErr.ExitCode()
	}
	return ExitGeneralError
}

func hasCode(err error, code int) bool {
	var thymErr *ThymError
	return errors.As(err, &thymErr) && thymErr.Code == code
}

// IsLaunchError reports whether err is a LaunchError
func IsLaunchError(err error) bool {
	return hasCode(err, ExitLaunchFailed)
}

// IsFatalIO reports whether err is a FatalIOError
func IsFatalIO(err error) bool {
	return hasCode(err, ExitFatalIO)
}

// IsCommandExecution reports whether err is a CommandExecutionError
func IsCommandExecution(err error) bool {
	return hasCode(err, ExitCommandFailed)
}

// IsCancelled reports whether err marks a cancelled operation
func IsCancelled(err error) bool {
	return hasCode(err, ExitCancelled)
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
