// Package errors provides typed errors with exit codes for thym-ctl.
//
// # Error Types
//
// ThymError is the base error type that wraps an error with an exit code:
//
//	type ThymError struct {
//	    Code    int    // Exit code
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	}
//
// # Exit Codes
//
//	ExitSuccess         = 0   // Success
//	ExitGeneralError    = 1   // General/unknown errors
//	ExitLaunchFailed    = 2   // The shell could not be started
//	ExitFatalIO         = 3   // Writing to the running shell failed
//	ExitCommandFailed   = 4   // Cordova reported a failure in its output
//	ExitConfigError     = 5   // Configuration error
//	ExitProjectNotFound = 6   // Project could not be resolved
//	ExitCancelled       = 130 // Operation cancelled on request
//
// # Error Constructors
//
//	errors.LaunchError("/bin/bash", err)
//	errors.FatalIOError(err)
//	errors.CommandExecutionError("Error: plugin not found")
//	errors.Cancelled("cordova build")
//
// # Extracting Exit Codes
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
