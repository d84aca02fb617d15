// Package cordova runs Cordova CLI commands for a project.
//
// # Composing Commands
//
// Compose builds the line sent to the shell:
//
//	cordova.Compose(cordova.VerbPlugin, cordova.Add, "org.example.plugin", cordova.OptionSave)
//	// "cordova plugin add org.example.plugin --save\n"
//
// Options are passed through verbatim; empty options are dropped.
//
// # Running Commands
//
// A CLI starts a login shell in the project directory, writes the command
// followed by "exit", and waits for the shell to finish:
//
//	cli, err := cordova.New(project,
//	    cordova.WithLocks(registry),
//	    cordova.WithRecorder(history),
//	)
//	res, err := cli.Plugin(ctx, cordova.Add, "cordova-plugin-camera", cordova.OptionSave)
//
// Invocations for the same project are serialized through the lock
// registry; the lock is taken before the shell starts and released on
// every path. Output lines are classified as they arrive; any line the
// classifier flags turns the result into a CommandExecutionError carrying
// those lines. Cancelling ctx terminates the shell and yields
// StateCancelled with a nil error.
//
// # Errors
//
//	errors.LaunchError            // the shell could not be started
//	errors.FatalIOError           // writing the command to the shell failed
//	errors.CommandExecutionError  // Cordova reported a failure
package cordova
