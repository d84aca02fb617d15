package logging

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Attribute keys shared by every invocation log line.
const (
	KeyProject    = "project"
	KeyCommand    = "command"
	KeyInvocation = "invocation"
)

// Logger is the process-wide structured logger. Until Setup runs it writes
// info and above as text to stderr.
var Logger = newLogger(os.Stderr, slog.LevelInfo, false)

func newLogger(w io.Writer, level slog.Level, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: roundDurations,
	}
	if jsonOutput {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// roundDurations keeps command timings readable ("1.234s", not nanoseconds
// of noise).
func roundDurations(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindDuration {
		return slog.Duration(a.Key, a.Value.Duration().Round(time.Millisecond))
	}
	return a
}

// Setup replaces Logger. --verbose enables debug output, --json switches to
// JSON lines. A nil w means stderr.
func Setup(verbose bool, jsonOutput bool, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	Logger = newLogger(w, level, jsonOutput)
}

// ForInvocation returns a logger that tags every line with the project,
// the command label and the invocation id.
func ForInvocation(project, command, id string) *slog.Logger {
	return Logger.With(KeyProject, project, KeyCommand, command, KeyInvocation, id)
}

// Debug logs at debug level on Logger.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Warn logs at warning level on Logger.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
