// Package audit records the history of Cordova invocations per project.
// Events are stored as JSON Lines (JSONL) files, one per project.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType classifies an invocation event.
type EventType string

const (
	EventStart     EventType = "start"
	EventSucceeded EventType = "succeeded"
	EventFailed    EventType = "failed"
	EventCancelled EventType = "cancelled"
)

// Terminal reports whether t ends an invocation.
func (t EventType) Terminal() bool {
	return t == EventSucceeded || t == EventFailed || t == EventCancelled
}

// Event is a single history entry.
type Event struct {
	Timestamp  time.Time     `json:"timestamp"`
	Type       EventType     `json:"type"`
	Project    string        `json:"project"`
	Dir        string        `json:"dir,omitempty"`
	Invocation string        `json:"invocation"`
	Command    string        `json:"command"`
	Duration   time.Duration `json:"duration,omitempty"`
	Details    string        `json:"details,omitempty"`
}

// Logger writes and reads invocation events.
// Events are stored in {stateDir}/projects/{name}.events.jsonl.
type Logger struct {
	stateDir string
	mu       sync.Mutex
}

// NewLogger creates a new audit logger rooted at stateDir.
func NewLogger(stateDir string) *Logger {
	return &Logger{stateDir: stateDir}
}

func (l *Logger) eventPath(project string) string {
	return filepath.Join(l.stateDir, "projects", project+".events.jsonl")
}

// Log appends an event to the project's history.
func (l *Logger) Log(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Project == "" {
		return fmt.Errorf("audit event has no project")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	path := l.eventPath(event.Project)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// Events reads all events for a project in the order they were written.
func (l *Logger) Events(project string) ([]Event, error) {
	f, err := os.Open(l.eventPath(project))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	// Failure details can carry long Cordova output.
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue // Skip malformed lines
		}
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading audit log: %w", err)
	}
	return events, nil
}

// Last returns at most n of the most recent events. n <= 0 returns all.
func Last(events []Event, n int) []Event {
	if n <= 0 || n >= len(events) {
		return events
	}
	return events[len(events)-n:]
}

// Remove deletes the history of a project.
func (l *Logger) Remove(project string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.Remove(l.eventPath(project)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// InDir returns the events recorded for the checkout at dir. Projects are
// keyed by directory name, so checkouts with the same name elsewhere share a
// history file; events without a directory are kept.
func InDir(events []Event, dir string) []Event {
	var out []Event
	for _, e := range events {
		if e.Dir == "" || e.Dir == dir {
			out = append(out, e)
		}
	}
	return out
}
