package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// defaultWaitDelay bounds how long output is drained after the shell exits.
// Grandchildren that keep stdout open (build daemons) would otherwise hold
// Done open forever.
const defaultWaitDelay = 5 * time.Second

// OSRunner implements ProcessRunner using os/exec.
type OSRunner struct {
	// WaitDelay is applied to every started command.
	WaitDelay time.Duration
}

// NewOSRunner creates an OSRunner with default settings.
func NewOSRunner() *OSRunner {
	return &OSRunner{WaitDelay: defaultWaitDelay}
}

func (r *OSRunner) Start(ctx context.Context, spec ShellSpec, dir string, listener OutputListener) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if spec.Path == "" {
		return nil, fmt.Errorf("no shell specified")
	}
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid working directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("invalid working directory: %s is not a directory", dir)
		}
	}

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.WaitDelay = r.WaitDelay
	setProcessGroup(cmd)

	stdout := newLineWriter(Stdout, listener)
	stderr := newLineWriter(Stderr, listener)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &osProcess{
		cmd:      cmd,
		stdin:    stdin,
		done:     make(chan struct{}),
		exitCode: -1,
	}

	go func() {
		_ = cmd.Wait()
		stdout.Flush()
		stderr.Flush()

		p.mu.Lock()
		if cmd.ProcessState != nil {
			p.exitCode = cmd.ProcessState.ExitCode()
		}
		p.mu.Unlock()
		close(p.done)
	}()

	return p, nil
}

// osProcess is a shell started by OSRunner.
type osProcess struct {
	mu       sync.Mutex
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	done     chan struct{}
	exitCode int
}

func (p *osProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *osProcess) Write(s string) error {
	_, err := io.WriteString(p.stdin, s)
	return err
}

func (p *osProcess) Done() <-chan struct{} {
	return p.done
}

func (p *osProcess) Terminated() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *osProcess) Terminate() error {
	if p.Terminated() {
		return nil
	}
	_ = p.stdin.Close()
	if err := terminateProcess(p.cmd); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return fmt.Errorf("failed to terminate process %d: %w", p.Pid(), err)
	}
	return nil
}

func (p *osProcess) Kill() error {
	if p.Terminated() {
		return nil
	}
	if err := killProcess(p.cmd); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return fmt.Errorf("failed to kill process %d: %w", p.Pid(), err)
	}
	return nil
}

func (p *osProcess) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// lineWriter splits written bytes into lines for a listener.
// os/exec copies each stream from a single goroutine, so Write is never
// called concurrently on the same lineWriter.
type lineWriter struct {
	stream   Stream
	listener OutputListener
	buf      bytes.Buffer
}

func newLineWriter(stream Stream, listener OutputListener) *lineWriter {
	return &lineWriter{stream: stream, listener: listener}
}

func (w *lineWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Incomplete line: keep it for the next write.
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.emit(line)
	}
	return len(b), nil
}

// Flush delivers a trailing line that had no newline.
func (w *lineWriter) Flush() {
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *lineWriter) emit(line string) {
	line = strings.TrimRight(line, "\r\n")
	if w.listener != nil {
		w.listener.OnLine(w.stream, line)
	}
}
