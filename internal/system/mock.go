package system

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// MockFS implements FileSystem for testing.
type MockFS struct {
	mu    sync.RWMutex
	files map[string]*mockFile
	dirs  map[string]bool

	// Error injection
	ReadFileErr error
	StatErr     error
}

type mockFile struct {
	data []byte
	mode fs.FileMode
}

// NewMockFS creates a new MockFS with an empty filesystem.
func NewMockFS() *MockFS {
	return &MockFS{
		files: make(map[string]*mockFile),
		dirs:  make(map[string]bool),
	}
}

// AddFile adds a file to the mock filesystem.
func (m *MockFS) AddFile(path string, data []byte, mode fs.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = &mockFile{data: data, mode: mode}
	// Ensure parent directories exist
	dir := filepath.Dir(path)
	for dir != "." && dir != "/" {
		m.dirs[dir] = true
		dir = filepath.Dir(dir)
	}
}

// AddDir adds a directory to the mock filesystem.
func (m *MockFS) AddDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for dir := path; dir != "." && dir != "/"; dir = filepath.Dir(dir) {
		m.dirs[dir] = true
	}
}

func (m *MockFS) ReadFile(path string) ([]byte, error) {
	if m.ReadFileErr != nil {
		return nil, m.ReadFileErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return f.data, nil
}

func (m *MockFS) Stat(path string) (fs.FileInfo, error) {
	if m.StatErr != nil {
		return nil, m.StatErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if f, ok := m.files[path]; ok {
		return &mockFileInfo{name: filepath.Base(path), size: int64(len(f.data)), mode: f.mode}, nil
	}
	if _, ok := m.dirs[path]; ok {
		return &mockFileInfo{name: filepath.Base(path), isDir: true, mode: fs.ModeDir | 0755}, nil
	}
	return nil, fs.ErrNotExist
}

func (m *MockFS) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, fileOk := m.files[path]
	_, dirOk := m.dirs[path]
	return fileOk || dirOk
}

func (m *MockFS) IsDir(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.dirs[path]
	return ok
}

// mockFileInfo implements fs.FileInfo for testing.
type mockFileInfo struct {
	name  string
	size  int64
	mode  fs.FileMode
	isDir bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return time.Now() }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() interface{}   { return nil }

// MockLine is a line a simulated shell prints.
type MockLine struct {
	Stream Stream
	Text   string
}

// MockScript describes how a simulated shell behaves once it receives "exit".
type MockScript struct {
	// Lines are printed, in order, after the exit instruction arrives.
	Lines []MockLine

	// Delay is how long the shell runs before printing and exiting.
	Delay time.Duration

	// WriteErr is returned from every Write.
	WriteErr error

	// Hang keeps the shell alive until Terminate is called.
	Hang bool

	// IgnoreTerminate keeps a hanging shell alive through Terminate; only
	// Kill stops it.
	IgnoreTerminate bool

	// ExitCode is reported once the shell exits.
	ExitCode int
}

// MockRunner implements ProcessRunner with simulated shells for testing.
type MockRunner struct {
	mu sync.Mutex

	// StartErr is returned by Start if set.
	StartErr error

	// Script is used for every started shell unless Scripts has entries left.
	Script MockScript

	// Scripts are consumed in order, one per started shell.
	Scripts []MockScript

	// Processes records all started shells for verification.
	Processes []*MockProcess

	active    int
	maxActive int
}

// NewMockRunner creates a new MockRunner.
func NewMockRunner() *MockRunner {
	return &MockRunner{}
}

// Start records the launch and returns a simulated shell.
func (m *MockRunner) Start(ctx context.Context, spec ShellSpec, dir string, listener OutputListener) (Process, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.StartErr != nil {
		return nil, m.StartErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	script := m.Script
	if len(m.Scripts) > 0 {
		script = m.Scripts[0]
		m.Scripts = m.Scripts[1:]
	}

	p := &MockProcess{
		Spec:     spec,
		Dir:      dir,
		pid:      1000 + len(m.Processes),
		script:   script,
		listener: listener,
		runner:   m,
		done:     make(chan struct{}),
	}
	m.Processes = append(m.Processes, p)
	m.active++
	if m.active > m.maxActive {
		m.maxActive = m.active
	}
	return p, nil
}

func (m *MockRunner) exited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active--
}

// MaxConcurrent returns the largest number of shells alive at the same time.
func (m *MockRunner) MaxConcurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxActive
}

// LastProcess returns the most recently started shell.
func (m *MockRunner) LastProcess() (*MockProcess, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Processes) == 0 {
		return nil, false
	}
	return m.Processes[len(m.Processes)-1], true
}

// StartCount returns how many shells were started.
func (m *MockRunner) StartCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Processes)
}

// MockProcess is a simulated shell.
type MockProcess struct {
	Spec ShellSpec
	Dir  string

	mu         sync.Mutex
	pid        int
	script     MockScript
	listener   OutputListener
	runner     *MockRunner
	input      []string
	terminates int
	kills      int
	exitCode   int
	done       chan struct{}
	closeOnce  sync.Once
	exitSent   bool
}

func (p *MockProcess) Pid() int { return p.pid }

// Write records s. Writing "exit\n" starts the scripted run.
func (p *MockProcess) Write(s string) error {
	if p.script.WriteErr != nil {
		return p.script.WriteErr
	}
	if p.Terminated() {
		return errors.New("mock: write to exited process")
	}

	p.mu.Lock()
	p.input = append(p.input, s)
	start := !p.exitSent && strings.TrimSpace(s) == "exit"
	if start {
		p.exitSent = true
	}
	p.mu.Unlock()

	if start {
		go p.run()
	}
	return nil
}

func (p *MockProcess) run() {
	if p.script.Delay > 0 {
		select {
		case <-time.After(p.script.Delay):
		case <-p.done:
			return
		}
	}
	for _, l := range p.script.Lines {
		if p.Terminated() {
			return
		}
		if p.listener != nil {
			p.listener.OnLine(l.Stream, l.Text)
		}
	}
	if p.script.Hang {
		return
	}
	p.exit(p.script.ExitCode)
}

func (p *MockProcess) exit(code int) {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.exitCode = code
		p.mu.Unlock()
		p.runner.exited()
		close(p.done)
	})
}

func (p *MockProcess) Done() <-chan struct{} { return p.done }

func (p *MockProcess) Terminated() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Terminate stops the simulated shell immediately.
func (p *MockProcess) Terminate() error {
	p.mu.Lock()
	p.terminates++
	p.mu.Unlock()
	if p.script.IgnoreTerminate {
		return nil
	}
	p.exit(143)
	return nil
}

// Kill stops the simulated shell even if it ignores Terminate.
func (p *MockProcess) Kill() error {
	p.mu.Lock()
	p.kills++
	p.mu.Unlock()
	p.exit(137)
	return nil
}

func (p *MockProcess) ExitCode() int {
	if !p.Terminated() {
		return -1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Input returns everything written to the shell's stdin.
func (p *MockProcess) Input() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.input...)
}

// TerminateCalls returns how many times Terminate was called.
func (p *MockProcess) TerminateCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminates
}

// KillCalls returns how many times Kill was called.
func (p *MockProcess) KillCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kills
}
