package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/cordova"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/system"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	projectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	lineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			PaddingLeft(2)

	stderrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			PaddingLeft(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			PaddingLeft(2)
)

const defaultWidth = 80

// lineMsg carries one line of command output.
type lineMsg struct {
	stream system.Stream
	text   string
}

// doneMsg reports that the command finished.
type doneMsg struct {
	result *cordova.Result
	err    error
}

// RunFunc runs a command, forwarding each output line to onLine.
type RunFunc func(ctx context.Context, onLine func(stream system.Stream, line string)) (*cordova.Result, error)

// ProgressModel is the bubbletea model shown while a Cordova command runs.
type ProgressModel struct {
	spinner    spinner.Model
	title      string
	project    string
	last       lineMsg
	lines      int
	cancel     context.CancelFunc
	cancelling bool
	done       bool
	result     *cordova.Result
	err        error
	width      int
}

// NewProgress creates a progress model. cancel is called when the user
// asks to abort.
func NewProgress(title, project string, cancel context.CancelFunc) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle
	return ProgressModel{
		spinner: s,
		title:   title,
		project: project,
		cancel:  cancel,
		width:   defaultWidth,
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			if !m.cancelling && m.cancel != nil {
				m.cancel()
			}
			m.cancelling = true
		}
		return m, nil

	case lineMsg:
		if strings.TrimSpace(msg.text) != "" {
			m.last = msg
		}
		m.lines++
		return m, nil

	case doneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ProgressModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(titleStyle.Render(m.title))
	if m.project != "" {
		b.WriteString(" ")
		b.WriteString(projectStyle.Render(m.project))
	}
	b.WriteString("\n")

	if m.last.text != "" {
		style := lineStyle
		if m.last.stream == system.Stderr {
			style = stderrStyle
		}
		b.WriteString(style.Render(truncateLine(m.last.text, m.width-4)))
		b.WriteString("\n")
	}

	if m.cancelling {
		b.WriteString(helpStyle.Render("cancelling..."))
	} else {
		b.WriteString(helpStyle.Render(fmt.Sprintf("%d lines  [esc] Cancel", m.lines)))
	}
	return b.String()
}

// Cancelled reports whether the user asked to abort.
func (m ProgressModel) Cancelled() bool {
	return m.cancelling
}

// Outcome returns the finished command's result and error.
func (m ProgressModel) Outcome() (*cordova.Result, error) {
	return m.result, m.err
}

// truncateLine shortens s to at most maxLen runes.
func truncateLine(s string, maxLen int) string {
	s = strings.TrimRight(s, " \t")
	r := []rune(s)
	if maxLen <= 3 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// RunProgress runs fn behind a spinner that shows the latest output line.
// Ctrl+C or Esc cancels the context passed to fn; RunProgress still waits
// for fn to return.
func RunProgress(ctx context.Context, out io.Writer, title, project string, fn RunFunc) (*cordova.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewProgress(title, project, cancel)
	p := tea.NewProgram(m, tea.WithOutput(out))

	finished := make(chan doneMsg, 1)
	go func() {
		res, err := fn(ctx, func(stream system.Stream, line string) {
			p.Send(lineMsg{stream: stream, text: line})
		})
		finished <- doneMsg{result: res, err: err}
		p.Send(doneMsg{result: res, err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		outcome := <-finished
		if outcome.err != nil {
			return outcome.result, outcome.err
		}
		return outcome.result, fmt.Errorf("progress view failed: %w", err)
	}

	outcome := <-finished
	return outcome.result, outcome.err
}
