package classifier

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/config"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/system"
)

// Strategy decides whether a single output line reports a failure.
type Strategy interface {
	Matches(line string) bool
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(line string) bool

func (f StrategyFunc) Matches(line string) bool { return f(line) }

// Rule is one recognised failure pattern.
type Rule struct {
	Pattern *regexp.Regexp
}

// RuleSet matches a line when any of its rules does.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet compiles patterns into a RuleSet.
func NewRuleSet(patterns []string, ignoreCase bool) (*RuleSet, error) {
	rs := &RuleSet{rules: make([]Rule, 0, len(patterns))}
	for _, p := range patterns {
		expr := p
		if ignoreCase {
			expr = "(?i)" + p
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid error pattern %q: %w", p, err)
		}
		rs.rules = append(rs.rules, Rule{Pattern: re})
	}
	return rs, nil
}

// DefaultRuleSet returns the rules for config.DefaultErrorPatterns.
func DefaultRuleSet() *RuleSet {
	rs, err := NewRuleSet(config.DefaultErrorPatterns, false)
	if err != nil {
		panic(err)
	}
	return rs
}

// FromConfig builds the RuleSet described by a [classifier] section.
func FromConfig(c config.ClassifierConfig) (*RuleSet, error) {
	return NewRuleSet(c.ErrorPatterns, c.IgnoreCase)
}

func (rs *RuleSet) Matches(line string) bool {
	for _, r := range rs.rules {
		if r.Pattern.MatchString(line) {
			return true
		}
	}
	return false
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Listener accumulates a process's output and the lines the strategy flags.
// It implements system.OutputListener and is safe for concurrent delivery
// from the stdout and stderr readers.
type Listener struct {
	strategy Strategy
	tee      func(stream system.Stream, line string)

	mu     sync.Mutex
	output strings.Builder
	errors []string
}

// Option configures a Listener.
type Option func(*Listener)

// WithTee forwards every line to fn after it is recorded.
func WithTee(fn func(stream system.Stream, line string)) Option {
	return func(l *Listener) {
		l.tee = fn
	}
}

// NewListener creates a Listener using strategy.
func NewListener(strategy Strategy, opts ...Option) *Listener {
	if strategy == nil {
		strategy = DefaultRuleSet()
	}
	l := &Listener{strategy: strategy}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Listener) OnLine(stream system.Stream, line string) {
	l.mu.Lock()
	l.output.WriteString(line)
	l.output.WriteByte('\n')
	if l.strategy.Matches(line) {
		l.errors = append(l.errors, line)
	}
	l.mu.Unlock()

	if l.tee != nil {
		l.tee(stream, line)
	}
}

// ErrorMessage returns the failure lines joined by newlines, or "" when
// nothing matched.
func (l *Listener) ErrorMessage() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.errors, "\n")
}

// Output returns everything the process printed.
func (l *Listener) Output() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.output.String()
}
