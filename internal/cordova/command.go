package cordova

import "strings"

// OptionSave records the change in config.xml and package.json.
const OptionSave = "--save"

// Verb is a top-level Cordova command.
type Verb string

const (
	VerbBuild    Verb = "build"
	VerbPrepare  Verb = "prepare"
	VerbPlatform Verb = "platform"
	VerbPlugin   Verb = "plugin"
)

// SubCommand selects the action of the platform and plugin verbs.
type SubCommand string

const (
	NoSubCommand SubCommand = ""
	Add          SubCommand = "add"
	Remove       SubCommand = "remove"
)

// Valid reports whether s is Add or Remove.
func (s SubCommand) Valid() bool {
	return s == Add || s == Remove
}

// Command is one logical Cordova invocation.
type Command struct {
	Verb    Verb
	Sub     SubCommand
	Options []string
}

// Label is a short description such as "cordova plugin add".
func (c Command) Label() string {
	label := "cordova " + string(c.Verb)
	if c.Sub != NoSubCommand {
		label += " " + string(c.Sub)
	}
	return label
}

// Compose builds the shell line for the default executable.
func Compose(verb Verb, sub SubCommand, options ...string) string {
	return ComposeWith("cordova", verb, sub, options...)
}

// ComposeWith builds "<executable> <verb>[ <sub>][ <opt>...]\n".
// Empty options are dropped; the rest are passed through verbatim and are
// not shell-escaped.
func ComposeWith(executable string, verb Verb, sub SubCommand, options ...string) string {
	var b strings.Builder
	b.WriteString(executable)
	b.WriteByte(' ')
	b.WriteString(string(verb))
	if sub != NoSubCommand {
		b.WriteByte(' ')
		b.WriteString(string(sub))
	}
	for _, opt := range options {
		if opt == "" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(opt)
	}
	b.WriteByte('\n')
	return b.String()
}
