package argx

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pwwang/argx/conf"
)

// Parser wraps a delegate flag-matching engine (spf13/pflag) and adds
// config-file defaults, dotted-namespace grouping, subcommand shortcuts,
// two-level help, and named value converters. The parser itself never scans
// tokens; it only pre-processes the argument list and post-processes the
// delegate's flat result.
type Parser struct {
	Prog        string
	Usage       string
	Description string
	Epilog      string

	// ExitOnVoid makes an invocation with no arguments and no non-empty
	// defaults a reportable error instead of an empty success.
	ExitOnVoid bool

	// FromFilePrefix marks tokens that name a defaults file, "@" by
	// default. Empty disables the directive.
	FromFilePrefix string

	level            int
	helpSpellings    []string
	groups           []*Group
	options          []*Option
	dests            map[string]*Option
	usedFlags        map[string]bool
	commands         map[string]*Parser
	commandOrder     []string
	commandsGroup    *Group
	commandsRequired bool
	converters       map[string]Converter
	mutexGroups      []*MutexGroup
	requiredGroup    *Group
	defaultGroup     *Group
	argumentDefault  any

	stdout io.Writer
	stderr io.Writer
}

// ParserOption configures a Parser under construction.
type ParserOption func(*Parser)

func WithUsage(usage string) ParserOption {
	return func(p *Parser) { p.Usage = usage }
}

func WithDescription(description string) ParserOption {
	return func(p *Parser) { p.Description = description }
}

func WithEpilog(epilog string) ParserOption {
	return func(p *Parser) { p.Epilog = epilog }
}

func WithExitOnVoid() ParserOption {
	return func(p *Parser) { p.ExitOnVoid = true }
}

// WithFromFilePrefix replaces the "@" defaults-file directive prefix.
// An empty prefix disables the directive entirely.
func WithFromFilePrefix(prefix string) ParserOption {
	return func(p *Parser) { p.FromFilePrefix = prefix }
}

// WithArgumentDefault sets the fallback default for options that declare
// none of their own.
func WithArgumentDefault(v any) ParserOption {
	return func(p *Parser) { p.argumentDefault = v }
}

// WithHelp replaces the recognized help spellings. A spelling ending in
// "+" requests the unabridged listing, e.g. WithHelp("h", "help", "help+").
func WithHelp(spellings ...string) ParserOption {
	return func(p *Parser) { p.helpSpellings = spellings }
}

func WithoutHelp() ParserOption {
	return func(p *Parser) { p.helpSpellings = nil }
}

// WithOutput redirects help output and error output, mainly for tests.
func WithOutput(stdout, stderr io.Writer) ParserOption {
	return func(p *Parser) { p.stdout, p.stderr = stdout, stderr }
}

// New creates a parser. The help option defaults to the four spellings
// -h/--help/-h+/--help+ so the unabridged listing is always reachable.
func New(prog string, opts ...ParserOption) *Parser {
	p := &Parser{
		Prog:             prog,
		FromFilePrefix:   "@",
		helpSpellings:    []string{"h", "help", "h+", "help+"},
		dests:            make(map[string]*Option),
		usedFlags:        make(map[string]bool),
		commands:         make(map[string]*Parser),
		commandsRequired: true,
		converters:       builtinConverters(),
		stdout:           os.Stdout,
		stderr:           os.Stderr,
	}
	p.requiredGroup = &Group{Title: "required arguments", Order: -1, parser: p}
	p.defaultGroup = &Group{Title: "optional arguments", parser: p}
	p.groups = append(p.groups, p.requiredGroup, p.defaultGroup)

	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetOutput redirects help output and error output after construction,
// propagating to already-registered subcommand parsers.
func (p *Parser) SetOutput(stdout, stderr io.Writer) {
	p.stdout, p.stderr = stdout, stderr
	for _, sub := range p.commands {
		sub.SetOutput(stdout, stderr)
	}
}

// RegisterType adds or overrides a named converter for this parser.
func (p *Parser) RegisterType(name string, conv Converter) {
	p.converters[name] = conv
}

// AddArgument registers an option, routing it into the required group, the
// default group, or the namespace group owning its dotted destination. It
// panics with a *ConfigurationError on structural conflicts; construction
// errors are fatal and no partially-built parser remains usable.
func (p *Parser) AddArgument(opt *Option) *Option {
	p.register(opt, nil)
	return opt
}

func (p *Parser) register(opt *Option, g *Group) {
	if err := opt.finalize(); err != nil {
		panic(err)
	}

	if prev, ok := p.dests[opt.Dest]; ok {
		panic(configErrorf("conflicting destination %q (already used by %s)",
			opt.Dest, strings.Join(prev.Flags, "/")))
	}
	if strings.Contains(opt.Dest, ".") {
		// Every proper prefix of a dotted destination must be free or be a
		// namespace-valued option; a scalar there is a structural conflict.
		parts := strings.Split(opt.Dest, ".")
		for i := 1; i < len(parts); i++ {
			prefix := strings.Join(parts[:i], ".")
			if prev, ok := p.dests[prefix]; ok && prev.Action != ActionNamespace {
				panic(configErrorf(
					"cannot nest %q under %q: %q is not a namespace",
					opt.Dest, prefix, prefix))
			}
		}
	}
	if opt.Action != ActionNamespace {
		for d := range p.dests {
			if strings.HasPrefix(d, opt.Dest+".") {
				panic(configErrorf(
					"destination %q conflicts with namespace member %q", opt.Dest, d))
			}
		}
		if !strings.Contains(opt.Dest, ".") && p.namespaceGroup(opt.Dest) != nil {
			panic(configErrorf("destination %q conflicts with namespace %q",
				opt.Dest, opt.Dest))
		}
	}

	if p.usedFlags[opt.name] {
		panic(configErrorf("flag --%s declared twice", opt.name))
	}
	if opt.shorthand != "" && p.usedFlags[opt.shorthand] {
		panic(configErrorf("flag -%s declared twice", opt.shorthand))
	}

	if opt.Converter == nil {
		conv, ok := p.converters[opt.Type]
		if !ok {
			panic(configErrorf("unknown type %q for %s", opt.Type, opt.Flags[0]))
		}
		opt.Converter = conv
	}

	switch {
	case strings.Contains(opt.Dest, ".") || opt.Action == ActionNamespace:
		if opt.Action == ActionNamespace {
			if ng := p.namespaceGroup(opt.Dest); ng != nil {
				g = ng
			}
		}
		if g == nil || g.Name == "" {
			g = p.resolveGroup(opt.Dest)
		}
	case g == nil && opt.Required:
		g = p.requiredGroup
	case g == nil:
		g = p.defaultGroup
	}

	opt.group = g
	g.options = append(g.options, opt)
	p.options = append(p.options, opt)
	p.dests[opt.Dest] = opt
	p.usedFlags[opt.name] = true
	if opt.shorthand != "" {
		p.usedFlags[opt.shorthand] = true
	}
}

// AddGroup adds a plain display group. Order and Hidden may be set on the
// returned group before any parse call.
func (p *Parser) AddGroup(title string) *Group {
	g := &Group{Title: title, parser: p}
	p.groups = append(p.groups, g)
	return g
}

// AddNamespace declares a namespace group up front, typically to give it a
// title or display order before dotted options are registered under it.
func (p *Parser) AddNamespace(name, title string) *Group {
	if p.namespaceGroup(name) != nil {
		panic(configErrorf("namespace %q already exists", name))
	}
	if prev, ok := p.dests[name]; ok && prev.Action != ActionNamespace {
		panic(configErrorf("namespace %q conflicts with destination %q", name, name))
	}
	if title == "" {
		title = fmt.Sprintf("namespace <%s>", name)
	}
	g := &Group{Name: name, Title: title, parser: p}
	p.groups = append(p.groups, g)
	return g
}

// MutexGroup holds options of which at most one may be supplied per
// invocation.
type MutexGroup struct {
	parser  *Parser
	options []*Option
}

// AddArgument registers an option and records its mutual-exclusion
// membership.
func (m *MutexGroup) AddArgument(opt *Option) *Option {
	m.parser.register(opt, nil)
	m.options = append(m.options, opt)
	return opt
}

func (p *Parser) AddMutuallyExclusiveGroup() *MutexGroup {
	m := &MutexGroup{parser: p}
	p.mutexGroups = append(p.mutexGroups, m)
	return m
}

// AddCommand registers a subcommand and returns its parser, creating the
// subcommands group on first use. The command choice is recorded under the
// destination COMMAND (COMMAND2, COMMAND3, ... at deeper levels).
func (p *Parser) AddCommand(name string, opts ...ParserOption) *Parser {
	if name == "" {
		panic(configErrorf("command name cannot be empty"))
	}
	if _, ok := p.commands[name]; ok {
		panic(configErrorf("command %q already exists", name))
	}
	if p.commandsGroup == nil {
		p.commandsGroup = &Group{Title: "subcommands", Order: 99, parser: p}
		p.groups = append(p.groups, p.commandsGroup)
	}

	sub := New(p.Prog+" "+name, opts...)
	sub.level = p.level + 1
	sub.stdout = p.stdout
	sub.stderr = p.stderr
	p.commands[name] = sub
	p.commandOrder = append(p.commandOrder, name)
	return sub
}

// commandDest is the destination the chosen subcommand name is stored
// under: COMMAND at the top level, COMMAND2 one level down, and so on.
func (p *Parser) commandDest() string {
	if p.level == 0 {
		return "COMMAND"
	}
	return fmt.Sprintf("COMMAND%d", p.level+1)
}

// SetDefaultsFromConfig merges the given mappings or config-file paths and
// installs the matched values as the declared defaults. Required options
// that receive a default this way stop being required. Sections named after
// a subcommand are forwarded to that subcommand's parser.
func (p *Parser) SetDefaultsFromConfig(sources ...any) error {
	m, err := conf.Merge(sources...)
	if err != nil {
		return err
	}
	p.applyPersistentDefaults(m)
	return nil
}

func (p *Parser) applyPersistentDefaults(m map[string]any) {
	for _, opt := range p.options {
		if v, ok := lookupDotted(m, opt.Dest); ok {
			opt.Default = v
			opt.Required = false
		}
	}
	for name, sub := range p.commands {
		if v, ok := m[name].(map[string]any); ok {
			sub.applyPersistentDefaults(v)
		}
	}
}

// lookupDotted finds a destination in a decoded mapping, trying the flat
// key first and then walking the dotted path through nested mappings.
func lookupDotted(m map[string]any, dest string) (any, bool) {
	if v, ok := m[dest]; ok {
		return v, true
	}
	if !strings.Contains(dest, ".") {
		return nil, false
	}
	cur := any(m)
	for _, part := range strings.Split(dest, ".") {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = mm[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}
