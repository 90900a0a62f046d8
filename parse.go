package argx

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/pwwang/argx/conf"
)

// ErrHelp is returned by ParseArgs when a help spelling was supplied. The
// help text has already been written; Parse exits cleanly on it.
var ErrHelp = errors.New("help requested")

// invocation carries the per-parse state: the merged default set, values
// received from the delegate, and defaults destined for subcommand parsers.
// It is rebuilt on every parse call; nothing here outlives the invocation.
type invocation struct {
	p            *Parser
	values       map[string]any
	received     map[string]bool
	fileDefaults map[string]any
	optionalized map[string]bool
	subDefaults  map[string]map[string]any
	convErr      *ValueError
}

func newInvocation(p *Parser) *invocation {
	return &invocation{
		p:            p,
		values:       make(map[string]any),
		received:     make(map[string]bool),
		fileDefaults: make(map[string]any),
		optionalized: make(map[string]bool),
		subDefaults:  make(map[string]map[string]any),
	}
}

// effectiveDefault layers file-sourced defaults over hardcoded ones. CLI
// values never reach here; the caller checks received first.
func (inv *invocation) effectiveDefault(opt *Option) any {
	if v, ok := inv.fileDefaults[opt.Dest]; ok {
		return v
	}
	if opt.Default != nil {
		return opt.Default
	}
	return inv.p.argumentDefault
}

func (inv *invocation) applyFileDefaults(m map[string]any) {
	for _, opt := range inv.p.options {
		if v, ok := lookupDotted(m, opt.Dest); ok {
			inv.fileDefaults[opt.Dest] = v
			if opt.Required {
				inv.optionalized[opt.Dest] = true
			}
		}
	}
	for name := range inv.p.commands {
		if v, ok := m[name].(map[string]any); ok {
			sub := inv.subDefaults[name]
			if sub == nil {
				sub = make(map[string]any)
				inv.subDefaults[name] = sub
			}
			for k, vv := range v {
				sub[k] = vv
			}
		}
	}
}

func (inv *invocation) hasNonEmptyDefault() bool {
	for _, opt := range inv.p.options {
		if !emptyValue(inv.effectiveDefault(opt)) {
			return true
		}
	}
	return false
}

// expandFiles intercepts @file directives before the delegate sees the
// token stream. A .txt file is spliced inline as plain tokens; any other
// recognized extension is decoded and layered into the default set.
func (inv *invocation) expandFiles(tokens []string) ([]string, error) {
	p := inv.p
	if p.FromFilePrefix == "" {
		return tokens, nil
	}
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" || !strings.HasPrefix(tok, p.FromFilePrefix) {
			out = append(out, tok)
			continue
		}
		path := strings.TrimPrefix(tok, p.FromFilePrefix)
		loaded, err := conf.Load(path)
		if err != nil {
			return nil, fmt.Errorf("cannot load defaults from %s: %w", tok, err)
		}
		switch v := loaded.(type) {
		case []string:
			out = append(out, v...)
		case map[string]any:
			inv.applyFileDefaults(v)
			slog.Debug("argx: loaded defaults file", "path", path, "keys", len(v))
		default:
			return nil, fmt.Errorf("cannot load defaults from %s: unexpected content", tok)
		}
	}
	return out, nil
}

// scanHelp looks for a help spelling among the tokens the top-level parser
// owns, stopping at "--" and, when subcommands exist, at the first
// positional (whose tokens belong to the subcommand parser).
func (p *Parser) scanHelp(tokens []string) (plus bool, found bool) {
	for _, tok := range tokens {
		if tok == "--" {
			return false, false
		}
		if p.FromFilePrefix != "" && strings.HasPrefix(tok, p.FromFilePrefix) {
			continue
		}
		if !strings.HasPrefix(tok, "-") {
			if len(p.commands) > 0 {
				return false, false
			}
			continue
		}
		name := strings.TrimLeft(tok, "-")
		for _, sp := range p.helpSpellings {
			if name == sp {
				return strings.HasSuffix(sp, "+"), true
			}
		}
	}
	return false, false
}

// splitUnknownFlags pulls flag-shaped tokens no option claims out of the
// stream before the delegate sees them; they come back as leftovers instead
// of parse errors. Tokens after "--" pass through untouched, and when
// subcommands exist the scan stops at the first positional, whose flags
// belong to the subcommand parser.
func (p *Parser) splitUnknownFlags(tokens []string) (known, unknown []string) {
	known = make([]string, 0, len(tokens))
	expectValue := false
	for i, tok := range tokens {
		if expectValue {
			known = append(known, tok)
			expectValue = false
			continue
		}
		if tok == "--" {
			return append(known, tokens[i:]...), unknown
		}
		if !strings.HasPrefix(tok, "-") || tok == "-" {
			if len(p.commands) > 0 {
				return append(known, tokens[i:]...), unknown
			}
			known = append(known, tok)
			continue
		}
		name := strings.TrimLeft(tok, "-")
		eq := strings.IndexByte(name, '=')
		if eq >= 0 {
			name = name[:eq]
		}
		opt := p.optionByFlag(strings.HasPrefix(tok, "--"), name)
		if opt == nil {
			unknown = append(unknown, tok)
			continue
		}
		known = append(known, tok)
		// A lone flag that takes a value claims the next token.
		expectValue = eq < 0 && opt.takesValue() &&
			(strings.HasPrefix(tok, "--") || len(name) == 1)
	}
	return known, unknown
}

func (p *Parser) optionByFlag(long bool, name string) *Option {
	if name == "" {
		return nil
	}
	for _, opt := range p.options {
		if long && opt.name == name {
			return opt
		}
		if !long && opt.shorthand == name[:1] {
			return opt
		}
	}
	return nil
}

// Parse parses os.Args[1:] and applies the process exit policy: help exits
// 0, any error prints a message and exits non-zero.
func (p *Parser) Parse() *Result {
	res, err := p.ParseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, ErrHelp) {
			os.Exit(0)
		}
		code := 2
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.Code
		}
		fmt.Fprintln(p.stderr, p.usageLine())
		fmt.Fprintf(p.stderr, "%s: error: %s\n", p.Prog, err)
		os.Exit(code)
	}
	return res
}

// ParseArgs parses the given tokens and fails on leftover positionals.
func (p *Parser) ParseArgs(args []string) (*Result, error) {
	res, rest, err := p.ParseKnownArgs(args)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, &ExitError{
			Code:    2,
			Message: fmt.Sprintf("unrecognized arguments: %s", strings.Join(rest, " ")),
		}
	}
	return res, nil
}

// ParseKnownArgs parses the given tokens and returns the leftovers instead
// of failing on them.
func (p *Parser) ParseKnownArgs(args []string) (*Result, []string, error) {
	return p.parseKnown(args, nil)
}

func (p *Parser) parseKnown(args []string, inherited map[string]any) (*Result, []string, error) {
	slog.Debug("argx: parse started", "prog", p.Prog, "args", len(args))
	inv := newInvocation(p)
	if inherited != nil {
		inv.applyFileDefaults(inherited)
	}

	if plus, ok := p.scanHelp(args); ok {
		fmt.Fprint(p.stdout, p.FormatHelp(plus))
		return nil, nil, ErrHelp
	}

	tokens, err := inv.expandFiles(args)
	if err != nil {
		return nil, nil, err
	}
	tokens, extras := p.splitUnknownFlags(tokens)

	fs := pflag.NewFlagSet(p.Prog, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(len(p.commands) == 0)
	for _, opt := range p.options {
		v := &optionValue{opt: opt, inv: inv}
		fs.VarP(v, opt.name, opt.shorthand, opt.Help)
		if !opt.takesValue() {
			fs.Lookup(opt.name).NoOptDefVal = "true"
		}
	}
	if err := fs.Parse(tokens); err != nil {
		if inv.convErr != nil {
			return nil, nil, inv.convErr
		}
		return nil, nil, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("argx: delegate parse finished", "prog", p.Prog)

	void := len(args) == 0 && !inv.hasNonEmptyDefault()
	if void && p.ExitOnVoid {
		return nil, nil, &ExitError{Code: 2, Message: "No arguments provided"}
	}

	rest := fs.Args()
	flat := make(map[string]any, len(p.options))
	nsDests := make([]string, 0)

	var subResult *Result
	if len(p.commands) > 0 {
		if len(rest) == 0 {
			if p.commandsRequired {
				return nil, nil, &ExitError{
					Code:    2,
					Message: fmt.Sprintf("the following arguments are required: %s", p.commandDest()),
				}
			}
		} else {
			name := rest[0]
			sub, ok := p.commands[name]
			if !ok {
				return nil, nil, &ExitError{
					Code: 2,
					Message: fmt.Sprintf("invalid command %q (choose from %s)",
						name, strings.Join(p.commandOrder, ", ")),
				}
			}
			subRes, subRest, err := sub.parseKnown(rest[1:], inv.subDefaults[name])
			if err != nil {
				return nil, nil, err
			}
			flat[p.commandDest()] = name
			subResult = subRes
			rest = subRest
		}
	}
	if len(extras) > 0 {
		rest = append(extras, rest...)
	}

	for _, mg := range p.mutexGroups {
		var seen []string
		for _, opt := range mg.options {
			if inv.received[opt.Dest] {
				seen = append(seen, opt.Flags[0])
			}
		}
		if len(seen) > 1 {
			return nil, nil, &ExitError{
				Code:    2,
				Message: fmt.Sprintf("argument %s: not allowed with argument %s", seen[1], seen[0]),
			}
		}
	}

	var missing []string
	for _, opt := range p.options {
		if opt.Required && !inv.received[opt.Dest] && !inv.optionalized[opt.Dest] {
			missing = append(missing, opt.Flags[0])
		}
	}
	if len(missing) > 0 {
		return nil, nil, &ExitError{
			Code:    2,
			Message: fmt.Sprintf("the following arguments are required: %s", strings.Join(missing, ", ")),
		}
	}

	for _, opt := range p.options {
		if opt.Action == ActionNamespace {
			nsDests = append(nsDests, opt.Dest)
		}
		if inv.received[opt.Dest] {
			flat[opt.Dest] = inv.values[opt.Dest]
			continue
		}
		flat[opt.Dest] = copyValue(inv.effectiveDefault(opt))
	}
	if subResult != nil {
		for k, v := range subResult.flat {
			flat[k] = v
		}
		nsDests = append(nsDests, subResult.nsDests...)
	}
	sort.Strings(nsDests)

	res := &Result{
		flat:    flat,
		nsDests: nsDests,
		rest:    rest,
		void:    void,
	}
	res.ns = project(flat, nsDests)
	slog.Debug("argx: parse finished", "prog", p.Prog, "void", void)
	return res, rest, nil
}

// usageLine is the single-line usage summary used by help output and error
// reporting.
func (p *Parser) usageLine() string {
	if p.Usage != "" {
		return "Usage: " + p.Usage
	}
	line := "Usage: " + p.Prog + " [options]"
	if len(p.commands) > 0 {
		line += " COMMAND ..."
	}
	return line
}
