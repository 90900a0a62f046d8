package argx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pwwang/argx/conf"
)

// FromConfig builds a whole parser from mappings or config-file paths.
// Recognized top-level keys: prog, usage, description, epilog, add_help,
// exit_on_void, fromfile_prefix, plus the descendant lists arguments,
// groups, namespaces, mutually_exclusive_groups, and commands (also
// recognized as subcommands). Construction
// conflicts surface as a *ConfigurationError.
func FromConfig(sources ...any) (p *Parser, err error) {
	defer func() {
		if r := recover(); r != nil {
			var cfgErr *ConfigurationError
			if e, ok := r.(error); ok && errors.As(e, &cfgErr) {
				err = cfgErr
				p = nil
				return
			}
			panic(r)
		}
	}()

	m, err := conf.Merge(sources...)
	if err != nil {
		return nil, err
	}

	p = New(getString(m, "prog"), parserOptionsFromMap(m)...)
	p.addDescendants(m)
	return p, nil
}

func parserOptionsFromMap(m map[string]any) []ParserOption {
	var opts []ParserOption
	if v := getString(m, "usage"); v != "" {
		opts = append(opts, WithUsage(v))
	}
	if v := getString(m, "description"); v != "" {
		opts = append(opts, WithDescription(v))
	}
	if v := getString(m, "epilog"); v != "" {
		opts = append(opts, WithEpilog(v))
	}
	if getBool(m, "exit_on_void") {
		opts = append(opts, WithExitOnVoid())
	}
	if v, ok := m["fromfile_prefix"]; ok {
		s, _ := v.(string)
		opts = append(opts, WithFromFilePrefix(s))
	}
	if v, ok := m["add_help"]; ok {
		switch h := v.(type) {
		case bool:
			if !h {
				opts = append(opts, WithoutHelp())
			}
		case string:
			opts = append(opts, WithHelp(splitSpellings(h)...))
		case []any:
			opts = append(opts, WithHelp(anyToStrings(h)...))
		}
	}
	return opts
}

func (p *Parser) addDescendants(m map[string]any) {
	for _, gm := range mapSlice(m["mutually_exclusive_groups"]) {
		mg := p.AddMutuallyExclusiveGroup()
		for _, am := range mapSlice(gm["arguments"]) {
			mg.AddArgument(optionFromMap(am))
		}
	}

	for _, gm := range mapSlice(m["groups"]) {
		g := p.AddGroup(getString(gm, "title"))
		g.Description = getString(gm, "description")
		g.Order = getInt(gm, "order")
		g.Hidden = hiddenFromMap(gm)
		for _, am := range mapSlice(gm["arguments"]) {
			g.AddArgument(optionFromMap(am))
		}
	}

	for _, nm := range mapSlice(m["namespaces"]) {
		g := p.AddNamespace(getString(nm, "name"), getString(nm, "title"))
		g.Description = getString(nm, "description")
		g.Order = getInt(nm, "order")
		g.Hidden = hiddenFromMap(nm)
		for _, am := range mapSlice(nm["arguments"]) {
			p.AddArgument(optionFromMap(am))
		}
	}

	for _, am := range mapSlice(m["arguments"]) {
		p.AddArgument(optionFromMap(am))
	}

	for _, cm := range append(mapSlice(m["commands"]), mapSlice(m["subcommands"])...) {
		name := getString(cm, "name")
		if name == "" {
			panic(configErrorf("command definition is missing a name"))
		}
		var opts []ParserOption
		if v := getString(cm, "help"); v != "" {
			opts = append(opts, WithDescription(v))
		}
		opts = append(opts, parserOptionsFromMap(cm)...)
		sub := p.AddCommand(name, opts...)
		sub.addDescendants(cm)
	}
}

func optionFromMap(m map[string]any) *Option {
	opt := &Option{
		Flags:    anyToStrings(asAny(m["flags"])),
		Dest:     getString(m, "dest"),
		Action:   getString(m, "action"),
		Default:  m["default"],
		Type:     getString(m, "type"),
		Const:    m["const"],
		Choices:  anyToStrings(asAny(m["choices"])),
		Required: getBool(m, "required"),
		Hidden:   hiddenFromMap(m),
		Help:     getString(m, "help"),
		Metavar:  getString(m, "metavar"),
	}
	if len(opt.Flags) == 0 {
		if f := getString(m, "flag"); f != "" {
			opt.Flags = []string{f}
		}
	}
	return opt
}

// hiddenFromMap accepts either hidden: true or show: false.
func hiddenFromMap(m map[string]any) bool {
	if v, ok := m["show"]; ok {
		shown, isBool := v.(bool)
		return isBool && !shown
	}
	return getBool(m, "hidden")
}

func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func getBool(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func getInt(m map[string]any, key string) int {
	return asInt(m[key])
}

func asAny(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	}
	return nil
}

func mapSlice(v any) []map[string]any {
	var out []map[string]any
	for _, e := range asAny(v) {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func anyToStrings(in []any) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, e := range in {
		out = append(out, fmt.Sprintf("%v", e))
	}
	return out
}

func splitSpellings(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
