package argx

import "strings"

// Group collects options for help rendering. A plain group has an empty
// Name; a namespace group's Name is the dotted prefix it owns. Sections are
// rendered sorted by (Order, Title); the reserved group for required
// options has order -1 and the subcommands group has order 99.
type Group struct {
	Name        string
	Title       string
	Description string
	Order       int

	// Hidden groups only appear in the unabridged (--help+) listing.
	Hidden bool

	options []*Option
	parser  *Parser
}

// AddArgument registers an option in this group. It panics with a
// *ConfigurationError on structural conflicts, mirroring the parser method.
func (g *Group) AddArgument(opt *Option) *Option {
	g.parser.register(opt, g)
	return opt
}

func (g *Group) visible(plus bool) bool {
	if g.Hidden && !plus {
		return false
	}
	for _, opt := range g.options {
		if plus || !opt.Hidden {
			return true
		}
	}
	return false
}

// resolveGroup returns the namespace group owning a dotted destination,
// creating the top-level namespace on first use. Resolving the same prefix
// twice returns the same group instance.
func (p *Parser) resolveGroup(dest string) *Group {
	keys := strings.Split(dest, ".")
	// Deepest registered prefix wins: foo.bar.baz prefers namespace
	// "foo.bar" over "foo".
	for i := len(keys) - 1; i > 0; i-- {
		prefix := strings.Join(keys[:i], ".")
		for _, g := range p.groups {
			if g.Name == prefix {
				return g
			}
		}
	}
	return p.AddNamespace(keys[0], "")
}

// namespaceGroup finds a namespace group by its dotted name.
func (p *Parser) namespaceGroup(name string) *Group {
	for _, g := range p.groups {
		if g.Name != "" && g.Name == name {
			return g
		}
	}
	return nil
}
