package argx

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
)

// FormatHelp renders the help listing. With plus=false hidden options and
// hidden groups are withheld; plus=true is the unabridged listing behind
// --help+. Sections are ordered by (order, title) and the ordering is
// stable across calls.
func (p *Parser) FormatHelp(plus bool) string {
	var b strings.Builder
	b.WriteString(p.usageLine())
	b.WriteString("\n")
	if p.Description != "" {
		b.WriteString("\n" + p.Description + "\n")
	}

	groups := make([]*Group, len(p.groups))
	copy(groups, p.groups)
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Order != groups[j].Order {
			return groups[i].Order < groups[j].Order
		}
		return groups[i].Title < groups[j].Title
	})

	for _, g := range groups {
		if g == p.commandsGroup {
			p.writeCommands(&b, g)
			continue
		}
		if !g.visible(plus) && !(g == p.defaultGroup && len(p.helpSpellings) > 0) {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", formatTitle(g.Title))
		if g.Description != "" {
			b.WriteString(g.Description + "\n")
		}
		tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		for _, opt := range g.options {
			if opt.Hidden && !plus {
				continue
			}
			fmt.Fprintf(tw, "  %s\t%s\n", opt.displayFlags(), helpText(opt))
		}
		if g == p.defaultGroup && len(p.helpSpellings) > 0 {
			fmt.Fprintf(tw, "  %s\t%s\n", p.helpFlags(), p.helpUsage())
		}
		tw.Flush()
	}

	if p.Epilog != "" {
		b.WriteString("\n" + p.Epilog + "\n")
	}
	return b.String()
}

// PrintHelp writes the listing to the parser's output.
func (p *Parser) PrintHelp(plus bool) {
	fmt.Fprint(p.stdout, p.FormatHelp(plus))
}

// writeCommands renders the subcommands section without the brace-style
// choice header.
func (p *Parser) writeCommands(b *strings.Builder, g *Group) {
	if len(p.commandOrder) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", formatTitle(g.Title))
	tw := tabwriter.NewWriter(b, 0, 4, 2, ' ', 0)
	for _, name := range p.commandOrder {
		help := p.commands[name].Description
		if help == "" {
			help = fmt.Sprintf("The %s command", name)
		} else if i := strings.IndexByte(help, '\n'); i >= 0 {
			help = help[:i]
		}
		fmt.Fprintf(tw, "  %s\t%s\n", name, help)
	}
	tw.Flush()
}

func (p *Parser) helpFlags() string {
	var flags []string
	for _, sp := range p.helpSpellings {
		if strings.HasSuffix(sp, "+") {
			continue
		}
		if len(sp) == 1 {
			flags = append(flags, "-"+sp)
		} else {
			flags = append(flags, "--"+sp)
		}
	}
	return strings.Join(flags, ", ")
}

func (p *Parser) helpUsage() string {
	msg := "show this help message and exit"
	for _, sp := range p.helpSpellings {
		if strings.HasSuffix(sp, "+") {
			return msg + " (with + for more options)"
		}
	}
	return msg
}

// helpText appends the "[default: ...]" suffix unless the help text opts
// out with a trailing "[nodefault]" or already carries one.
func helpText(opt *Option) string {
	h := strings.TrimRight(opt.Help, " ")
	if strings.HasSuffix(h, "[nodefault]") {
		return strings.TrimRight(strings.TrimSuffix(h, "[nodefault]"), " ")
	}
	if opt.Default == nil || strings.Contains(h, "[default: ") {
		return h
	}
	if h != "" {
		h += " "
	}
	return h + fmt.Sprintf("[default: %v]", opt.Default)
}

// formatTitle capitalizes each word of a section title.
func formatTitle(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
