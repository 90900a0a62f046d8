package argx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatHelpSections(t *testing.T) {
	t.Parallel()

	p := newTestParser(WithDescription("Does things."))
	p.AddArgument(&Option{Flags: []string{"--foo"}, Help: "A foo.", Default: 42})
	p.AddArgument(&Option{Flags: []string{"--must"}, Required: true, Help: "Needed."})
	p.AddCommand("run", WithDescription("Run the thing.\nLong tail."))

	out := p.FormatHelp(false)
	assert.True(t, strings.HasPrefix(out, "Usage:"), out)
	assert.Contains(t, out, "Does things.")
	assert.Contains(t, out, "Required Arguments:")
	assert.Contains(t, out, "Optional Arguments:")
	assert.Contains(t, out, "Subcommands:")
	assert.Contains(t, out, "--must")
	assert.Contains(t, out, "A foo. [default: 42]")
	assert.Contains(t, out, "Run the thing.")
	assert.NotContains(t, out, "Long tail.")
	assert.Contains(t, out, "-h, --help")
	assert.Contains(t, out, "(with + for more options)")

	// Required arguments come before optional ones.
	assert.Less(t,
		strings.Index(out, "Required Arguments:"),
		strings.Index(out, "Optional Arguments:"))
}

func TestFormatHelpHidden(t *testing.T) {
	t.Parallel()

	p := newTestParser()
	p.AddArgument(&Option{Flags: []string{"--secret"}, Hidden: true, Help: "Internal."})
	g := p.AddGroup("debug options")
	g.Hidden = true
	g.AddArgument(&Option{Flags: []string{"--trace"}, Action: ActionStoreTrue})

	short := p.FormatHelp(false)
	assert.NotContains(t, short, "--secret")
	assert.NotContains(t, short, "Debug Options:")

	full := p.FormatHelp(true)
	assert.Contains(t, full, "--secret")
	assert.Contains(t, full, "Debug Options:")
	assert.Contains(t, full, "--trace")
}

func TestFormatHelpGroupOrdering(t *testing.T) {
	t.Parallel()

	p := newTestParser()
	gb := p.AddGroup("bravo")
	gb.Order = 5
	ga := p.AddGroup("alpha")
	ga.Order = 5
	gb.AddArgument(&Option{Flags: []string{"--b"}, Action: ActionStoreTrue})
	ga.AddArgument(&Option{Flags: []string{"--a"}, Action: ActionStoreTrue})

	out := p.FormatHelp(false)
	require.Contains(t, out, "Alpha:")
	require.Contains(t, out, "Bravo:")
	assert.Less(t, strings.Index(out, "Alpha:"), strings.Index(out, "Bravo:"))
}

func TestHelpTextDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Plain.", helpText(&Option{Help: "Plain."}))
	assert.Equal(t, "With. [default: 3]", helpText(&Option{Help: "With.", Default: 3}))
	assert.Equal(t, "Keep. [default: set by env]",
		helpText(&Option{Help: "Keep. [default: set by env]", Default: 3}))
	assert.Equal(t, "Quiet.", helpText(&Option{Help: "Quiet. [nodefault]", Default: 3}))
	assert.Equal(t, "[default: 7]", helpText(&Option{Default: 7}))
}

func TestWithoutHelp(t *testing.T) {
	t.Parallel()

	p := newTestParser(WithoutHelp())
	p.AddArgument(&Option{Flags: []string{"--help"}, Action: ActionStoreTrue})

	res, err := p.ParseArgs([]string{"--help"})
	require.NoError(t, err)
	assert.Equal(t, true, res.Get("help"))
	assert.NotContains(t, p.FormatHelp(false), "show this help message")
}
