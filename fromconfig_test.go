package argx

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromConfigMap(t *testing.T) {
	t.Parallel()

	p, err := FromConfig(map[string]any{
		"prog":        "tool",
		"description": "A tool.",
		"arguments": []any{
			map[string]any{"flags": []any{"-n", "--name"}, "required": true},
			map[string]any{"flags": []any{"--count"}, "type": "int", "default": 1},
		},
		"commands": []any{
			map[string]any{
				"name": "run",
				"help": "Run it.",
				"arguments": []any{
					map[string]any{"flags": []any{"--fast"}, "action": "store_true"},
				},
			},
		},
	})
	require.NoError(t, err)
	p.SetOutput(io.Discard, io.Discard)

	assert.Equal(t, "tool", p.Prog)
	assert.Equal(t, "A tool.", p.Description)

	res, err := p.ParseArgs([]string{"-n", "x", "run", "--fast"})
	require.NoError(t, err)
	assert.Equal(t, "x", res.Get("name"))
	assert.Equal(t, 1, res.Get("count"))
	assert.Equal(t, "run", res.Get("COMMAND"))
	assert.Equal(t, true, res.Get("fast"))
}

func TestFromConfigFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "spec.yaml", `
prog: greet
arguments:
  - flags: ["--who"]
    default: world
`)
	p, err := FromConfig(path)
	require.NoError(t, err)

	res, err := p.ParseArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "world", res.Get("who"))
}

func TestFromConfigLaterSourcesWin(t *testing.T) {
	t.Parallel()

	p, err := FromConfig(
		map[string]any{"prog": "a", "description": "first"},
		map[string]any{"description": "second"},
	)
	require.NoError(t, err)
	assert.Equal(t, "a", p.Prog)
	assert.Equal(t, "second", p.Description)
}

func TestFromConfigNamespacesAndGroups(t *testing.T) {
	t.Parallel()

	p, err := FromConfig(map[string]any{
		"prog": "svc",
		"namespaces": []any{
			map[string]any{
				"name":  "db",
				"title": "database options",
				"arguments": []any{
					map[string]any{"flags": []any{"--db.host"}, "default": "localhost"},
				},
			},
		},
		"groups": []any{
			map[string]any{
				"title": "tuning",
				"arguments": []any{
					map[string]any{"flags": []any{"--jobs"}, "type": "int", "default": 4},
				},
			},
		},
	})
	require.NoError(t, err)

	out := p.FormatHelp(false)
	assert.Contains(t, out, "Database Options:")
	assert.Contains(t, out, "Tuning:")

	res, err := p.ParseArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "localhost", res.Get("db.host"))
	assert.Equal(t, 4, res.Get("jobs"))
}

func TestFromConfigAddHelpForms(t *testing.T) {
	t.Parallel()

	p, err := FromConfig(map[string]any{"prog": "x", "add_help": false})
	require.NoError(t, err)
	assert.NotContains(t, p.FormatHelp(false), "show this help message")

	p, err = FromConfig(map[string]any{"prog": "x", "add_help": "H, usage"})
	require.NoError(t, err)
	assert.Contains(t, p.FormatHelp(false), "--usage")
}

func TestFromConfigConstructionError(t *testing.T) {
	t.Parallel()

	_, err := FromConfig(map[string]any{
		"prog": "bad",
		"arguments": []any{
			map[string]any{"flags": []any{"--a"}, "dest": "x"},
			map[string]any{"flags": []any{"--b"}, "dest": "x"},
		},
	})
	require.Error(t, err)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
