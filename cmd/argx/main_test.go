package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwwang/argx"
)

func writeSpec(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunParsesAgainstSpec(t *testing.T) {
	spec := writeSpec(t, "spec.yaml", `
prog: greet
arguments:
  - flags: ["--who"]
    default: world
  - flags: ["--times"]
    type: int
    default: 1
`)

	var out bytes.Buffer
	err := run(&out, []string{"-s", spec, "--who", "gopher"})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "gopher", got["who"])
	assert.Equal(t, float64(1), got["times"])
}

func TestRunHelp(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(&out, []string{"--help"}))
	assert.Contains(t, out.String(), "Usage:")
}

func TestRunMissingSpec(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, nil)
	require.Error(t, err)
	var exitErr *argx.ExitError
	assert.ErrorAs(t, err, &exitErr)
}

func TestNewLogger(t *testing.T) {
	var out bytes.Buffer
	logger := newLogger("debug", "json", &out)
	logger.Debug("hello", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "DEBUG", line["level"])

	out.Reset()
	newLogger("warn", "text", &out).Info("dropped")
	assert.Empty(t, out.String())
}

func TestRunBadSpecFile(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"-s", filepath.Join(t.TempDir(), "absent.yaml")})
	assert.Error(t, err)
}
