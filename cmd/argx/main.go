package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pwwang/argx"
)

// main is the entrypoint for the argx demo tool: it builds a parser from a
// definition file and parses the tokens after "--" with it.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *argx.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the tool logic for easier testing and error handling.
func run(outW io.Writer, args []string) error {
	meta := argx.New("argx",
		argx.WithDescription("Build a parser from a definition file and run it."),
		argx.WithOutput(outW, outW),
	)
	meta.AddArgument(&argx.Option{
		Flags:    []string{"-s", "--spec"},
		Type:     "path",
		Required: true,
		Help:     "Parser definition file (json/yaml/toml/ini/env/hcl).",
	})
	meta.AddArgument(&argx.Option{
		Flags:   []string{"--log-level"},
		Default: "info",
		Choices: []string{"debug", "info", "warn", "error"},
		Help:    "Set the logging level.",
	})
	meta.AddArgument(&argx.Option{
		Flags:   []string{"--log-format"},
		Default: "text",
		Choices: []string{"text", "json"},
		Help:    "Log output format.",
	})

	res, rest, err := meta.ParseKnownArgs(args)
	if errors.Is(err, argx.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	slog.SetDefault(newLogger(
		res.Get("log_level").(string),
		res.Get("log_format").(string),
		os.Stderr,
	))

	parser, err := argx.FromConfig(res.Get("spec").(string))
	if err != nil {
		return err
	}
	parser = withOutput(parser, outW)

	parsed, err := parser.ParseArgs(rest)
	if errors.Is(err, argx.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(outW)
	enc.SetIndent("", "  ")
	return enc.Encode(parsed.ToMap())
}

// withOutput redirects the built parser's help and error streams to the
// tool's output writer.
func withOutput(p *argx.Parser, w io.Writer) *argx.Parser {
	p.SetOutput(w, w)
	return p
}
