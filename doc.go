// Package argx supercharges command-line parsing without owning a parsing
// engine. Token scanning and flag matching are delegated to spf13/pflag;
// argx wraps the delegate with config-file defaults (the @file directive),
// dotted-namespace destinations projected into nested result namespaces,
// subcommand shortcuts, a two-level help listing (--help and --help+), and
// a registry of named value converters.
package argx
