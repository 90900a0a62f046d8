// Package conf loads configuration files into the flat-or-nested mappings
// the parser layers into its default set. The decoder is selected by file
// extension; a plain .txt file is not a mapping at all but a token
// sequence, so Load returns any and callers branch on the concrete type.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
	ini "gopkg.in/ini.v1"
	yaml "gopkg.in/yaml.v3"
)

// UnsupportedFormatError reports a config file whose extension has no
// registered decoder.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported config format %q (%s)", e.Ext, e.Path)
}

// DecodeError reports malformed content in a recognized format.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Load reads a config file, returning either a map[string]any of defaults
// or, for .txt files, a []string of whitespace-split tokens.
func Load(path string) (any, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".txt" {
		return LoadTokens(path)
	}
	return LoadMapping(path)
}

// LoadMapping reads a structured config file into a mapping.
func LoadMapping(path string) (map[string]any, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return nil, &UnsupportedFormatError{Path: path, Ext: ext}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := decode(path, b)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// LoadTokens reads a plain text file as a flat token sequence, split on
// whitespace and newlines.
func LoadTokens(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Fields(string(b)), nil
}

// Merge loads each source (a mapping or a config-file path) and merges them
// in order, later sources winning; nested mappings merge recursively.
func Merge(sources ...any) (map[string]any, error) {
	out := make(map[string]any)
	for _, src := range sources {
		switch s := src.(type) {
		case map[string]any:
			mergeInto(out, s)
		case string:
			m, err := LoadMapping(s)
			if err != nil {
				return nil, err
			}
			mergeInto(out, m)
		default:
			return nil, fmt.Errorf("cannot load config from %T", src)
		}
	}
	return out, nil
}

// mergeInto layers src over dst. Nested mappings are cloned before being
// adopted so later merges never write back into a caller's source map.
func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			prev, ok := dst[k].(map[string]any)
			if !ok {
				prev = make(map[string]any, len(sub))
				dst[k] = prev
			}
			mergeInto(prev, sub)
			continue
		}
		dst[k] = v
	}
}

type decoder func(path string, b []byte) (map[string]any, error)

var decoders = map[string]decoder{
	".json": decodeJSON,
	".yaml": decodeYAML,
	".yml":  decodeYAML,
	".toml": decodeTOML,
	".ini":  decodeINI,
	".cfg":  decodeINI,
	".env":  decodeENV,
	".hcl":  decodeHCL,
}

func decodeJSON(path string, b []byte) (map[string]any, error) {
	if !gjson.ValidBytes(b) {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("malformed JSON")}
	}
	v := gjson.ParseBytes(b).Value()
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("top-level value is not an object")}
	}
	return m, nil
}

func decodeYAML(path string, b []byte) (map[string]any, error) {
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return m, nil
}

func decodeTOML(path string, b []byte) (map[string]any, error) {
	var m map[string]any
	if err := toml.Unmarshal(b, &m); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return m, nil
}

// decodeINI maps each section to a nested mapping; keys in the unnamed
// default section land at the top level. Values stay strings.
func decodeINI(path string, b []byte) (map[string]any, error) {
	f, err := ini.Load(b)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	m := make(map[string]any)
	for _, sec := range f.Sections() {
		target := m
		if sec.Name() != ini.DefaultSection {
			nested := make(map[string]any, len(sec.Keys()))
			m[sec.Name()] = nested
			target = nested
		}
		for _, key := range sec.Keys() {
			target[key.Name()] = key.Value()
		}
	}
	return m, nil
}

func decodeENV(path string, b []byte) (map[string]any, error) {
	kv, err := godotenv.UnmarshalBytes(b)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	m := make(map[string]any, len(kv))
	for k, v := range kv {
		m[k] = v
	}
	return m, nil
}
