package argx

import (
	"reflect"
	"strings"
)

// Actions understood by AddArgument. Store is assumed when none is given.
const (
	ActionStore       = "store"
	ActionStoreTrue   = "store_true"
	ActionStoreFalse  = "store_false"
	ActionStoreConst  = "store_const"
	ActionAppend      = "append"
	ActionAppendConst = "append_const"
	ActionCount       = "count"
	ActionExtend      = "extend"
	ActionList        = "list"
	ActionNamespace   = "ns"
)

// Option describes a single command-line option. The structure is immutable
// once registered; per-invocation state lives on the parse invocation, never
// on the Option itself.
type Option struct {
	// Flags are the accepted spellings, e.g. []string{"-f", "--foo.bar"}.
	Flags []string

	// Dest is the dotted destination name. Defaults to the first long flag
	// with dashes mapped to underscores (dots are preserved).
	Dest string

	// Action selects how supplied values combine. See the Action constants.
	Action string

	// Default is the hardcoded default. Mutable defaults (slices, maps) are
	// deep-copied per parse invocation.
	Default any

	// Type names a registered converter ("int", "json", "auto", ...).
	// Converter, when set, takes precedence over Type.
	Type      string
	Converter Converter

	// Const is the value stored by store_const and append_const.
	Const any

	// Choices restricts the accepted raw values.
	Choices []string

	Required bool

	// Hidden options only appear in the unabridged (--help+) listing.
	Hidden bool

	Help    string
	Metavar string

	group     *Group
	name      string // delegate flag name (first long flag)
	shorthand string // single-letter spelling, if any
}

// takesValue reports whether the option consumes a value token.
func (o *Option) takesValue() bool {
	switch o.Action {
	case ActionStoreTrue, ActionStoreFalse, ActionStoreConst,
		ActionAppendConst, ActionCount:
		return false
	}
	return true
}

func (o *Option) metavar() string {
	if o.Metavar != "" {
		return o.Metavar
	}
	parts := strings.Split(o.Dest, ".")
	return strings.ToUpper(strings.ReplaceAll(parts[len(parts)-1], "-", "_"))
}

// displayFlags renders the spellings for help output.
func (o *Option) displayFlags() string {
	out := strings.Join(o.Flags, ", ")
	if o.takesValue() {
		out += " " + o.metavar()
	}
	return out
}

// finalize derives the delegate flag name, shorthand, and destination from
// the declared spellings.
func (o *Option) finalize() error {
	if len(o.Flags) == 0 {
		return configErrorf("option has no flags")
	}
	if o.Action == "" {
		o.Action = ActionStore
	}
	switch o.Action {
	case ActionStore, ActionStoreTrue, ActionStoreFalse, ActionStoreConst,
		ActionAppend, ActionAppendConst, ActionCount, ActionExtend,
		ActionList, ActionNamespace:
	default:
		return configErrorf("unknown action %q for %s", o.Action, o.Flags[0])
	}

	for _, f := range o.Flags {
		trimmed := strings.TrimLeft(f, "-")
		if trimmed == "" {
			return configErrorf("malformed flag %q", f)
		}
		if strings.HasPrefix(f, "--") || len(trimmed) > 1 {
			if o.name == "" {
				o.name = trimmed
			}
		} else if o.shorthand == "" {
			o.shorthand = trimmed
		}
	}
	if o.name == "" {
		// Short-only option: the shorthand doubles as the delegate name so
		// the delegate accepts both -x and --x.
		o.name = o.shorthand
	}

	if o.Dest == "" {
		o.Dest = strings.ReplaceAll(o.name, "-", "_")
	}
	if strings.HasPrefix(o.Dest, ".") || strings.HasSuffix(o.Dest, ".") ||
		strings.Contains(o.Dest, "..") {
		return configErrorf("malformed destination %q", o.Dest)
	}

	switch o.Action {
	case ActionStoreTrue:
		if o.Default == nil {
			o.Default = false
		}
		o.Const = true
	case ActionStoreFalse:
		if o.Default == nil {
			o.Default = true
		}
		o.Const = false
	case ActionNamespace:
		if o.Type == "" && o.Converter == nil {
			o.Type = "json"
		}
	}
	if o.Type == "" && o.Converter == nil {
		o.Type = "str"
	}
	return nil
}

// copyValue deep-copies slices and maps so a mutable default is never
// aliased between invocations. Scalars are returned as-is.
func copyValue(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if ev := copyValue(rv.Index(i).Interface()); ev != nil {
				out.Index(i).Set(reflect.ValueOf(ev))
			}
		}
		return out.Interface()
	case reflect.Map:
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			ev := copyValue(iter.Value().Interface())
			if ev == nil {
				out.SetMapIndex(iter.Key(), reflect.Zero(rv.Type().Elem()))
				continue
			}
			out.SetMapIndex(iter.Key(), reflect.ValueOf(ev))
		}
		return out.Interface()
	}
	return v
}

// emptyValue reports whether a default counts as "nothing provided" for the
// void-invocation policy: nil, zero scalars, and empty collections.
func emptyValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.String:
		return rv.Len() == 0
	}
	return rv.IsZero()
}
