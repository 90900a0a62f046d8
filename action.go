package argx

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// optionValue adapts an Option to the delegate's value interface. The
// delegate calls Set once per occurrence on the command line; all
// accumulation state lives on the invocation, so descriptors stay clean
// between parse calls.
type optionValue struct {
	opt *Option
	inv *invocation
}

func (v *optionValue) String() string { return "" }

func (v *optionValue) Type() string {
	if v.opt.Type != "" {
		return v.opt.Type
	}
	return "value"
}

func (v *optionValue) Set(s string) error {
	opt, inv := v.opt, v.inv
	dest := opt.Dest

	switch opt.Action {
	case ActionStoreTrue, ActionStoreFalse, ActionStoreConst:
		inv.values[dest] = opt.Const

	case ActionCount:
		cur, ok := inv.values[dest].(int)
		if !ok || !inv.received[dest] {
			cur = asInt(inv.effectiveDefault(opt))
		}
		inv.values[dest] = cur + 1

	case ActionAppendConst:
		items := v.startItems()
		inv.values[dest] = append(items, opt.Const)

	default:
		val, err := v.convert(s)
		if err != nil {
			return err
		}
		switch opt.Action {
		case ActionAppend:
			inv.values[dest] = append(v.startItems(), val)
		case ActionExtend:
			items := v.startItems()
			if elems, ok := asAnySlice(val); ok {
				items = append(items, elems...)
			} else {
				items = append(items, val)
			}
			inv.values[dest] = items
		case ActionList:
			// A list restarts from empty on the first command-line value,
			// discarding the declared default.
			var items []any
			if inv.received[dest] {
				items, _ = asAnySlice(inv.values[dest])
			}
			inv.values[dest] = append(items, val)
		case ActionNamespace:
			m, ok := val.(map[string]any)
			if !ok {
				return v.fail(s, fmt.Errorf("expected a JSON object"))
			}
			inv.values[dest] = m
		default: // store
			inv.values[dest] = val
		}
	}

	inv.received[dest] = true
	return nil
}

func (v *optionValue) convert(s string) (any, error) {
	opt := v.opt
	if len(opt.Choices) > 0 && !slices.Contains(opt.Choices, s) {
		return nil, v.fail(s, fmt.Errorf("not one of %s", strings.Join(opt.Choices, ", ")))
	}
	val, err := opt.Converter(s)
	if err != nil {
		return nil, v.fail(s, err)
	}
	return val, nil
}

// fail records the typed conversion error on the invocation so the parse
// flow can surface it instead of the delegate's flattened message, and
// hands the bare cause back to the delegate.
func (v *optionValue) fail(s string, cause error) error {
	v.inv.convErr = &ValueError{Flag: v.opt.Flags[0], Value: s, Err: cause}
	return cause
}

// startItems yields the collection an append-style action grows: the
// already-accumulated items on repeat occurrences, otherwise a deep copy of
// the effective default.
func (v *optionValue) startItems() []any {
	inv, dest := v.inv, v.opt.Dest
	if inv.received[dest] {
		if items, ok := asAnySlice(inv.values[dest]); ok {
			return items
		}
	}
	base := copyValue(inv.effectiveDefault(v.opt))
	if items, ok := asAnySlice(base); ok {
		return items
	}
	return nil
}

// asAnySlice normalizes any slice value to []any.
func asAnySlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
