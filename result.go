package argx

import (
	"fmt"
	"sort"
	"strings"
)

// Namespace is a node in the nested result tree. Attribute-style access is
// spelled Get("a.b.c"); child namespaces are themselves *Namespace values.
type Namespace struct {
	attrs map[string]any
}

func newNamespace() *Namespace {
	return &Namespace{attrs: make(map[string]any)}
}

// Lookup walks the dotted name through nested namespaces (and through raw
// mappings left by blob values).
func (n *Namespace) Lookup(name string) (any, bool) {
	parts := strings.Split(name, ".")
	cur := any(n)
	for _, part := range parts {
		switch node := cur.(type) {
		case *Namespace:
			v, ok := node.attrs[part]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

// Get returns the value at the dotted name, or nil when absent.
func (n *Namespace) Get(name string) any {
	v, _ := n.Lookup(name)
	return v
}

// Namespace returns the child namespace at the dotted name, or nil.
func (n *Namespace) Namespace(name string) *Namespace {
	v, _ := n.Lookup(name)
	ns, _ := v.(*Namespace)
	return ns
}

// GetString returns the value at the dotted name as a string, or "" when
// absent or of another type.
func (n *Namespace) GetString(name string) string {
	s, _ := n.Get(name).(string)
	return s
}

// GetBool returns the value at the dotted name as a bool, or false.
func (n *Namespace) GetBool(name string) bool {
	b, _ := n.Get(name).(bool)
	return b
}

// GetInt returns the value at the dotted name as an int, accepting the
// integer widths the config decoders produce. Returns 0 otherwise.
func (n *Namespace) GetInt(name string) int {
	switch v := n.Get(name).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// GetFloat returns the value at the dotted name as a float64, or 0.
func (n *Namespace) GetFloat(name string) float64 {
	switch v := n.Get(name).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Keys returns the node's attribute names, sorted.
func (n *Namespace) Keys() []string {
	keys := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToMap converts the subtree back to plain nested mappings.
func (n *Namespace) ToMap() map[string]any {
	out := make(map[string]any, len(n.attrs))
	for k, v := range n.attrs {
		if child, ok := v.(*Namespace); ok {
			out[k] = child.ToMap()
			continue
		}
		out[k] = v
	}
	return out
}

func (n *Namespace) String() string {
	parts := make([]string, 0, len(n.attrs))
	for _, k := range n.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%v", k, n.attrs[k]))
	}
	return "Namespace(" + strings.Join(parts, ", ") + ")"
}

// Result is what a parse invocation produces: the delegate's flat
// destination-to-value mapping plus its projection into nested namespaces.
type Result struct {
	ns      *Namespace
	flat    map[string]any
	nsDests []string
	rest    []string
	void    bool
}

// Get returns the value at the dotted destination in the nested tree.
func (r *Result) Get(name string) any { return r.ns.Get(name) }

// Lookup is Get with an existence report.
func (r *Result) Lookup(name string) (any, bool) { return r.ns.Lookup(name) }

// Namespace returns a nested namespace node by dotted name.
func (r *Result) Namespace(name string) *Namespace { return r.ns.Namespace(name) }

// GetString returns the value at the dotted destination as a string.
func (r *Result) GetString(name string) string { return r.ns.GetString(name) }

// GetBool returns the value at the dotted destination as a bool.
func (r *Result) GetBool(name string) bool { return r.ns.GetBool(name) }

// GetInt returns the value at the dotted destination as an int.
func (r *Result) GetInt(name string) int { return r.ns.GetInt(name) }

// GetFloat returns the value at the dotted destination as a float64.
func (r *Result) GetFloat(name string) float64 { return r.ns.GetFloat(name) }

// Flat returns the delegate-shaped flat mapping.
func (r *Result) Flat() map[string]any { return r.flat }

// ToMap converts the nested result tree to plain nested mappings.
func (r *Result) ToMap() map[string]any { return r.ns.ToMap() }

// Rest returns the positional tokens left over by ParseKnownArgs.
func (r *Result) Rest() []string { return r.rest }

// Void reports that the invocation supplied no arguments and no non-empty
// defaults.
func (r *Result) Void() bool { return r.void }

// project materializes the flat result into nested namespaces. Blob values
// from namespace-valued options are placed first so that more specific
// dotted destinations sharing their prefix override them field by field;
// deeper conflicts replace wholesale.
func project(flat map[string]any, nsDests []string) *Namespace {
	root := newNamespace()

	consumed := make(map[string]bool, len(nsDests))
	for _, dest := range nsDests {
		blob, ok := flat[dest].(map[string]any)
		if !ok {
			continue
		}
		node := ensurePath(root, strings.Split(dest, "."))
		for k, v := range blob {
			node.attrs[k] = materialize(v)
		}
		consumed[dest] = true
	}

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, dest := range keys {
		if consumed[dest] {
			continue
		}
		if !strings.Contains(dest, ".") {
			// Undotted destinations copy through unchanged.
			root.attrs[dest] = flat[dest]
			continue
		}
		parts := strings.Split(dest, ".")
		node := ensurePath(root, parts[:len(parts)-1])
		node.attrs[parts[len(parts)-1]] = flat[dest]
	}
	return root
}

// ensurePath walks/creates namespace nodes along the path. Registration
// guarantees every dotted destination decomposes into exactly one path, so
// a non-namespace value on the way is simply replaced.
func ensurePath(root *Namespace, parts []string) *Namespace {
	node := root
	for _, part := range parts {
		child, ok := node.attrs[part].(*Namespace)
		if !ok {
			if m, isMap := node.attrs[part].(map[string]any); isMap {
				child = materializeMap(m)
			} else {
				child = newNamespace()
			}
			node.attrs[part] = child
		}
		node = child
	}
	return node
}

// materialize converts nested mappings into namespaces for uniform access.
func materialize(v any) any {
	if m, ok := v.(map[string]any); ok {
		return materializeMap(m)
	}
	return v
}

func materializeMap(m map[string]any) *Namespace {
	ns := newNamespace()
	for k, v := range m {
		ns.attrs[k] = materialize(v)
	}
	return ns
}
