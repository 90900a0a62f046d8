package conf

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// decodeHCL evaluates top-level attributes and flattens blocks into nested
// mappings. Expressions are evaluated with no variable scope; anything that
// needs one is a decode error.
func decodeHCL(path string, b []byte) (map[string]any, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(b, path)
	if diags.HasErrors() {
		return nil, &DecodeError{Path: path, Err: diags}
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("unexpected body type %T", file.Body)}
	}
	return decodeHCLBody(path, body)
}

func decodeHCLBody(path string, body *hclsyntax.Body) (map[string]any, error) {
	m := make(map[string]any, len(body.Attributes)+len(body.Blocks))
	for name, attr := range body.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, &DecodeError{Path: path, Err: diags}
		}
		gv, err := ctyToGo(val)
		if err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
		m[name] = gv
	}
	for _, block := range body.Blocks {
		nested, err := decodeHCLBody(path, block.Body)
		if err != nil {
			return nil, err
		}
		// Labels become intermediate mapping levels under the block type.
		target := m
		keys := append([]string{block.Type}, block.Labels...)
		for _, key := range keys[:len(keys)-1] {
			next, ok := target[key].(map[string]any)
			if !ok {
				next = make(map[string]any)
				target[key] = next
			}
			target = next
		}
		target[keys[len(keys)-1]] = nested
	}
	return m, nil
}

// ctyToGo lowers a cty value into plain Go values: strings, bools, int64 or
// float64 numbers, []any, and map[string]any.
func ctyToGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if n, acc := bf.Int64(); acc == big.Exact {
			return n, nil
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			gv, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			kv, ev := it.Element()
			gv, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			out[kv.AsString()] = gv
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}
