package argx

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Converter turns the raw string supplied on the command line into the value
// stored in the result. Converters registered under a short name can be
// referenced from Option.Type and from parser definition files.
type Converter func(s string) (any, error)

// builtinConverters is the registry of named converters every parser starts
// with. RegisterType adds to or overrides the per-parser copy.
func builtinConverters() map[string]Converter {
	return map[string]Converter{
		"str":   convertString,
		"int":   convertInt,
		"float": convertFloat,
		"bool":  convertBool,
		"json":  ConvertJSON,
		"path":  ConvertPath,
		"auto":  ConvertAuto,
		"lit":   ConvertLiteral,
		"py":    ConvertLiteral, // compatibility alias for older definition files
	}
}

func convertString(s string) (any, error) { return s, nil }

func convertInt(s string) (any, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("not an integer")
	}
	return n, nil
}

func convertFloat(s string) (any, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number")
	}
	return f, nil
}

func convertBool(s string) (any, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return nil, fmt.Errorf("not a boolean")
}

// ConvertJSON decodes a JSON document into Go values (map[string]any,
// []any, float64, string, bool, nil).
func ConvertJSON(s string) (any, error) {
	if !gjson.Valid(s) {
		return nil, fmt.Errorf("malformed JSON")
	}
	return gjson.Parse(s).Value(), nil
}

// ConvertPath cleans the string as a filesystem path. It never fails.
func ConvertPath(s string) (any, error) {
	return filepath.Clean(s), nil
}

// ConvertAuto guesses the value type with an ordered trial sequence:
// boolean literal, null literal, integer, float, JSON document, raw string.
// Only the boolean and null trials are case-insensitive.
func ConvertAuto(s string) (any, error) {
	switch strings.ToLower(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "none", "null":
		return nil, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	if len(s) > 0 && strings.ContainsRune(`{["`, rune(s[0])) && gjson.Valid(s) {
		return gjson.Parse(s).Value(), nil
	}
	return s, nil
}

// ConvertLiteral safely evaluates a Go literal expression: basic literals,
// true/false/nil, signed numbers, and slice or map composite literals made
// of those. Anything else is rejected.
func ConvertLiteral(s string) (any, error) {
	expr, err := parser.ParseExpr(s)
	if err != nil {
		return nil, fmt.Errorf("not a literal: %v", err)
	}
	return evalLiteral(expr)
}

func evalLiteral(expr ast.Expr) (any, error) {
	switch v := expr.(type) {
	case *ast.BasicLit:
		switch v.Kind {
		case token.INT:
			n, err := strconv.ParseInt(v.Value, 0, 64)
			if err != nil {
				return nil, err
			}
			return int(n), nil
		case token.FLOAT:
			return strconv.ParseFloat(v.Value, 64)
		case token.STRING, token.CHAR:
			return strconv.Unquote(v.Value)
		}
	case *ast.Ident:
		switch v.Name {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "nil":
			return nil, nil
		}
	case *ast.UnaryExpr:
		if v.Op == token.SUB || v.Op == token.ADD {
			inner, err := evalLiteral(v.X)
			if err != nil {
				return nil, err
			}
			if v.Op == token.ADD {
				return inner, nil
			}
			switch n := inner.(type) {
			case int:
				return -n, nil
			case float64:
				return -n, nil
			}
		}
	case *ast.ParenExpr:
		return evalLiteral(v.X)
	case *ast.CompositeLit:
		return evalCompositeLiteral(v)
	}
	return nil, fmt.Errorf("unsupported expression %T", expr)
}

func evalCompositeLiteral(lit *ast.CompositeLit) (any, error) {
	if _, isMap := lit.Type.(*ast.MapType); isMap {
		out := make(map[string]any, len(lit.Elts))
		for _, elt := range lit.Elts {
			kv, ok := elt.(*ast.KeyValueExpr)
			if !ok {
				return nil, fmt.Errorf("map literal element is not key: value")
			}
			key, err := evalLiteral(kv.Key)
			if err != nil {
				return nil, err
			}
			val, err := evalLiteral(kv.Value)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprintf("%v", key)] = val
		}
		return out, nil
	}

	out := make([]any, 0, len(lit.Elts))
	for _, elt := range lit.Elts {
		val, err := evalLiteral(elt)
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
	return out, nil
}
