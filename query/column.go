package query

import (
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/metal/ast"
)

// parseRawColumn turns a raw column reference into an operand. Accepted
// shapes, each with an optional case-insensitive " AS alias" suffix:
//
//	column          qualified with defaultTable
//	table.column
//	*  table.*
//	fn(arg)         arg is empty, * or one of the column shapes above
//
// One dot and one pair of parentheses at most; anything else is rejected.
func parseRawColumn(spec, defaultTable string) (ast.Operand, error) {
	expr, alias, err := splitAlias(strings.TrimSpace(spec))
	if err != nil {
		return nil, rawError(spec, err.Error())
	}
	if expr == "" {
		return nil, rawError(spec, "empty expression")
	}

	var op ast.Operand
	if open := strings.IndexByte(expr, '('); open >= 0 {
		op, err = parseRawFunction(expr, open, defaultTable)
	} else {
		op, err = parseRawReference(expr, defaultTable)
	}
	if err != nil {
		return nil, rawError(spec, err.Error())
	}
	if alias != "" {
		op = ast.WithAlias(op, alias)
	}
	return op, nil
}

func rawError(spec, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidRaw, spec, reason)
}

func splitAlias(spec string) (expr, alias string, err error) {
	idx := strings.Index(strings.ToUpper(spec), " AS ")
	if idx < 0 {
		return spec, "", nil
	}
	expr = strings.TrimSpace(spec[:idx])
	alias = strings.TrimSpace(spec[idx+4:])
	if !isPlainName(alias) {
		return "", "", fmt.Errorf("bad alias %q", alias)
	}
	return expr, alias, nil
}

func parseRawFunction(expr string, open int, defaultTable string) (ast.Operand, error) {
	if strings.Count(expr, "(") != 1 || strings.Count(expr, ")") != 1 || !strings.HasSuffix(expr, ")") {
		return nil, fmt.Errorf("expected a single fn(arg) call")
	}
	name := strings.TrimSpace(expr[:open])
	if !isPlainName(name) {
		return nil, fmt.Errorf("bad function name %q", name)
	}
	arg := strings.TrimSpace(expr[open+1 : len(expr)-1])
	if arg == "" {
		return &ast.Function{Name: name}, nil
	}
	inner, err := parseRawReference(arg, defaultTable)
	if err != nil {
		return nil, err
	}
	return &ast.Function{Name: name, Args: []ast.Operand{inner}}, nil
}

func parseRawReference(ref, defaultTable string) (*ast.Column, error) {
	if ref == "*" {
		return ast.Star(""), nil
	}
	switch strings.Count(ref, ".") {
	case 0:
		if !isPlainName(ref) {
			return nil, fmt.Errorf("bad column %q", ref)
		}
		return ast.Col(defaultTable, ref), nil
	case 1:
		dot := strings.IndexByte(ref, '.')
		table, name := ref[:dot], ref[dot+1:]
		if !isPlainName(table) {
			return nil, fmt.Errorf("bad table %q", table)
		}
		if name == "*" {
			return ast.Star(table), nil
		}
		if !isPlainName(name) {
			return nil, fmt.Errorf("bad column %q", name)
		}
		return ast.Col(table, name), nil
	default:
		return nil, fmt.Errorf("more than one dot in %q", ref)
	}
}

// isPlainName accepts letters, digits and underscores, not starting with a
// digit.
func isPlainName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
