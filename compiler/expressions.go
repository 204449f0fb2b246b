package compiler

import (
	"strings"

	"github.com/Konsultn-Engineering/metal/ast"
)

func renderBinary(c *Compiler, ctx *Context, node ast.Expression) (string, error) {
	b := node.(*ast.Binary)
	if !ast.IsComparisonOperator(b.Operator) {
		return "", invalid("unknown comparison operator %q", b.Operator)
	}
	left, err := c.Operand(ctx, b.Left)
	if err != nil {
		return "", err
	}
	right, err := c.Operand(ctx, b.Right)
	if err != nil {
		return "", err
	}
	return left + " " + b.Operator + " " + right, nil
}

func renderLogical(c *Compiler, ctx *Context, node ast.Expression) (string, error) {
	l := node.(*ast.Logical)
	if l.Operator != ast.OpAnd && l.Operator != ast.OpOr {
		return "", invalid("unknown logical operator %q", l.Operator)
	}
	if len(l.Operands) == 0 {
		return "", invalid("%s without operands", l.Operator)
	}
	parts := make([]string, len(l.Operands))
	for i, e := range l.Operands {
		s, err := c.Expression(ctx, e)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, " "+string(l.Operator)+" ") + ")", nil
}

func renderNull(c *Compiler, ctx *Context, node ast.Expression) (string, error) {
	n := node.(*ast.Null)
	s, err := c.Operand(ctx, n.Operand)
	if err != nil {
		return "", err
	}
	if n.Negated {
		return s + " IS NOT NULL", nil
	}
	return s + " IS NULL", nil
}

func renderIn(c *Compiler, ctx *Context, node ast.Expression) (string, error) {
	in := node.(*ast.In)
	if in.Subquery == nil && len(in.Values) == 0 {
		// x IN () is not valid SQL; it is never true.
		if in.Negated {
			return "1 = 1", nil
		}
		return "1 = 0", nil
	}

	left, err := c.Operand(ctx, in.Operand)
	if err != nil {
		return "", err
	}
	op := " IN "
	if in.Negated {
		op = " NOT IN "
	}

	var list string
	if in.Subquery != nil {
		list, err = c.Select(ctx, in.Subquery)
	} else {
		list, err = c.Operands(ctx, in.Values)
	}
	if err != nil {
		return "", err
	}
	return left + op + "(" + list + ")", nil
}

func renderExists(c *Compiler, ctx *Context, node ast.Expression) (string, error) {
	e := node.(*ast.Exists)
	if e.Subquery == nil {
		return "", invalid("EXISTS without a subquery")
	}
	sql, err := c.selectStatement(ctx, e.Subquery, "1")
	if err != nil {
		return "", err
	}
	if e.Negated {
		return "NOT EXISTS (" + sql + ")", nil
	}
	return "EXISTS (" + sql + ")", nil
}

func renderBetween(c *Compiler, ctx *Context, node ast.Expression) (string, error) {
	b := node.(*ast.Between)
	s, err := c.Operand(ctx, b.Operand)
	if err != nil {
		return "", err
	}
	lo, err := c.Operand(ctx, b.Lower)
	if err != nil {
		return "", err
	}
	hi, err := c.Operand(ctx, b.Upper)
	if err != nil {
		return "", err
	}
	op := " BETWEEN "
	if b.Negated {
		op = " NOT BETWEEN "
	}
	return s + op + lo + " AND " + hi, nil
}
