package compiler

import (
	"regexp"
	"strings"

	"github.com/Konsultn-Engineering/metal/ast"
)

var (
	functionNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
	jsonPathPattern     = regexp.MustCompile(`^\$(\.[A-Za-z_][A-Za-z0-9_]*|\[[0-9]+\])*$`)
)

func (c *Compiler) registerDefaults() {
	c.operands[ast.NodeLiteral] = renderLiteral
	c.operands[ast.NodeColumn] = renderColumn
	c.operands[ast.NodeFunction] = renderFunction
	c.operands[ast.NodeJSONPath] = renderJSONPath
	c.operands[ast.NodeScalarSubquery] = renderScalarSubquery
	c.operands[ast.NodeCase] = renderCase
	c.operands[ast.NodeWindowFunction] = renderWindowFunction

	c.exprs[ast.NodeBinary] = renderBinary
	c.exprs[ast.NodeLogical] = renderLogical
	c.exprs[ast.NodeNull] = renderNull
	c.exprs[ast.NodeIn] = renderIn
	c.exprs[ast.NodeExists] = renderExists
	c.exprs[ast.NodeBetween] = renderBetween
}

func renderLiteral(_ *Compiler, ctx *Context, node ast.Operand) (string, error) {
	lit := node.(*ast.Literal)
	if lit.Value == nil {
		return "NULL", nil
	}
	return ctx.AddParam(lit.Value), nil
}

func renderColumn(c *Compiler, _ *Context, node ast.Operand) (string, error) {
	col := node.(*ast.Column)
	if col.Name == "" {
		return "", invalid("column without a name")
	}
	if col.Table == ast.ExcludedTable {
		return c.dialect.ExcludedColumn(col.Name)
	}
	name := "*"
	if !col.IsStar() {
		name = c.Quote(col.Name)
	}
	if col.Table == "" {
		return name, nil
	}
	return c.Quote(col.Table) + "." + name, nil
}

func renderFunction(c *Compiler, ctx *Context, node ast.Operand) (string, error) {
	fn := node.(*ast.Function)
	if !functionNamePattern.MatchString(fn.Name) {
		return "", invalid("invalid function name %q", fn.Name)
	}
	args, err := c.Operands(ctx, fn.Args)
	if err != nil {
		return "", err
	}
	if fn.Distinct {
		args = "DISTINCT " + args
	}
	return c.dialect.FunctionName(strings.ToUpper(fn.Name)) + "(" + args + ")", nil
}

func renderJSONPath(c *Compiler, ctx *Context, node ast.Operand) (string, error) {
	jp := node.(*ast.JSONPath)
	if jp.Column == nil {
		return "", invalid("JSON path without a column")
	}
	if !jsonPathPattern.MatchString(jp.Path) {
		return "", invalid("invalid JSON path %q", jp.Path)
	}
	col, err := c.Operand(ctx, jp.Column)
	if err != nil {
		return "", err
	}
	return c.dialect.JSONPath(col, jp.Path)
}

func renderScalarSubquery(c *Compiler, ctx *Context, node ast.Operand) (string, error) {
	sq := node.(*ast.ScalarSubquery)
	if sq.Query == nil {
		return "", invalid("scalar subquery without a query")
	}
	sql, err := c.Select(ctx, sq.Query)
	if err != nil {
		return "", err
	}
	return "(" + sql + ")", nil
}

func renderCase(c *Compiler, ctx *Context, node ast.Operand) (string, error) {
	cs := node.(*ast.Case)
	if len(cs.Whens) == 0 {
		return "", invalid("CASE without WHEN branches")
	}
	var sb strings.Builder
	sb.WriteString("CASE")
	for _, w := range cs.Whens {
		cond, err := c.Expression(ctx, w.Condition)
		if err != nil {
			return "", err
		}
		res, err := c.Operand(ctx, w.Result)
		if err != nil {
			return "", err
		}
		sb.WriteString(" WHEN ")
		sb.WriteString(cond)
		sb.WriteString(" THEN ")
		sb.WriteString(res)
	}
	if cs.Else != nil {
		e, err := c.Operand(ctx, cs.Else)
		if err != nil {
			return "", err
		}
		sb.WriteString(" ELSE ")
		sb.WriteString(e)
	}
	sb.WriteString(" END")
	return sb.String(), nil
}

func renderWindowFunction(c *Compiler, ctx *Context, node ast.Operand) (string, error) {
	wf := node.(*ast.WindowFunction)
	if !functionNamePattern.MatchString(wf.Name) {
		return "", invalid("invalid window function name %q", wf.Name)
	}
	args, err := c.Operands(ctx, wf.Args)
	if err != nil {
		return "", err
	}

	var over []string
	if len(wf.PartitionBy) > 0 {
		part, err := c.Operands(ctx, wf.PartitionBy)
		if err != nil {
			return "", err
		}
		over = append(over, "PARTITION BY "+part)
	}
	if len(wf.OrderBy) > 0 {
		order, err := c.OrderByList(ctx, wf.OrderBy)
		if err != nil {
			return "", err
		}
		over = append(over, "ORDER BY "+order)
	}
	return c.dialect.FunctionName(strings.ToUpper(wf.Name)) + "(" + args + ") OVER (" + strings.Join(over, " ") + ")", nil
}
