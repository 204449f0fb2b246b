package compiler

import (
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/metal/ast"
)

// Select renders q without a terminating semicolon, for use as a whole
// statement or nested inside another one.
func (c *Compiler) Select(ctx *Context, q *ast.SelectQuery) (string, error) {
	return c.selectStatement(ctx, q, "")
}

// selectStatement renders WITH, the compound body, ORDER BY and pagination.
// A non-empty projection replaces the select list of q (but not of its set
// operation branches).
func (c *Compiler) selectStatement(ctx *Context, q *ast.SelectQuery, projection string) (string, error) {
	var sb strings.Builder

	if ctes := collectCTEs(q); len(ctes) > 0 {
		with, err := c.With(ctx, ctes)
		if err != nil {
			return "", err
		}
		sb.WriteString(with)
		sb.WriteByte(' ')
	}

	body, err := c.compoundBody(ctx, q, projection)
	if err != nil {
		return "", err
	}
	sb.WriteString(body)

	hasOrderBy := len(q.OrderBy) > 0
	if hasOrderBy {
		order, err := c.OrderByList(ctx, q.OrderBy)
		if err != nil {
			return "", err
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(order)
	}

	if q.HasPagination() {
		if (q.Limit != nil && *q.Limit < 0) || (q.Offset != nil && *q.Offset < 0) {
			return "", invalid("negative LIMIT or OFFSET")
		}
		page, err := c.dialect.Pagination(q.Limit, q.Offset, hasOrderBy)
		if err != nil {
			return "", err
		}
		sb.WriteString(page)
	}
	return sb.String(), nil
}

// collectCTEs returns the CTEs of q followed by those of its set operation
// branches, which are hoisted into the outer WITH clause.
func collectCTEs(q *ast.SelectQuery) []*ast.CTE {
	if len(q.SetOps) == 0 {
		return q.CTEs
	}
	out := append([]*ast.CTE(nil), q.CTEs...)
	for _, op := range q.SetOps {
		if op.Query != nil {
			out = append(out, collectCTEs(op.Query)...)
		}
	}
	return out
}

// With renders a WITH clause. RECURSIVE is written once when any CTE is
// recursive and the dialect uses the keyword.
func (c *Compiler) With(ctx *Context, ctes []*ast.CTE) (string, error) {
	recursive := false
	for _, cte := range ctes {
		recursive = recursive || cte.Recursive
	}

	var sb strings.Builder
	sb.WriteString("WITH ")
	if recursive && c.dialect.SupportsRecursiveKeyword() {
		sb.WriteString("RECURSIVE ")
	}
	for i, cte := range ctes {
		if cte.Name == "" || cte.Query == nil {
			return "", invalid("CTE without a name or query")
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.Quote(cte.Name))
		if len(cte.Columns) > 0 {
			sb.WriteByte(' ')
			sb.WriteString(c.QuoteColumns(cte.Columns))
		}
		body, err := c.Select(ctx, cte.Query)
		if err != nil {
			return "", fmt.Errorf("cte %q: %w", cte.Name, err)
		}
		sb.WriteString(" AS (")
		sb.WriteString(body)
		sb.WriteByte(')')
	}
	return sb.String(), nil
}

// compoundBody renders the core of q followed by its set operations. The
// branches lose their own ORDER BY, LIMIT and OFFSET.
func (c *Compiler) compoundBody(ctx *Context, q *ast.SelectQuery, projection string) (string, error) {
	core, err := c.selectCore(ctx, q, projection)
	if err != nil {
		return "", err
	}
	if len(q.SetOps) == 0 {
		return core, nil
	}

	var sb strings.Builder
	sb.WriteString(core)
	for _, op := range q.SetOps {
		switch op.Operator {
		case ast.SetUnion, ast.SetUnionAll, ast.SetIntersect, ast.SetExcept:
		default:
			return "", invalid("unknown set operator %q", op.Operator)
		}
		if op.Query == nil {
			return "", invalid("%s without a query", op.Operator)
		}
		branch, err := c.compoundBody(ctx, op.Query, "")
		if err != nil {
			return "", err
		}
		sb.WriteByte(' ')
		sb.WriteString(string(op.Operator))
		sb.WriteByte(' ')
		sb.WriteString(branch)
	}
	return sb.String(), nil
}

// selectCore renders SELECT through HAVING.
func (c *Compiler) selectCore(ctx *Context, q *ast.SelectQuery, projection string) (string, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if q.Distinct {
		sb.WriteString("DISTINCT ")
	}

	switch {
	case projection != "":
		sb.WriteString(projection)
	case len(q.Columns) == 0:
		sb.WriteByte('*')
	default:
		for i, col := range q.Columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			s, err := c.Projection(ctx, col)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
		}
	}

	if q.From != nil {
		from, err := c.TableSource(ctx, q.From)
		if err != nil {
			return "", err
		}
		sb.WriteString(" FROM ")
		sb.WriteString(from)
	}

	joins, err := c.Joins(ctx, q.Joins)
	if err != nil {
		return "", err
	}
	sb.WriteString(joins)

	where, err := c.Where(ctx, q.Where)
	if err != nil {
		return "", err
	}
	sb.WriteString(where)

	if len(q.GroupBy) > 0 {
		group, err := c.Operands(ctx, q.GroupBy)
		if err != nil {
			return "", err
		}
		sb.WriteString(" GROUP BY ")
		sb.WriteString(group)
	}

	if q.Having != nil {
		having, err := c.Expression(ctx, q.Having)
		if err != nil {
			return "", err
		}
		sb.WriteString(" HAVING ")
		sb.WriteString(having)
	}
	return sb.String(), nil
}

// TableSource renders a table or derived table with its alias.
func (c *Compiler) TableSource(ctx *Context, ts ast.TableSource) (string, error) {
	switch t := ts.(type) {
	case *ast.Table:
		if t.Name == "" {
			return "", invalid("table without a name")
		}
		if t.Alias != "" {
			return c.QuoteTable(t) + " AS " + c.Quote(t.Alias), nil
		}
		return c.QuoteTable(t), nil
	case *ast.DerivedTable:
		if t.Query == nil || t.Alias == "" {
			return "", invalid("derived table needs a query and an alias")
		}
		body, err := c.Select(ctx, t.Query)
		if err != nil {
			return "", err
		}
		s := "(" + body + ") AS " + c.Quote(t.Alias)
		if len(t.Columns) > 0 {
			s += " " + c.QuoteColumns(t.Columns)
		}
		return s, nil
	default:
		panic(fmt.Sprintf("compiler: unreachable table source variant %T", ts))
	}
}

// Joins renders every join, each with a leading space.
func (c *Compiler) Joins(ctx *Context, joins []*ast.Join) (string, error) {
	var sb strings.Builder
	for _, j := range joins {
		kind := j.Kind
		if kind == "" {
			kind = ast.JoinInner
		}
		switch kind {
		case ast.JoinInner, ast.JoinLeft, ast.JoinRight, ast.JoinFull, ast.JoinCross:
		default:
			return "", invalid("unknown join kind %q", kind)
		}

		table, err := c.TableSource(ctx, j.Table)
		if err != nil {
			return "", err
		}
		sb.WriteByte(' ')
		sb.WriteString(string(kind))
		sb.WriteString(" JOIN ")
		sb.WriteString(table)

		if kind == ast.JoinCross {
			if j.Condition != nil {
				return "", invalid("CROSS JOIN with a condition")
			}
			continue
		}
		if j.Condition == nil {
			return "", invalid("%s JOIN %s without a condition", kind, j.Table.Reference())
		}
		cond, err := c.Expression(ctx, j.Condition)
		if err != nil {
			return "", err
		}
		sb.WriteString(" ON ")
		sb.WriteString(cond)
	}
	return sb.String(), nil
}

// Where renders " WHERE e", or nothing for a nil expression.
func (c *Compiler) Where(ctx *Context, e ast.Expression) (string, error) {
	if e == nil {
		return "", nil
	}
	s, err := c.Expression(ctx, e)
	if err != nil {
		return "", err
	}
	return " WHERE " + s, nil
}

// OrderByList renders ORDER BY terms without the keyword.
func (c *Compiler) OrderByList(ctx *Context, terms []*ast.OrderBy) (string, error) {
	parts := make([]string, len(terms))
	for i, o := range terms {
		s, err := c.Operand(ctx, o.Term)
		if err != nil {
			return "", err
		}
		switch o.Direction {
		case "":
		case ast.Asc, ast.Desc:
			s += " " + string(o.Direction)
		default:
			return "", invalid("unknown sort direction %q", o.Direction)
		}
		switch o.Nulls {
		case "":
		case ast.NullsFirst, ast.NullsLast:
			n, err := c.dialect.NullsOrder(o.Nulls)
			if err != nil {
				return "", err
			}
			s += n
		default:
			return "", invalid("unknown nulls order %q", o.Nulls)
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}
