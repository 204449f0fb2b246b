package compiler

import (
	"strings"

	"github.com/Konsultn-Engineering/metal/ast"
)

// Building blocks for INSERT, UPDATE and DELETE. Dialects assemble them in
// their own order.

// InsertHead renders `INSERT INTO table (columns)`.
func (c *Compiler) InsertHead(q *ast.InsertQuery) (string, error) {
	if err := validateInsert(q); err != nil {
		return "", err
	}
	return "INSERT INTO " + c.QuoteTable(q.Table) + " " + c.QuoteColumns(q.Columns), nil
}

// InsertSource renders `VALUES (...), (...)` or the source SELECT.
func (c *Compiler) InsertSource(ctx *Context, q *ast.InsertQuery) (string, error) {
	if q.Source != nil {
		return c.Select(ctx, q.Source)
	}
	return c.Values(ctx, q.Rows)
}

// Values renders a VALUES list.
func (c *Compiler) Values(ctx *Context, rows [][]ast.Operand) (string, error) {
	var sb strings.Builder
	sb.WriteString("VALUES ")
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		vals, err := c.Operands(ctx, row)
		if err != nil {
			return "", err
		}
		sb.WriteByte('(')
		sb.WriteString(vals)
		sb.WriteByte(')')
	}
	return sb.String(), nil
}

func validateInsert(q *ast.InsertQuery) error {
	if q.Table == nil || q.Table.Name == "" {
		return invalid("INSERT without a table")
	}
	if len(q.Columns) == 0 {
		return invalid("INSERT INTO %s without columns", q.Table.Name)
	}
	switch {
	case q.Source != nil && len(q.Rows) > 0:
		return invalid("INSERT INTO %s has both VALUES and a SELECT source", q.Table.Name)
	case q.Source == nil && len(q.Rows) == 0:
		return invalid("INSERT INTO %s without rows", q.Table.Name)
	}
	for i, row := range q.Rows {
		if len(row) != len(q.Columns) {
			return invalid("INSERT INTO %s row %d has %d values for %d columns", q.Table.Name, i, len(row), len(q.Columns))
		}
	}
	return nil
}

// Assignments renders `a = x, b = y` with unqualified column names.
func (c *Compiler) Assignments(ctx *Context, set []ast.Assignment) (string, error) {
	if len(set) == 0 {
		return "", invalid("empty SET list")
	}
	parts := make([]string, len(set))
	for i, a := range set {
		if a.Column == "" {
			return "", invalid("assignment without a column")
		}
		v, err := c.Operand(ctx, a.Value)
		if err != nil {
			return "", err
		}
		parts[i] = c.Quote(a.Column) + " = " + v
	}
	return strings.Join(parts, ", "), nil
}

// TableSources renders a comma separated list of sources.
func (c *Compiler) TableSources(ctx *Context, sources []ast.TableSource) (string, error) {
	parts := make([]string, len(sources))
	for i, ts := range sources {
		s, err := c.TableSource(ctx, ts)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

// ProjectionList renders operands with their aliases, comma separated.
func (c *Compiler) ProjectionList(ctx *Context, ops []ast.Operand) (string, error) {
	parts := make([]string, len(ops))
	for i, op := range ops {
		s, err := c.Projection(ctx, op)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

// Returning renders " RETURNING ..." or nothing.
func (c *Compiler) Returning(ctx *Context, ops []ast.Operand) (string, error) {
	if len(ops) == 0 {
		return "", nil
	}
	list, err := c.ProjectionList(ctx, ops)
	if err != nil {
		return "", err
	}
	return " RETURNING " + list, nil
}

// UpdateHead renders `UPDATE table SET assignments`.
func (c *Compiler) UpdateHead(ctx *Context, q *ast.UpdateQuery) (string, error) {
	if q.Table == nil || q.Table.Name == "" {
		return "", invalid("UPDATE without a table")
	}
	table, err := c.TableSource(ctx, q.Table)
	if err != nil {
		return "", err
	}
	set, err := c.Assignments(ctx, q.Set)
	if err != nil {
		return "", err
	}
	return "UPDATE " + table + " SET " + set, nil
}

// DeleteHead renders `DELETE FROM table`.
func (c *Compiler) DeleteHead(ctx *Context, q *ast.DeleteQuery) (string, error) {
	if q.Table == nil || q.Table.Name == "" {
		return "", invalid("DELETE without a table")
	}
	table, err := c.TableSource(ctx, q.Table)
	if err != nil {
		return "", err
	}
	return "DELETE FROM " + table, nil
}
