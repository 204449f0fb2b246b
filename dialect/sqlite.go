package dialect

import (
	"strconv"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/compiler"
)

// SQLite uses the ANSI defaults from BaseDialect for quoting and
// placeholders.
type SQLite struct {
	compiler.BaseDialect
}

func NewSQLite() *SQLite {
	return &SQLite{BaseDialect: compiler.NewBaseDialect("sqlite")}
}

func (SQLite) JSONPath(column, path string) (string, error) {
	return "json_extract(" + column + ", '" + path + "')", nil
}

func (s SQLite) ExcludedColumn(name string) (string, error) {
	return "excluded." + s.QuoteIdentifier(name), nil
}

// Pagination writes LIMIT -1 when only an offset is set; SQLite has no
// OFFSET without LIMIT.
func (SQLite) Pagination(limit, offset *int, _ bool) (string, error) {
	if limit == nil && offset != nil {
		return " LIMIT -1 OFFSET " + strconv.Itoa(*offset), nil
	}
	return compiler.LimitOffset(limit, offset), nil
}

func (s SQLite) CompileInsert(c *compiler.Compiler, ctx *compiler.Context, q *ast.InsertQuery) (string, error) {
	// INSERT ... SELECT ... ON CONFLICT is ambiguous to the SQLite parser
	// without a WHERE clause on the select.
	if q.OnConflict != nil && q.Source != nil {
		return "", compiler.Unsupported(s.Name(), "upsert from a SELECT source is not supported")
	}
	return insertWithReturning(c, ctx, q)
}

func (SQLite) CompileUpdate(c *compiler.Compiler, ctx *compiler.Context, q *ast.UpdateQuery) (string, error) {
	sql, err := compiler.UpdateFrom(c, ctx, q)
	if err != nil {
		return "", err
	}
	ret, err := c.Returning(ctx, q.Returning)
	if err != nil {
		return "", err
	}
	return sql + ret, nil
}

func (s SQLite) CompileDelete(c *compiler.Compiler, ctx *compiler.Context, q *ast.DeleteQuery) (string, error) {
	if len(q.Using) > 0 {
		return "", compiler.Unsupported(s.Name(), "DELETE ... USING is not supported")
	}
	head, err := c.DeleteHead(ctx, q)
	if err != nil {
		return "", err
	}
	where, err := c.Where(ctx, q.Where)
	if err != nil {
		return "", err
	}
	ret, err := c.Returning(ctx, q.Returning)
	if err != nil {
		return "", err
	}
	return head + where + ret, nil
}
