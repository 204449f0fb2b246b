package query

import (
	"context"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/compiler"
	"github.com/Konsultn-Engineering/metal/database"
	"github.com/Konsultn-Engineering/metal/schema"
)

// UpdateQueryBuilder builds an UPDATE.
type UpdateQueryBuilder struct {
	base
	state UpdateState
}

func Update(table *schema.TableDef) *UpdateQueryBuilder {
	return UpdateAs(table, "")
}

func UpdateAs(table *schema.TableDef, alias string) *UpdateQueryBuilder {
	return &UpdateQueryBuilder{base: newBase(table, alias), state: NewUpdateState(table, alias)}
}

func (b *UpdateQueryBuilder) next(s UpdateState) *UpdateQueryBuilder {
	out := *b
	out.state = s
	return &out
}

func (b *UpdateQueryBuilder) fail(err error) *UpdateQueryBuilder {
	out := *b
	out.err = err
	return &out
}

func (b *UpdateQueryBuilder) State() UpdateState { return b.state }

// Set assigns value to column.
func (b *UpdateQueryBuilder) Set(column string, value any) *UpdateQueryBuilder {
	if b.err != nil {
		return b
	}
	if _, err := b.table.MustColumn(column); err != nil {
		return b.fail(err)
	}
	return b.next(b.state.WithSet(Set(column, value)))
}

// SetMap assigns every entry of values, in table declaration order.
func (b *UpdateQueryBuilder) SetMap(values map[string]any) *UpdateQueryBuilder {
	if b.err != nil {
		return b
	}
	for name := range values {
		if _, err := b.table.MustColumn(name); err != nil {
			return b.fail(err)
		}
	}
	var set []ast.Assignment
	for _, name := range b.table.ColumnNames() {
		if v, ok := values[name]; ok {
			set = append(set, Set(name, v))
		}
	}
	return b.next(b.state.WithSet(set...))
}

// From adds tables the update may read from.
func (b *UpdateQueryBuilder) From(sources ...ast.TableSource) *UpdateQueryBuilder {
	if b.err != nil {
		return b
	}
	return b.next(b.state.WithFrom(sources...))
}

func (b *UpdateQueryBuilder) Where(e ast.Expression) *UpdateQueryBuilder {
	if b.err != nil || e == nil {
		return b
	}
	return b.next(b.state.WithWhere(e))
}

func (b *UpdateQueryBuilder) WhereEq(column string, value any) *UpdateQueryBuilder {
	if b.err != nil {
		return b
	}
	col, err := b.column(column)
	if err != nil {
		return b.fail(err)
	}
	return b.next(b.state.WithWhere(ast.Eq(col, value)))
}

// Returning adds columns to RETURNING (OUTPUT INSERTED on SQL Server).
func (b *UpdateQueryBuilder) Returning(columns ...string) *UpdateQueryBuilder {
	if b.err != nil {
		return b
	}
	ops, err := b.returning(columns)
	if err != nil {
		return b.fail(err)
	}
	return b.next(b.state.WithReturning(ops...))
}

func (b *UpdateQueryBuilder) AST() (*ast.UpdateQuery, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.state.ast, nil
}

func (b *UpdateQueryBuilder) Compile(d compiler.Dialect) (compiler.Compiled, error) {
	return b.CompileWith(compiler.New(d))
}

func (b *UpdateQueryBuilder) CompileWith(c *compiler.Compiler) (compiler.Compiled, error) {
	q, err := b.AST()
	if err != nil {
		return compiler.Compiled{}, err
	}
	return c.Compile(q)
}

func (b *UpdateQueryBuilder) Exec(ctx context.Context, exec database.Executor, c *compiler.Compiler) (int64, error) {
	q, err := b.AST()
	if err != nil {
		return 0, err
	}
	return execStatement(ctx, exec, c, q)
}

func (b *UpdateQueryBuilder) Query(ctx context.Context, exec database.Executor, c *compiler.Compiler) ([]map[string]any, error) {
	q, err := b.AST()
	if err != nil {
		return nil, err
	}
	return queryRows(ctx, exec, c, q)
}
