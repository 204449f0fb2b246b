package query

import (
	"context"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/compiler"
	"github.com/Konsultn-Engineering/metal/database"
	"github.com/Konsultn-Engineering/metal/schema"
)

// DeleteQueryBuilder builds a DELETE.
type DeleteQueryBuilder struct {
	base
	state DeleteState
}

func DeleteFrom(table *schema.TableDef) *DeleteQueryBuilder {
	return DeleteFromAs(table, "")
}

func DeleteFromAs(table *schema.TableDef, alias string) *DeleteQueryBuilder {
	return &DeleteQueryBuilder{base: newBase(table, alias), state: NewDeleteState(table, alias)}
}

func (b *DeleteQueryBuilder) next(s DeleteState) *DeleteQueryBuilder {
	out := *b
	out.state = s
	return &out
}

func (b *DeleteQueryBuilder) fail(err error) *DeleteQueryBuilder {
	out := *b
	out.err = err
	return &out
}

func (b *DeleteQueryBuilder) State() DeleteState { return b.state }

// Using adds tables the delete may read from.
func (b *DeleteQueryBuilder) Using(sources ...ast.TableSource) *DeleteQueryBuilder {
	if b.err != nil {
		return b
	}
	return b.next(b.state.WithUsing(sources...))
}

func (b *DeleteQueryBuilder) Where(e ast.Expression) *DeleteQueryBuilder {
	if b.err != nil || e == nil {
		return b
	}
	return b.next(b.state.WithWhere(e))
}

func (b *DeleteQueryBuilder) WhereEq(column string, value any) *DeleteQueryBuilder {
	if b.err != nil {
		return b
	}
	col, err := b.column(column)
	if err != nil {
		return b.fail(err)
	}
	return b.next(b.state.WithWhere(ast.Eq(col, value)))
}

func (b *DeleteQueryBuilder) WhereIn(column string, values ...any) *DeleteQueryBuilder {
	if b.err != nil {
		return b
	}
	col, err := b.column(column)
	if err != nil {
		return b.fail(err)
	}
	return b.next(b.state.WithWhere(ast.InList(col, values...)))
}

// Returning adds columns to RETURNING (OUTPUT DELETED on SQL Server).
func (b *DeleteQueryBuilder) Returning(columns ...string) *DeleteQueryBuilder {
	if b.err != nil {
		return b
	}
	ops, err := b.returning(columns)
	if err != nil {
		return b.fail(err)
	}
	return b.next(b.state.WithReturning(ops...))
}

func (b *DeleteQueryBuilder) AST() (*ast.DeleteQuery, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.state.ast, nil
}

func (b *DeleteQueryBuilder) Compile(d compiler.Dialect) (compiler.Compiled, error) {
	return b.CompileWith(compiler.New(d))
}

func (b *DeleteQueryBuilder) CompileWith(c *compiler.Compiler) (compiler.Compiled, error) {
	q, err := b.AST()
	if err != nil {
		return compiler.Compiled{}, err
	}
	return c.Compile(q)
}

func (b *DeleteQueryBuilder) Exec(ctx context.Context, exec database.Executor, c *compiler.Compiler) (int64, error) {
	q, err := b.AST()
	if err != nil {
		return 0, err
	}
	return execStatement(ctx, exec, c, q)
}

func (b *DeleteQueryBuilder) Query(ctx context.Context, exec database.Executor, c *compiler.Compiler) ([]map[string]any, error) {
	q, err := b.AST()
	if err != nil {
		return nil, err
	}
	return queryRows(ctx, exec, c, q)
}
