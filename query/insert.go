package query

import (
	"context"
	"fmt"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/compiler"
	"github.com/Konsultn-Engineering/metal/database"
	"github.com/Konsultn-Engineering/metal/schema"
)

// InsertQueryBuilder builds an INSERT, optionally with an upsert clause.
type InsertQueryBuilder struct {
	base
	state      InsertState
	values     []map[string]any
	generators *schema.GeneratorRegistry
}

// InsertInto starts an insert into table.
func InsertInto(table *schema.TableDef) *InsertQueryBuilder {
	return &InsertQueryBuilder{base: newBase(table, ""), state: NewInsertState(table)}
}

func (b *InsertQueryBuilder) next(s InsertState) *InsertQueryBuilder {
	out := *b
	out.state = s
	return &out
}

func (b *InsertQueryBuilder) fail(err error) *InsertQueryBuilder {
	out := *b
	out.err = err
	return &out
}

func (b *InsertQueryBuilder) State() InsertState { return b.state }

// WithGenerators fills generated columns from r instead of the default
// registry.
func (b *InsertQueryBuilder) WithGenerators(r *schema.GeneratorRegistry) *InsertQueryBuilder {
	out := *b
	out.generators = r
	return &out
}

// Values adds rows. Keys must be columns of the table. A column declaring a
// generator is filled when a row omits it. The column list is the union
// of all rows in declaration order; a row missing a column inserts NULL.
func (b *InsertQueryBuilder) Values(rows ...map[string]any) *InsertQueryBuilder {
	if b.err != nil {
		return b
	}
	all := concat(b.values)
	for _, row := range rows {
		filled := make(map[string]any, len(row))
		for name, v := range row {
			if _, err := b.table.MustColumn(name); err != nil {
				return b.fail(err)
			}
			filled[name] = v
		}
		for _, col := range b.table.Columns() {
			if col.Generator == "" {
				continue
			}
			if _, set := filled[col.Name]; set {
				continue
			}
			v, err := b.generate(col.Generator)
			if err != nil {
				return b.fail(fmt.Errorf("generate %q: %w", col.Name, err))
			}
			filled[col.Name] = v
		}
		all = append(all, filled)
	}

	var columns []string
	for _, name := range b.table.ColumnNames() {
		for _, row := range all {
			if _, ok := row[name]; ok {
				columns = append(columns, name)
				break
			}
		}
	}
	values := make([][]ast.Operand, len(all))
	for i, row := range all {
		values[i] = make([]ast.Operand, len(columns))
		for j, name := range columns {
			values[i][j] = ast.ToOperand(row[name])
		}
	}

	out := b.next(b.state.WithRows(columns, values))
	out.values = all
	return out
}

func (b *InsertQueryBuilder) generate(name string) (any, error) {
	if b.generators != nil {
		return b.generators.Generate(name)
	}
	return schema.GenerateValue(name)
}

// FromSelect inserts the rows q returns into columns.
func (b *InsertQueryBuilder) FromSelect(columns []string, q *SelectQueryBuilder) *InsertQueryBuilder {
	if b.err != nil {
		return b
	}
	if err := b.names(columns); err != nil {
		return b.fail(err)
	}
	if q.err != nil {
		return b.fail(q.err)
	}
	out := b.next(b.state.WithSource(columns, q.state.ast))
	out.values = nil
	return out
}

// OnConflict turns the insert into an upsert on the given conflict
// columns. Follow it with DoNothing or DoUpdate.
func (b *InsertQueryBuilder) OnConflict(columns ...string) *InsertQueryBuilder {
	if b.err != nil {
		return b
	}
	if err := b.names(columns); err != nil {
		return b.fail(err)
	}
	return b.next(b.state.WithOnConflict(func(oc *ast.OnConflict) { oc.Columns = concat(columns) }))
}

func (b *InsertQueryBuilder) DoNothing() *InsertQueryBuilder {
	if b.err != nil {
		return b
	}
	return b.next(b.state.WithOnConflict(func(oc *ast.OnConflict) {
		oc.DoNothing = true
		oc.Set = nil
	}))
}

// DoUpdate applies set to the conflicting row.
func (b *InsertQueryBuilder) DoUpdate(set ...ast.Assignment) *InsertQueryBuilder {
	if b.err != nil {
		return b
	}
	for _, a := range set {
		if _, err := b.table.MustColumn(a.Column); err != nil {
			return b.fail(err)
		}
	}
	return b.next(b.state.WithOnConflict(func(oc *ast.OnConflict) {
		oc.DoNothing = false
		oc.Set = concat(oc.Set, set...)
	}))
}

// DoUpdateExcluded overwrites each column with the value proposed for
// insertion.
func (b *InsertQueryBuilder) DoUpdateExcluded(columns ...string) *InsertQueryBuilder {
	set := make([]ast.Assignment, len(columns))
	for i, c := range columns {
		set[i] = ast.Assignment{Column: c, Value: Excluded(c)}
	}
	return b.DoUpdate(set...)
}

// DoUpdateWhere guards the update of the conflicting row.
func (b *InsertQueryBuilder) DoUpdateWhere(e ast.Expression) *InsertQueryBuilder {
	if b.err != nil {
		return b
	}
	return b.next(b.state.WithOnConflict(func(oc *ast.OnConflict) { oc.Where = ast.And(oc.Where, e) }))
}

// Returning adds columns to RETURNING (OUTPUT INSERTED on SQL Server).
func (b *InsertQueryBuilder) Returning(columns ...string) *InsertQueryBuilder {
	if b.err != nil {
		return b
	}
	ops, err := b.returning(columns)
	if err != nil {
		return b.fail(err)
	}
	return b.next(b.state.WithReturning(ops...))
}

func (b *InsertQueryBuilder) AST() (*ast.InsertQuery, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.state.ast, nil
}

func (b *InsertQueryBuilder) Compile(d compiler.Dialect) (compiler.Compiled, error) {
	return b.CompileWith(compiler.New(d))
}

func (b *InsertQueryBuilder) CompileWith(c *compiler.Compiler) (compiler.Compiled, error) {
	q, err := b.AST()
	if err != nil {
		return compiler.Compiled{}, err
	}
	return c.Compile(q)
}

// Exec runs the insert and returns the affected row count.
func (b *InsertQueryBuilder) Exec(ctx context.Context, exec database.Executor, c *compiler.Compiler) (int64, error) {
	q, err := b.AST()
	if err != nil {
		return 0, err
	}
	return execStatement(ctx, exec, c, q)
}

// Query runs the insert and returns the RETURNING rows.
func (b *InsertQueryBuilder) Query(ctx context.Context, exec database.Executor, c *compiler.Compiler) ([]map[string]any, error) {
	q, err := b.AST()
	if err != nil {
		return nil, err
	}
	return queryRows(ctx, exec, c, q)
}
