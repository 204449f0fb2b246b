package query

import (
	"context"
	"fmt"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/compiler"
	"github.com/Konsultn-Engineering/metal/database"
	"github.com/Konsultn-Engineering/metal/hydration"
	"github.com/Konsultn-Engineering/metal/schema"
)

// SelectQueryBuilder builds a SELECT over a root table, optionally eager
// loading its relations.
type SelectQueryBuilder struct {
	base
	state   SelectState
	planner hydration.Planner
}

// From starts a select over table.
func From(table *schema.TableDef) *SelectQueryBuilder {
	return FromAs(table, "")
}

// FromAs starts a select over table referenced as alias.
func FromAs(table *schema.TableDef, alias string) *SelectQueryBuilder {
	b := newBase(table, alias)
	return &SelectQueryBuilder{
		base:    b,
		state:   NewSelectState(table, tableNode(table, alias)),
		planner: hydration.NewPlanner(table.Name, b.ref, table.PrimaryKey()),
	}
}

func (b *SelectQueryBuilder) next(s SelectState) *SelectQueryBuilder {
	out := *b
	out.state = s
	return &out
}

func (b *SelectQueryBuilder) fail(err error) *SelectQueryBuilder {
	out := *b
	out.err = err
	return &out
}

// State returns the underlying select state.
func (b *SelectQueryBuilder) State() SelectState { return b.state }

// Col returns a column of the root table qualified with its reference. The
// name is not checked.
func (b *SelectQueryBuilder) Col(name string) *ast.Column {
	return ast.Col(b.ref, name)
}

// =============================================================================
// Projection
// =============================================================================

// Select adds operands to the projection. An operand whose output name is
// already projected is skipped, so repeating a call is a no-op; operands
// without an output name are compared structurally.
func (b *SelectQueryBuilder) Select(columns ...ast.Operand) *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	added := dedupe(b.state.ast.Columns, columns)
	if len(added) == 0 {
		return b
	}
	return b.next(b.state.WithColumns(added...))
}

// SelectAs projects op under alias.
func (b *SelectQueryBuilder) SelectAs(alias string, op ast.Operand) *SelectQueryBuilder {
	return b.Select(ast.WithAlias(op, alias))
}

// Columns projects columns by name. Bare names must exist on the root
// table.
func (b *SelectQueryBuilder) Columns(names ...string) *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	cols, err := b.columns(names)
	if err != nil {
		return b.fail(err)
	}
	ops := make([]ast.Operand, len(cols))
	for i, c := range cols {
		ops[i] = c
	}
	return b.Select(ops...)
}

// SelectRaw projects raw column references such as "orders.total AS t" or
// "count(*) AS n". Bare columns are qualified with the root reference.
func (b *SelectQueryBuilder) SelectRaw(specs ...string) *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	ops := make([]ast.Operand, len(specs))
	for i, spec := range specs {
		op, err := parseRawColumn(spec, b.ref)
		if err != nil {
			return b.fail(err)
		}
		ops[i] = op
	}
	return b.Select(ops...)
}

func dedupe(existing, candidates []ast.Operand) []ast.Operand {
	names := make(map[string]bool, len(existing))
	prints := make(map[uint64]bool)
	seen := func(op ast.Operand) bool {
		if name, ok := ast.OutputName(op); ok {
			if names[name] {
				return true
			}
			names[name] = true
			return false
		}
		fp := op.Fingerprint()
		if prints[fp] {
			return true
		}
		prints[fp] = true
		return false
	}
	for _, op := range existing {
		seen(op)
	}
	var added []ast.Operand
	for _, op := range candidates {
		if !seen(op) {
			added = append(added, op)
		}
	}
	return added
}

// =============================================================================
// Filtering
// =============================================================================

// Where ANDs e into the WHERE clause.
func (b *SelectQueryBuilder) Where(e ast.Expression) *SelectQueryBuilder {
	if b.err != nil || e == nil {
		return b
	}
	return b.next(b.state.WithWhere(e))
}

// OrWhere ORs e into the WHERE clause.
func (b *SelectQueryBuilder) OrWhere(e ast.Expression) *SelectQueryBuilder {
	if b.err != nil || e == nil {
		return b
	}
	return b.next(b.state.WithOrWhere(e))
}

func (b *SelectQueryBuilder) whereWithOperator(column, op string, value any, logical ast.LogicalOperator) *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	col, err := b.column(column)
	if err != nil {
		return b.fail(err)
	}
	cond, err := condition(col, op, value)
	if err != nil {
		return b.fail(err)
	}
	if logical == ast.OpOr {
		return b.next(b.state.WithOrWhere(cond))
	}
	return b.next(b.state.WithWhere(cond))
}

// WhereOp ANDs `column op value`.
func (b *SelectQueryBuilder) WhereOp(column, op string, value any) *SelectQueryBuilder {
	return b.whereWithOperator(column, op, value, ast.OpAnd)
}

// OrWhereOp ORs `column op value`.
func (b *SelectQueryBuilder) OrWhereOp(column, op string, value any) *SelectQueryBuilder {
	return b.whereWithOperator(column, op, value, ast.OpOr)
}

func (b *SelectQueryBuilder) WhereEq(column string, value any) *SelectQueryBuilder {
	return b.whereWithOperator(column, ast.OpEqual, value, ast.OpAnd)
}

func (b *SelectQueryBuilder) WhereNotEq(column string, value any) *SelectQueryBuilder {
	return b.whereWithOperator(column, ast.OpNotEqualAlt, value, ast.OpAnd)
}

func (b *SelectQueryBuilder) WhereGt(column string, value any) *SelectQueryBuilder {
	return b.whereWithOperator(column, ast.OpGreaterThan, value, ast.OpAnd)
}

func (b *SelectQueryBuilder) WhereGte(column string, value any) *SelectQueryBuilder {
	return b.whereWithOperator(column, ast.OpGreaterThanOrEqual, value, ast.OpAnd)
}

func (b *SelectQueryBuilder) WhereLt(column string, value any) *SelectQueryBuilder {
	return b.whereWithOperator(column, ast.OpLessThan, value, ast.OpAnd)
}

func (b *SelectQueryBuilder) WhereLte(column string, value any) *SelectQueryBuilder {
	return b.whereWithOperator(column, ast.OpLessThanOrEqual, value, ast.OpAnd)
}

func (b *SelectQueryBuilder) WhereLike(column string, pattern string) *SelectQueryBuilder {
	return b.whereWithOperator(column, ast.OpLike, pattern, ast.OpAnd)
}

func (b *SelectQueryBuilder) WhereIn(column string, values ...any) *SelectQueryBuilder {
	return b.whereWithOperator(column, opIn, values, ast.OpAnd)
}

func (b *SelectQueryBuilder) WhereNotIn(column string, values ...any) *SelectQueryBuilder {
	return b.whereWithOperator(column, opNotIn, values, ast.OpAnd)
}

func (b *SelectQueryBuilder) WhereBetween(column string, lower, upper any) *SelectQueryBuilder {
	return b.whereWithOperator(column, opBetween, []any{lower, upper}, ast.OpAnd)
}

func (b *SelectQueryBuilder) WhereNotBetween(column string, lower, upper any) *SelectQueryBuilder {
	return b.whereWithOperator(column, opNotBetween, []any{lower, upper}, ast.OpAnd)
}

func (b *SelectQueryBuilder) WhereNull(column string) *SelectQueryBuilder {
	return b.whereWithOperator(column, opIsNull, nil, ast.OpAnd)
}

func (b *SelectQueryBuilder) WhereNotNull(column string) *SelectQueryBuilder {
	return b.whereWithOperator(column, opIsNotNull, nil, ast.OpAnd)
}

func (b *SelectQueryBuilder) OrWhereEq(column string, value any) *SelectQueryBuilder {
	return b.whereWithOperator(column, ast.OpEqual, value, ast.OpOr)
}

func (b *SelectQueryBuilder) OrWhereIn(column string, values ...any) *SelectQueryBuilder {
	return b.whereWithOperator(column, opIn, values, ast.OpOr)
}

func (b *SelectQueryBuilder) OrWhereNull(column string) *SelectQueryBuilder {
	return b.whereWithOperator(column, opIsNull, nil, ast.OpOr)
}

// WhereExists ANDs EXISTS (sub).
func (b *SelectQueryBuilder) WhereExists(sub *SelectQueryBuilder) *SelectQueryBuilder {
	return b.whereSubquery(sub, false)
}

// WhereNotExists ANDs NOT EXISTS (sub).
func (b *SelectQueryBuilder) WhereNotExists(sub *SelectQueryBuilder) *SelectQueryBuilder {
	return b.whereSubquery(sub, true)
}

func (b *SelectQueryBuilder) whereSubquery(sub *SelectQueryBuilder, negated bool) *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	if sub.err != nil {
		return b.fail(sub.err)
	}
	return b.next(b.state.WithWhere(&ast.Exists{Subquery: sub.state.ast, Negated: negated}))
}

// =============================================================================
// Joins
// =============================================================================

// Join attaches source with the given condition.
func (b *SelectQueryBuilder) Join(kind ast.JoinKind, source ast.TableSource, on ast.Expression) *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	return b.next(b.state.WithJoin(&ast.Join{Kind: kind, Table: source, Condition: on}))
}

func (b *SelectQueryBuilder) InnerJoin(table string, on ast.Expression) *SelectQueryBuilder {
	return b.Join(ast.JoinInner, &ast.Table{Name: table}, on)
}

func (b *SelectQueryBuilder) LeftJoin(table string, on ast.Expression) *SelectQueryBuilder {
	return b.Join(ast.JoinLeft, &ast.Table{Name: table}, on)
}

// On ANDs `left = right` into the condition of the last join. Bare names
// resolve against the root table.
func (b *SelectQueryBuilder) On(left, right string) *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	joins := b.state.ast.Joins
	if len(joins) == 0 {
		return b.fail(fmt.Errorf("query: On without a join"))
	}
	l, err := b.column(left)
	if err != nil {
		return b.fail(err)
	}
	r, err := b.column(right)
	if err != nil {
		return b.fail(err)
	}
	last := *joins[len(joins)-1]
	last.Condition = ast.And(last.Condition, ast.Eq(l, r))
	return b.next(b.state.WithReplacedJoin(len(joins)-1, &last))
}

// =============================================================================
// Grouping, ordering and paging
// =============================================================================

func (b *SelectQueryBuilder) GroupBy(columns ...string) *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	cols, err := b.columns(columns)
	if err != nil {
		return b.fail(err)
	}
	ops := make([]ast.Operand, len(cols))
	for i, c := range cols {
		ops[i] = c
	}
	return b.next(b.state.WithGroupBy(ops...))
}

func (b *SelectQueryBuilder) Having(e ast.Expression) *SelectQueryBuilder {
	if b.err != nil || e == nil {
		return b
	}
	return b.next(b.state.WithHaving(e))
}

func (b *SelectQueryBuilder) OrderBy(order ...*ast.OrderBy) *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	return b.next(b.state.WithOrderBy(order...))
}

func (b *SelectQueryBuilder) OrderByAsc(columns ...string) *SelectQueryBuilder {
	return b.orderBy(ast.Asc, columns)
}

func (b *SelectQueryBuilder) OrderByDesc(columns ...string) *SelectQueryBuilder {
	return b.orderBy(ast.Desc, columns)
}

func (b *SelectQueryBuilder) orderBy(dir ast.SortDirection, columns []string) *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	cols, err := b.columns(columns)
	if err != nil {
		return b.fail(err)
	}
	order := make([]*ast.OrderBy, len(cols))
	for i, c := range cols {
		order[i] = &ast.OrderBy{Term: c, Direction: dir}
	}
	return b.next(b.state.WithOrderBy(order...))
}

func (b *SelectQueryBuilder) Limit(n int) *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	return b.next(b.state.WithLimit(n))
}

func (b *SelectQueryBuilder) Offset(n int) *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	return b.next(b.state.WithOffset(n))
}

func (b *SelectQueryBuilder) Distinct() *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	return b.next(b.state.WithDistinct(true))
}

// =============================================================================
// CTEs and set operations
// =============================================================================

// With adds the CTE `name [(columns)] AS (q)`.
func (b *SelectQueryBuilder) With(name string, q *SelectQueryBuilder, columns ...string) *SelectQueryBuilder {
	return b.with(name, q, columns, false)
}

// WithRecursive adds a recursive CTE. q usually carries a UNION ALL whose
// right branch reads from name.
func (b *SelectQueryBuilder) WithRecursive(name string, q *SelectQueryBuilder, columns ...string) *SelectQueryBuilder {
	return b.with(name, q, columns, true)
}

func (b *SelectQueryBuilder) with(name string, q *SelectQueryBuilder, columns []string, recursive bool) *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	if q.err != nil {
		return b.fail(q.err)
	}
	return b.next(b.state.WithCTE(&ast.CTE{
		Name:      name,
		Columns:   concat(columns),
		Query:     q.state.ast,
		Recursive: recursive,
	}))
}

func (b *SelectQueryBuilder) Union(other *SelectQueryBuilder) *SelectQueryBuilder {
	return b.setOperation(ast.SetUnion, other)
}

func (b *SelectQueryBuilder) UnionAll(other *SelectQueryBuilder) *SelectQueryBuilder {
	return b.setOperation(ast.SetUnionAll, other)
}

func (b *SelectQueryBuilder) Intersect(other *SelectQueryBuilder) *SelectQueryBuilder {
	return b.setOperation(ast.SetIntersect, other)
}

func (b *SelectQueryBuilder) Except(other *SelectQueryBuilder) *SelectQueryBuilder {
	return b.setOperation(ast.SetExcept, other)
}

func (b *SelectQueryBuilder) setOperation(op ast.SetOperator, other *SelectQueryBuilder) *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	if other.err != nil {
		return b.fail(other.err)
	}
	return b.next(b.state.WithSetOperation(&ast.SetOperation{Operator: op, Query: other.state.ast}))
}

// =============================================================================
// Output
// =============================================================================

// AST returns the final select tree. When relations were included the
// hydration plan is attached as metadata and paginated queries are
// rewritten to page over root rows.
func (b *SelectQueryBuilder) AST() (*ast.SelectQuery, error) {
	if b.err != nil {
		return nil, b.err
	}
	return hydration.NewManager(b.planner).ApplyToAST(b.state.ast), nil
}

// Plan returns the hydration plan, or nil when no relation was included.
func (b *SelectQueryBuilder) Plan() *ast.HydrationPlan {
	return hydration.NewManager(b.planner).Plan(b.state.ast)
}

func (b *SelectQueryBuilder) Compile(d compiler.Dialect) (compiler.Compiled, error) {
	return b.CompileWith(compiler.New(d))
}

func (b *SelectQueryBuilder) CompileWith(c *compiler.Compiler) (compiler.Compiled, error) {
	q, err := b.AST()
	if err != nil {
		return compiler.Compiled{}, err
	}
	return c.Compile(q)
}

// Execute compiles the query with c, runs it on exec and nests included
// relations into each root row.
func (b *SelectQueryBuilder) Execute(ctx context.Context, exec database.Executor, c *compiler.Compiler) ([]map[string]any, error) {
	q, err := b.AST()
	if err != nil {
		return nil, err
	}
	rows, err := queryRows(ctx, exec, c, q)
	if err != nil {
		return nil, err
	}
	return hydration.Materialize(rows, q.Hydration())
}
