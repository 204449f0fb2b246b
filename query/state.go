package query

import (
	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/schema"
)

// concat returns a new slice holding a followed by b. Neither argument is
// modified, so states that share a backing array never see each other's
// edits.
func concat[T any](a []T, b ...T) []T {
	out := make([]T, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// SelectState pairs a root table with the select tree built for it. Every
// With method returns a new state; the receiver and its tree are left
// untouched.
type SelectState struct {
	table *schema.TableDef
	ast   *ast.SelectQuery
}

func NewSelectState(table *schema.TableDef, from ast.TableSource) SelectState {
	return SelectState{table: table, ast: &ast.SelectQuery{From: from}}
}

func (s SelectState) Table() *schema.TableDef { return s.table }

func (s SelectState) AST() *ast.SelectQuery { return s.ast }

func (s SelectState) with(edit func(q *ast.SelectQuery)) SelectState {
	q := s.ast.Clone()
	edit(q)
	return SelectState{table: s.table, ast: q}
}

func (s SelectState) WithColumns(columns ...ast.Operand) SelectState {
	return s.with(func(q *ast.SelectQuery) { q.Columns = concat(q.Columns, columns...) })
}

// WithWhere ANDs e into the WHERE clause.
func (s SelectState) WithWhere(e ast.Expression) SelectState {
	return s.with(func(q *ast.SelectQuery) { q.Where = ast.And(q.Where, e) })
}

// WithOrWhere ORs e into the WHERE clause.
func (s SelectState) WithOrWhere(e ast.Expression) SelectState {
	return s.with(func(q *ast.SelectQuery) { q.Where = ast.Or(q.Where, e) })
}

func (s SelectState) WithJoin(joins ...*ast.Join) SelectState {
	return s.with(func(q *ast.SelectQuery) { q.Joins = concat(q.Joins, joins...) })
}

// WithReplacedJoin swaps the join at index i.
func (s SelectState) WithReplacedJoin(i int, j *ast.Join) SelectState {
	return s.with(func(q *ast.SelectQuery) {
		q.Joins = concat(q.Joins)
		q.Joins[i] = j
	})
}

func (s SelectState) WithGroupBy(ops ...ast.Operand) SelectState {
	return s.with(func(q *ast.SelectQuery) { q.GroupBy = concat(q.GroupBy, ops...) })
}

func (s SelectState) WithHaving(e ast.Expression) SelectState {
	return s.with(func(q *ast.SelectQuery) { q.Having = ast.And(q.Having, e) })
}

func (s SelectState) WithOrderBy(order ...*ast.OrderBy) SelectState {
	return s.with(func(q *ast.SelectQuery) { q.OrderBy = concat(q.OrderBy, order...) })
}

func (s SelectState) WithLimit(n int) SelectState {
	return s.with(func(q *ast.SelectQuery) { q.Limit = &n })
}

func (s SelectState) WithOffset(n int) SelectState {
	return s.with(func(q *ast.SelectQuery) { q.Offset = &n })
}

func (s SelectState) WithDistinct(distinct bool) SelectState {
	return s.with(func(q *ast.SelectQuery) { q.Distinct = distinct })
}

func (s SelectState) WithCTE(cte *ast.CTE) SelectState {
	return s.with(func(q *ast.SelectQuery) { q.CTEs = concat(q.CTEs, cte) })
}

func (s SelectState) WithSetOperation(op *ast.SetOperation) SelectState {
	return s.with(func(q *ast.SelectQuery) { q.SetOps = concat(q.SetOps, op) })
}

// InsertState pairs a table with the insert tree built for it.
type InsertState struct {
	table *schema.TableDef
	ast   *ast.InsertQuery
}

func NewInsertState(table *schema.TableDef) InsertState {
	return InsertState{table: table, ast: &ast.InsertQuery{Table: tableNode(table, "")}}
}

func (s InsertState) Table() *schema.TableDef { return s.table }

func (s InsertState) AST() *ast.InsertQuery { return s.ast }

func (s InsertState) with(edit func(q *ast.InsertQuery)) InsertState {
	q := s.ast.Clone()
	edit(q)
	return InsertState{table: s.table, ast: q}
}

// WithRows replaces the column list and the value rows.
func (s InsertState) WithRows(columns []string, rows [][]ast.Operand) InsertState {
	return s.with(func(q *ast.InsertQuery) {
		q.Columns = concat(columns)
		q.Rows = concat(rows)
		q.Source = nil
	})
}

// WithSource replaces the column list and inserts the result of source.
func (s InsertState) WithSource(columns []string, source *ast.SelectQuery) InsertState {
	return s.with(func(q *ast.InsertQuery) {
		q.Columns = concat(columns)
		q.Rows = nil
		q.Source = source
	})
}

func (s InsertState) WithReturning(ops ...ast.Operand) InsertState {
	return s.with(func(q *ast.InsertQuery) { q.Returning = concat(q.Returning, ops...) })
}

// WithOnConflict replaces the upsert clause with the result of edit applied
// to a copy of the current one.
func (s InsertState) WithOnConflict(edit func(oc *ast.OnConflict)) InsertState {
	return s.with(func(q *ast.InsertQuery) {
		oc := &ast.OnConflict{}
		if q.OnConflict != nil {
			*oc = *q.OnConflict
		}
		edit(oc)
		q.OnConflict = oc
	})
}

// UpdateState pairs a table with the update tree built for it.
type UpdateState struct {
	table *schema.TableDef
	ast   *ast.UpdateQuery
}

func NewUpdateState(table *schema.TableDef, alias string) UpdateState {
	return UpdateState{table: table, ast: &ast.UpdateQuery{Table: tableNode(table, alias)}}
}

func (s UpdateState) Table() *schema.TableDef { return s.table }

func (s UpdateState) AST() *ast.UpdateQuery { return s.ast }

func (s UpdateState) with(edit func(q *ast.UpdateQuery)) UpdateState {
	q := s.ast.Clone()
	edit(q)
	return UpdateState{table: s.table, ast: q}
}

func (s UpdateState) WithSet(set ...ast.Assignment) UpdateState {
	return s.with(func(q *ast.UpdateQuery) { q.Set = concat(q.Set, set...) })
}

func (s UpdateState) WithFrom(sources ...ast.TableSource) UpdateState {
	return s.with(func(q *ast.UpdateQuery) { q.From = concat(q.From, sources...) })
}

func (s UpdateState) WithWhere(e ast.Expression) UpdateState {
	return s.with(func(q *ast.UpdateQuery) { q.Where = ast.And(q.Where, e) })
}

func (s UpdateState) WithReturning(ops ...ast.Operand) UpdateState {
	return s.with(func(q *ast.UpdateQuery) { q.Returning = concat(q.Returning, ops...) })
}

// DeleteState pairs a table with the delete tree built for it.
type DeleteState struct {
	table *schema.TableDef
	ast   *ast.DeleteQuery
}

func NewDeleteState(table *schema.TableDef, alias string) DeleteState {
	return DeleteState{table: table, ast: &ast.DeleteQuery{Table: tableNode(table, alias)}}
}

func (s DeleteState) Table() *schema.TableDef { return s.table }

func (s DeleteState) AST() *ast.DeleteQuery { return s.ast }

func (s DeleteState) with(edit func(q *ast.DeleteQuery)) DeleteState {
	q := s.ast.Clone()
	edit(q)
	return DeleteState{table: s.table, ast: q}
}

func (s DeleteState) WithUsing(sources ...ast.TableSource) DeleteState {
	return s.with(func(q *ast.DeleteQuery) { q.Using = concat(q.Using, sources...) })
}

func (s DeleteState) WithWhere(e ast.Expression) DeleteState {
	return s.with(func(q *ast.DeleteQuery) { q.Where = ast.And(q.Where, e) })
}

func (s DeleteState) WithReturning(ops ...ast.Operand) DeleteState {
	return s.with(func(q *ast.DeleteQuery) { q.Returning = concat(q.Returning, ops...) })
}

func tableNode(t *schema.TableDef, alias string) *ast.Table {
	if alias == t.Name {
		alias = ""
	}
	return &ast.Table{Name: t.Name, Schema: t.Schema, Alias: alias}
}
