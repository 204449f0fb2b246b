package hydration

import (
	"strconv"

	"github.com/Konsultn-Engineering/metal/ast"
)

const (
	baseCTEName = "__metal_pagination_base"
	pageCTEName = "__metal_pagination_page"
)

// Manager applies a planner's plan to the final statement of a query.
type Manager struct {
	planner Planner
}

func NewManager(p Planner) Manager {
	return Manager{planner: p}
}

// Plan returns the plan for q, with the root columns q projects captured.
func (m Manager) Plan(q *ast.SelectQuery) *ast.HydrationPlan {
	return m.planner.CaptureRootColumns(q.Columns).Plan()
}

// ApplyToAST attaches the hydration plan to q. When q is paginated and
// includes a relation that multiplies root rows, the result is rewritten
// so the page is computed over distinct root rows:
//
//	WITH base AS (q without ORDER BY, LIMIT, OFFSET),
//	     page AS (SELECT DISTINCT pk, order columns FROM base ORDER BY ... LIMIT ... OFFSET ...)
//	SELECT base.* FROM base INNER JOIN page ON page.pk = base.pk ORDER BY ...
//
// Compound queries are never rewritten. When the rewrite does not apply
// (an unnamed projection, or an ORDER BY term that is not a projected
// root column) q is returned with only the plan attached.
func (m Manager) ApplyToAST(q *ast.SelectQuery) *ast.SelectQuery {
	plan := m.Plan(q)
	if plan == nil {
		return q
	}

	out := q.Clone()
	out.Meta = &ast.Meta{Hydration: plan}

	if len(q.SetOps) > 0 {
		return out
	}
	if !q.HasPagination() || !plan.HasMultiplyingRelations() {
		return out
	}
	rewritten, ok := paginate(q, plan, m.planner.rootRef, m.planner.rootTable)
	if !ok {
		return out
	}
	rewritten.Meta = &ast.Meta{Hydration: plan}
	return rewritten
}

type output struct {
	name string
	col  *ast.Column
}

func paginate(q *ast.SelectQuery, plan *ast.HydrationPlan, rootRef, rootTable string) (*ast.SelectQuery, bool) {
	if len(q.Columns) == 0 {
		return nil, false
	}
	outputs := make([]output, 0, len(q.Columns))
	seen := make(map[string]bool, len(q.Columns))
	for _, op := range q.Columns {
		name, ok := ast.OutputName(op)
		if !ok || seen[name] {
			return nil, false
		}
		seen[name] = true
		col, _ := op.(*ast.Column)
		outputs = append(outputs, output{name: name, col: col})
	}

	isRoot := func(col *ast.Column) bool {
		return col != nil && (col.Table == rootRef || col.Table == rootTable)
	}
	// rootOutput finds the output name a root column is projected under.
	rootOutput := func(name string) (string, bool) {
		for _, o := range outputs {
			if isRoot(o.col) && o.col.Name == name && !ast.IsRelationAlias(o.name) {
				return o.name, true
			}
		}
		return "", false
	}

	// rootAlias reports whether name is the output of a root column.
	rootAlias := func(name string) bool {
		for _, o := range outputs {
			if o.name == name {
				return isRoot(o.col) && !ast.IsRelationAlias(name)
			}
		}
		return false
	}

	pk, ok := rootOutput(plan.RootPrimaryKey)
	if !ok {
		return nil, false
	}

	taken := make(map[string]bool, len(q.CTEs))
	for _, cte := range q.CTEs {
		taken[cte.Name] = true
	}
	baseName := uniqueName(baseCTEName, taken)
	taken[baseName] = true
	pageName := uniqueName(pageCTEName, taken)

	// ORDER BY terms must be root columns present in the projection,
	// referenced by table or by output name.
	order := make([]*ast.OrderBy, len(q.OrderBy))
	orderNames := make([]string, len(q.OrderBy))
	for i, o := range q.OrderBy {
		col, ok := o.Term.(*ast.Column)
		if !ok || col.IsStar() {
			return nil, false
		}
		var name string
		switch {
		case col.Table == "":
			if !rootAlias(col.Name) {
				return nil, false
			}
			name = col.Name
		case isRoot(col):
			if name, ok = rootOutput(col.Name); !ok {
				return nil, false
			}
		default:
			return nil, false
		}
		orderNames[i] = name
		order[i] = &ast.OrderBy{Term: ast.Col(baseName, name), Direction: o.Direction, Nulls: o.Nulls}
	}

	base := q.Clone()
	base.CTEs = nil
	base.OrderBy = nil
	base.Limit = nil
	base.Offset = nil
	base.Meta = nil

	pageCols := []ast.Operand{ast.Col(baseName, pk)}
	picked := map[string]bool{pk: true}
	for _, name := range orderNames {
		if !picked[name] {
			picked[name] = true
			pageCols = append(pageCols, ast.Col(baseName, name))
		}
	}
	page := &ast.SelectQuery{
		Distinct: true,
		From:     &ast.Table{Name: baseName},
		Columns:  pageCols,
		OrderBy:  order,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}

	finalCols := make([]ast.Operand, len(outputs))
	for i, o := range outputs {
		finalCols[i] = ast.Col(baseName, o.name)
	}
	ctes := make([]*ast.CTE, 0, len(q.CTEs)+2)
	ctes = append(ctes, q.CTEs...)
	ctes = append(ctes, &ast.CTE{Name: baseName, Query: base}, &ast.CTE{Name: pageName, Query: page})

	return &ast.SelectQuery{
		CTEs:    ctes,
		From:    &ast.Table{Name: baseName},
		Columns: finalCols,
		Joins: []*ast.Join{{
			Kind:      ast.JoinInner,
			Table:     &ast.Table{Name: pageName},
			Condition: ast.Eq(ast.Col(pageName, pk), ast.Col(baseName, pk)),
		}},
		OrderBy: order,
	}, true
}

func uniqueName(base string, taken map[string]bool) string {
	if !taken[base] {
		return base
	}
	for i := 1; ; i++ {
		name := base + "_" + strconv.Itoa(i)
		if !taken[name] {
			return name
		}
	}
}
