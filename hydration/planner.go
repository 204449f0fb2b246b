// Package hydration records how joined result rows map back onto a root
// entity and its relations, and rewrites paginated queries so that LIMIT
// and OFFSET count root rows instead of joined rows.
package hydration

import (
	"github.com/Konsultn-Engineering/metal/ast"
)

// Planner accumulates a hydration plan. It is a value: every method
// returns a new Planner and leaves the receiver untouched.
type Planner struct {
	rootTable  string
	rootRef    string
	primaryKey string
	columns    []string
	relations  []ast.HydrationRelationPlan
}

// NewPlanner starts a plan for rootTable, referenced in the query as
// rootRef (its alias, or the table name).
func NewPlanner(rootTable, rootRef, primaryKey string) Planner {
	if rootRef == "" {
		rootRef = rootTable
	}
	return Planner{rootTable: rootTable, rootRef: rootRef, primaryKey: primaryKey}
}

func (p Planner) RootRef() string { return p.rootRef }

// CaptureRootColumns adds the output name of every projected root column
// that is not a relation alias. Names are kept once, in order of first
// appearance.
func (p Planner) CaptureRootColumns(columns []ast.Operand) Planner {
	out := p
	out.columns = append([]string(nil), p.columns...)
	for _, op := range columns {
		col, ok := op.(*ast.Column)
		if !ok || col.IsStar() {
			continue
		}
		if col.Table != p.rootRef && col.Table != p.rootTable {
			continue
		}
		name, _ := ast.OutputName(col)
		if ast.IsRelationAlias(name) {
			continue
		}
		out.columns = appendUnique(out.columns, name)
	}
	return out
}

// IncludeRelation records rel, replacing an earlier entry with the same
// name. The root primary key is added to the root columns.
func (p Planner) IncludeRelation(rel ast.HydrationRelationPlan) Planner {
	out := p
	out.columns = appendUnique(append([]string(nil), p.columns...), p.primaryKey)
	out.relations = make([]ast.HydrationRelationPlan, 0, len(p.relations)+1)
	for _, r := range p.relations {
		if r.Name != rel.Name {
			out.relations = append(out.relations, r)
		}
	}
	out.relations = append(out.relations, rel)
	return out
}

// HasRelations reports whether any relation was included.
func (p Planner) HasRelations() bool { return len(p.relations) > 0 }

// Plan returns the plan, or nil when no relation was included.
func (p Planner) Plan() *ast.HydrationPlan {
	if !p.HasRelations() {
		return nil
	}
	plan := &ast.HydrationPlan{
		RootTable:      p.rootTable,
		RootPrimaryKey: p.primaryKey,
		RootColumns:    p.columns,
		Relations:      p.relations,
	}
	return plan.Clone()
}

func appendUnique(list []string, name string) []string {
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
}
