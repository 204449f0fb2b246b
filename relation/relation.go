// Package relation turns schema relations into join and correlation nodes.
//
// Joins attach a related table to a query; correlations express the same
// link as a bare condition for use inside an EXISTS subquery. Every join
// produced here carries the relation name so later passes can find it.
package relation

import (
	"errors"
	"fmt"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/schema"
)

var ErrMissingPivot = errors.New("relation: BelongsToMany without a pivot table")

// Options controls how a relation is joined.
type Options struct {
	// Kind defaults to INNER.
	Kind ast.JoinKind
	// RootRef is the name the root table is referenced by in the query,
	// its alias or its name. Defaults to the root table name.
	RootRef string
	// TargetAlias aliases the target table. Empty means unaliased.
	TargetAlias string
	// PivotAlias aliases the pivot table of a BelongsToMany.
	PivotAlias string
	// Filter is ANDed into the target join condition.
	Filter ast.Expression
}

// Correlation links a subquery over the target table to the outer root
// row. Joins is the pivot join of a BelongsToMany and empty otherwise.
type Correlation struct {
	From      *ast.Table
	Joins     []*ast.Join
	Condition ast.Expression
}

func tableNode(t *schema.TableDef, alias string) *ast.Table {
	if alias == t.Name {
		alias = ""
	}
	return &ast.Table{Name: t.Name, Schema: t.Schema, Alias: alias}
}

func rootRef(root *schema.TableDef, opts Options) string {
	if opts.RootRef != "" {
		return opts.RootRef
	}
	return root.Name
}

// Joins returns the joins that attach rel, named name, to root. HasMany,
// HasOne and BelongsTo produce one join; BelongsToMany produces the pivot
// join followed by the target join. The filter only ever lands on the
// target join.
func Joins(root *schema.TableDef, name string, rel schema.Relation, opts Options) ([]*ast.Join, error) {
	kind := opts.Kind
	if kind == "" {
		kind = ast.JoinInner
	}
	ref := rootRef(root, opts)

	switch r := schema.Resolve(root, rel).(type) {
	case *schema.HasMany:
		target := tableNode(r.TargetTable, opts.TargetAlias)
		cond := ast.Eq(ast.Col(target.Reference(), r.ForeignKey), ast.Col(ref, r.LocalKey))
		return []*ast.Join{{Kind: kind, Table: target, Condition: ast.And(cond, opts.Filter), Relation: name}}, nil
	case *schema.HasOne:
		target := tableNode(r.TargetTable, opts.TargetAlias)
		cond := ast.Eq(ast.Col(target.Reference(), r.ForeignKey), ast.Col(ref, r.LocalKey))
		return []*ast.Join{{Kind: kind, Table: target, Condition: ast.And(cond, opts.Filter), Relation: name}}, nil
	case *schema.BelongsTo:
		target := tableNode(r.TargetTable, opts.TargetAlias)
		cond := ast.Eq(ast.Col(target.Reference(), r.LocalKey), ast.Col(ref, r.ForeignKey))
		return []*ast.Join{{Kind: kind, Table: target, Condition: ast.And(cond, opts.Filter), Relation: name}}, nil
	case *schema.BelongsToMany:
		if r.PivotTable == nil {
			return nil, fmt.Errorf("%w: %q on table %q", ErrMissingPivot, name, root.Name)
		}
		pivot := tableNode(r.PivotTable, opts.PivotAlias)
		target := tableNode(r.TargetTable, opts.TargetAlias)
		pivotCond := ast.Eq(ast.Col(pivot.Reference(), r.PivotForeignKeyToRoot), ast.Col(ref, r.LocalKey))
		targetCond := ast.Eq(ast.Col(target.Reference(), r.TargetKey), ast.Col(pivot.Reference(), r.PivotForeignKeyToTarget))
		return []*ast.Join{
			{Kind: kind, Table: pivot, Condition: pivotCond, Relation: name},
			{Kind: kind, Table: target, Condition: ast.And(targetCond, opts.Filter), Relation: name},
		}, nil
	default:
		panic(fmt.Sprintf("relation: unreachable relation variant %T", rel))
	}
}

// Correlate returns the condition tying a subquery over the target of rel
// to the outer root row. Kind and Filter in opts are ignored.
func Correlate(root *schema.TableDef, name string, rel schema.Relation, opts Options) (Correlation, error) {
	ref := rootRef(root, opts)

	switch r := schema.Resolve(root, rel).(type) {
	case *schema.HasMany:
		target := tableNode(r.TargetTable, opts.TargetAlias)
		return Correlation{
			From:      target,
			Condition: ast.Eq(ast.Col(target.Reference(), r.ForeignKey), ast.Col(ref, r.LocalKey)),
		}, nil
	case *schema.HasOne:
		target := tableNode(r.TargetTable, opts.TargetAlias)
		return Correlation{
			From:      target,
			Condition: ast.Eq(ast.Col(target.Reference(), r.ForeignKey), ast.Col(ref, r.LocalKey)),
		}, nil
	case *schema.BelongsTo:
		target := tableNode(r.TargetTable, opts.TargetAlias)
		return Correlation{
			From:      target,
			Condition: ast.Eq(ast.Col(target.Reference(), r.LocalKey), ast.Col(ref, r.ForeignKey)),
		}, nil
	case *schema.BelongsToMany:
		if r.PivotTable == nil {
			return Correlation{}, fmt.Errorf("%w: %q on table %q", ErrMissingPivot, name, root.Name)
		}
		target := tableNode(r.TargetTable, opts.TargetAlias)
		pivot := tableNode(r.PivotTable, opts.PivotAlias)
		join := &ast.Join{
			Kind:      ast.JoinInner,
			Table:     pivot,
			Condition: ast.Eq(ast.Col(pivot.Reference(), r.PivotForeignKeyToTarget), ast.Col(target.Reference(), r.TargetKey)),
			Relation:  name,
		}
		return Correlation{
			From:      target,
			Joins:     []*ast.Join{join},
			Condition: ast.Eq(ast.Col(pivot.Reference(), r.PivotForeignKeyToRoot), ast.Col(ref, r.LocalKey)),
		}, nil
	default:
		panic(fmt.Sprintf("relation: unreachable relation variant %T", rel))
	}
}

// Keys reports the foreign and local key recorded in a hydration plan for
// rel. For BelongsToMany the foreign key is the pivot column pointing at
// the root.
func Keys(root *schema.TableDef, rel schema.Relation) (foreignKey, localKey string) {
	switch r := schema.Resolve(root, rel).(type) {
	case *schema.HasMany:
		return r.ForeignKey, r.LocalKey
	case *schema.HasOne:
		return r.ForeignKey, r.LocalKey
	case *schema.BelongsTo:
		return r.ForeignKey, r.LocalKey
	case *schema.BelongsToMany:
		return r.PivotForeignKeyToRoot, r.LocalKey
	default:
		panic(fmt.Sprintf("relation: unreachable relation variant %T", rel))
	}
}

// FindJoins returns the joins in joins tagged with name, in order.
func FindJoins(joins []*ast.Join, name string) []*ast.Join {
	var out []*ast.Join
	for _, j := range joins {
		if j.Relation == name {
			out = append(out, j)
		}
	}
	return out
}

// CorrelationName returns the reference under which the target of the
// relation named name is visible in joins, falling back to fallback when
// no such join exists. An aliased join keeps resolving only while its
// Relation tag survives.
func CorrelationName(joins []*ast.Join, name, fallback string) string {
	found := FindJoins(joins, name)
	if len(found) == 0 {
		return fallback
	}
	return found[len(found)-1].Table.Reference()
}
