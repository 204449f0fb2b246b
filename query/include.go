package query

import (
	"fmt"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/relation"
	"github.com/Konsultn-Engineering/metal/schema"
)

// RelationOption configures JoinRelation, Include and WhereHas.
type RelationOption func(*relationConfig)

type relationConfig struct {
	kind         ast.JoinKind
	alias        string
	pivotAlias   string
	filter       ast.Expression
	columns      []string
	aliasPrefix  string
	pivotColumns []string
	pivotPrefix  string
}

func newRelationConfig(kind ast.JoinKind, opts []RelationOption) relationConfig {
	cfg := relationConfig{kind: kind}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithJoinKind overrides the join kind: INNER for JoinRelation, LEFT for
// Include.
func WithJoinKind(kind ast.JoinKind) RelationOption {
	return func(c *relationConfig) { c.kind = kind }
}

// WithAlias aliases the related table.
func WithAlias(alias string) RelationOption {
	return func(c *relationConfig) { c.alias = alias }
}

// WithPivotAlias aliases the pivot table of a many-to-many relation.
func WithPivotAlias(alias string) RelationOption {
	return func(c *relationConfig) { c.pivotAlias = alias }
}

// WithFilter ANDs e into the condition of the join to the related table.
func WithFilter(e ast.Expression) RelationOption {
	return func(c *relationConfig) { c.filter = e }
}

// WithColumns limits the related columns Include selects.
func WithColumns(columns ...string) RelationOption {
	return func(c *relationConfig) { c.columns = columns }
}

// WithAliasPrefix changes the prefix of the related column aliases, which
// defaults to the relation name.
func WithAliasPrefix(prefix string) RelationOption {
	return func(c *relationConfig) { c.aliasPrefix = prefix }
}

// WithPivotColumns selects pivot columns of a many-to-many relation.
func WithPivotColumns(columns ...string) RelationOption {
	return func(c *relationConfig) { c.pivotColumns = columns }
}

// WithPivotAliasPrefix changes the prefix of the pivot column aliases,
// which defaults to "<aliasPrefix>_pivot".
func WithPivotAliasPrefix(prefix string) RelationOption {
	return func(c *relationConfig) { c.pivotPrefix = prefix }
}

// relationOptions maps cfg onto the resolver options. A relation whose
// target is the root table itself is aliased by the relation name.
func (b *SelectQueryBuilder) relationOptions(name string, rel schema.Relation, cfg relationConfig) relation.Options {
	alias := cfg.alias
	if alias == "" && rel.Target().Name == b.ref {
		alias = name
	}
	return relation.Options{
		Kind:        cfg.kind,
		RootRef:     b.ref,
		TargetAlias: alias,
		PivotAlias:  cfg.pivotAlias,
		Filter:      cfg.filter,
	}
}

// JoinRelation joins the named relation, INNER by default. Nothing is
// selected from the related table.
func (b *SelectQueryBuilder) JoinRelation(name string, opts ...RelationOption) *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	rel, err := b.table.MustRelation(name)
	if err != nil {
		return b.fail(err)
	}
	cfg := newRelationConfig(ast.JoinInner, opts)
	joins, err := relation.Joins(b.table, name, rel, b.relationOptions(name, rel, cfg))
	if err != nil {
		return b.fail(err)
	}
	return b.next(b.state.WithJoin(joins...))
}

// Include eager loads the named relation. It LEFT JOINs the relation
// unless a join for it already exists, selects the related columns as
// "<prefix>__<column>" and records the relation in the hydration plan.
// The root and related primary keys are always selected. When nothing was
// selected yet, every root column is selected first.
func (b *SelectQueryBuilder) Include(name string, opts ...RelationOption) *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	rel, err := b.table.MustRelation(name)
	if err != nil {
		return b.fail(err)
	}
	cfg := newRelationConfig(ast.JoinLeft, opts)
	target := rel.Target()

	state := b.state
	joins := relation.FindJoins(state.ast.Joins, name)
	if len(joins) == 0 {
		joins, err = relation.Joins(b.table, name, rel, b.relationOptions(name, rel, cfg))
		if err != nil {
			return b.fail(err)
		}
		state = state.WithJoin(joins...)
	} else if cfg.filter != nil {
		state = withJoinFilter(state, name, cfg.filter)
	}
	targetRef := joins[len(joins)-1].Table.Reference()

	columns := cfg.columns
	if len(columns) == 0 {
		columns = target.ColumnNames()
	}
	if err := checkColumns(target, name, columns); err != nil {
		return b.fail(err)
	}
	targetPK := target.PrimaryKey()
	if _, ok := target.Column(targetPK); ok {
		columns = appendMissing(columns, targetPK)
	}

	prefix := cfg.aliasPrefix
	if prefix == "" {
		prefix = name
	}

	rootPK := b.table.PrimaryKey()
	if err := checkRootKey(state.ast.Columns, b.ref, rootPK); err != nil {
		return b.fail(err)
	}

	var selected []ast.Operand
	if len(state.ast.Columns) == 0 {
		for _, c := range b.table.ColumnNames() {
			selected = append(selected, ast.Col(b.ref, c))
		}
	}
	selected = append(selected, ast.Col(b.ref, rootPK))
	for _, c := range columns {
		selected = append(selected, &ast.Column{Table: targetRef, Name: c, Alias: ast.RelationAlias(prefix, c)})
	}

	fk, lk := relation.Keys(b.table, rel)
	plan := ast.HydrationRelationPlan{
		Name:             name,
		AliasPrefix:      prefix,
		Type:             rel.Kind(),
		TargetTable:      target.Name,
		TargetPrimaryKey: targetPK,
		ForeignKey:       fk,
		LocalKey:         lk,
		Columns:          columns,
	}

	if btm, ok := schema.Resolve(b.table, rel).(*schema.BelongsToMany); ok {
		pivotColumns := cfg.pivotColumns
		if len(pivotColumns) == 0 {
			pivotColumns = btm.DefaultPivotColumns
		}
		if len(pivotColumns) == 0 {
			pivotColumns = []string{btm.PivotForeignKeyToRoot, btm.PivotForeignKeyToTarget}
		}
		if err := checkColumns(btm.PivotTable, name, pivotColumns); err != nil {
			return b.fail(err)
		}
		pivotPrefix := cfg.pivotPrefix
		if pivotPrefix == "" {
			pivotPrefix = prefix + ast.PivotAliasSuffix
		}
		pivotRef := joins[0].Table.Reference()
		for _, c := range pivotColumns {
			selected = append(selected, &ast.Column{Table: pivotRef, Name: c, Alias: ast.RelationAlias(pivotPrefix, c)})
		}
		plan.Pivot = &ast.HydrationPivotPlan{
			Table:       btm.PivotTable.Name,
			PrimaryKey:  btm.PivotPrimaryKey,
			AliasPrefix: pivotPrefix,
			Columns:     concat(pivotColumns),
		}
	}

	out := *b
	out.state = state.WithColumns(dedupe(state.ast.Columns, selected)...)
	out.planner = b.planner.IncludeRelation(plan)
	return &out
}

// withJoinFilter ANDs filter into the last join tagged with name.
func withJoinFilter(state SelectState, name string, filter ast.Expression) SelectState {
	joins := state.ast.Joins
	for i := len(joins) - 1; i >= 0; i-- {
		if joins[i].Relation == name {
			j := *joins[i]
			j.Condition = ast.And(j.Condition, filter)
			return state.WithReplacedJoin(i, &j)
		}
	}
	return state
}

// checkRootKey fails when a projected column other than ref.pk already
// uses pk as its output name. Hydration reads the root key by that name.
func checkRootKey(columns []ast.Operand, ref, pk string) error {
	for _, op := range columns {
		name, ok := ast.OutputName(op)
		if !ok || name != pk {
			continue
		}
		if c, ok := op.(*ast.Column); ok && c.Table == ref && c.Name == pk {
			continue
		}
		return fmt.Errorf("%w: output %q is not %s.%s; alias the other column", ErrKeyShadowed, pk, ref, pk)
	}
	return nil
}

func checkColumns(table *schema.TableDef, relationName string, columns []string) error {
	for _, c := range columns {
		if _, err := table.MustColumn(c); err != nil {
			return fmt.Errorf("relation %q: %w", relationName, err)
		}
	}
	return nil
}

func appendMissing(list []string, name string) []string {
	for _, s := range list {
		if s == name {
			return list
		}
	}
	return concat(list, name)
}

// WhereHas ANDs EXISTS over the named relation, correlated to the root
// row. fn may narrow the subquery; it receives a builder over the related
// table and may be nil.
func (b *SelectQueryBuilder) WhereHas(name string, fn func(*SelectQueryBuilder) *SelectQueryBuilder) *SelectQueryBuilder {
	return b.whereHas(name, fn, false, ast.OpAnd)
}

// WhereHasNot ANDs NOT EXISTS over the named relation.
func (b *SelectQueryBuilder) WhereHasNot(name string, fn func(*SelectQueryBuilder) *SelectQueryBuilder) *SelectQueryBuilder {
	return b.whereHas(name, fn, true, ast.OpAnd)
}

// OrWhereHas ORs EXISTS over the named relation.
func (b *SelectQueryBuilder) OrWhereHas(name string, fn func(*SelectQueryBuilder) *SelectQueryBuilder) *SelectQueryBuilder {
	return b.whereHas(name, fn, false, ast.OpOr)
}

func (b *SelectQueryBuilder) whereHas(name string, fn func(*SelectQueryBuilder) *SelectQueryBuilder, negated bool, logical ast.LogicalOperator) *SelectQueryBuilder {
	if b.err != nil {
		return b
	}
	rel, err := b.table.MustRelation(name)
	if err != nil {
		return b.fail(err)
	}
	corr, err := relation.Correlate(b.table, name, rel, b.relationOptions(name, rel, relationConfig{}))
	if err != nil {
		return b.fail(err)
	}

	sub := FromAs(rel.Target(), corr.From.Alias)
	sub = sub.next(sub.state.WithJoin(corr.Joins...).WithWhere(corr.Condition))
	if fn != nil {
		sub = fn(sub)
	}
	if sub.err != nil {
		return b.fail(sub.err)
	}

	exists := &ast.Exists{Subquery: sub.state.ast, Negated: negated}
	if logical == ast.OpOr {
		return b.next(b.state.WithOrWhere(exists))
	}
	return b.next(b.state.WithWhere(exists))
}
