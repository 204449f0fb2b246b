package schema

import (
	"fmt"

	"github.com/Konsultn-Engineering/metal/ast"
)

// Relation is one of *HasMany, *HasOne, *BelongsTo or *BelongsToMany.
type Relation interface {
	Kind() ast.RelationType
	Target() *TableDef
	relation()
}

// HasMany: target.ForeignKey references root.LocalKey.
type HasMany struct {
	TargetTable *TableDef
	ForeignKey  string
	LocalKey    string
}

func (*HasMany) Kind() ast.RelationType { return ast.RelationHasMany }
func (r *HasMany) Target() *TableDef    { return r.TargetTable }
func (*HasMany) relation()              {}

// HasOne is HasMany with at most one target row.
type HasOne struct {
	TargetTable *TableDef
	ForeignKey  string
	LocalKey    string
}

func (*HasOne) Kind() ast.RelationType { return ast.RelationHasOne }
func (r *HasOne) Target() *TableDef    { return r.TargetTable }
func (*HasOne) relation()              {}

// BelongsTo: root.ForeignKey references target.LocalKey.
type BelongsTo struct {
	TargetTable *TableDef
	ForeignKey  string
	LocalKey    string
}

func (*BelongsTo) Kind() ast.RelationType { return ast.RelationBelongsTo }
func (r *BelongsTo) Target() *TableDef    { return r.TargetTable }
func (*BelongsTo) relation()              {}

// BelongsToMany links root and target through PivotTable.
type BelongsToMany struct {
	TargetTable             *TableDef
	PivotTable              *TableDef
	PivotForeignKeyToRoot   string
	PivotForeignKeyToTarget string
	LocalKey                string
	TargetKey               string
	PivotPrimaryKey         string
	DefaultPivotColumns     []string
}

func (*BelongsToMany) Kind() ast.RelationType { return ast.RelationBelongsToMany }
func (r *BelongsToMany) Target() *TableDef    { return r.TargetTable }
func (*BelongsToMany) relation()              {}

func HasManyOf(target *TableDef, foreignKey string) *HasMany {
	return &HasMany{TargetTable: target, ForeignKey: foreignKey}
}

func HasOneOf(target *TableDef, foreignKey string) *HasOne {
	return &HasOne{TargetTable: target, ForeignKey: foreignKey}
}

func BelongsToOf(target *TableDef, foreignKey string) *BelongsTo {
	return &BelongsTo{TargetTable: target, ForeignKey: foreignKey}
}

func BelongsToManyThrough(target, pivot *TableDef, toRoot, toTarget string) *BelongsToMany {
	return &BelongsToMany{
		TargetTable:             target,
		PivotTable:              pivot,
		PivotForeignKeyToRoot:   toRoot,
		PivotForeignKeyToTarget: toTarget,
	}
}

// Resolve returns a copy of rel with every empty key filled from the
// naming defaults, as seen from root.
func Resolve(root *TableDef, rel Relation) Relation {
	switch r := rel.(type) {
	case *HasMany:
		cp := *r
		cp.ForeignKey = orDefault(cp.ForeignKey, ForeignKeyName(root.Name))
		cp.LocalKey = orDefault(cp.LocalKey, root.PrimaryKey())
		return &cp
	case *HasOne:
		cp := *r
		cp.ForeignKey = orDefault(cp.ForeignKey, ForeignKeyName(root.Name))
		cp.LocalKey = orDefault(cp.LocalKey, root.PrimaryKey())
		return &cp
	case *BelongsTo:
		cp := *r
		cp.ForeignKey = orDefault(cp.ForeignKey, ForeignKeyName(r.TargetTable.Name))
		cp.LocalKey = orDefault(cp.LocalKey, r.TargetTable.PrimaryKey())
		return &cp
	case *BelongsToMany:
		cp := *r
		cp.PivotForeignKeyToRoot = orDefault(cp.PivotForeignKeyToRoot, ForeignKeyName(root.Name))
		cp.PivotForeignKeyToTarget = orDefault(cp.PivotForeignKeyToTarget, ForeignKeyName(r.TargetTable.Name))
		cp.LocalKey = orDefault(cp.LocalKey, root.PrimaryKey())
		cp.TargetKey = orDefault(cp.TargetKey, r.TargetTable.PrimaryKey())
		if cp.PivotTable != nil {
			cp.PivotPrimaryKey = orDefault(cp.PivotPrimaryKey, cp.PivotTable.PrimaryKey())
		}
		return &cp
	default:
		panic(fmt.Sprintf("schema: unreachable relation variant %T", rel))
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
