package ast

import "strings"

// AliasSeparator splits a relation alias prefix from the column name in
// projected relation columns: "<aliasPrefix>__<column>".
const AliasSeparator = "__"

// PivotAliasSuffix is appended to a relation alias prefix to form the
// default pivot alias prefix.
const PivotAliasSuffix = "_pivot"

// RelationAlias returns the wire alias of a relation column.
func RelationAlias(prefix, column string) string {
	return prefix + AliasSeparator + column
}

// IsRelationAlias reports whether alias follows the relation column
// convention.
func IsRelationAlias(alias string) bool {
	return strings.Contains(alias, AliasSeparator)
}

type RelationType string

const (
	RelationHasMany       RelationType = "HasMany"
	RelationHasOne        RelationType = "HasOne"
	RelationBelongsTo     RelationType = "BelongsTo"
	RelationBelongsToMany RelationType = "BelongsToMany"
)

// Multiplies reports whether joining the relation can yield more than one
// row per root row.
func (t RelationType) Multiplies() bool {
	return t == RelationHasMany || t == RelationBelongsToMany
}

// HydrationPlan describes how flat result rows map back to a root entity
// and its included relations.
type HydrationPlan struct {
	RootTable      string                  `json:"rootTable" yaml:"rootTable"`
	RootPrimaryKey string                  `json:"rootPrimaryKey" yaml:"rootPrimaryKey"`
	RootColumns    []string                `json:"rootColumns" yaml:"rootColumns"`
	Relations      []HydrationRelationPlan `json:"relations" yaml:"relations"`
}

type HydrationRelationPlan struct {
	Name             string              `json:"name" yaml:"name"`
	AliasPrefix      string              `json:"aliasPrefix" yaml:"aliasPrefix"`
	Type             RelationType        `json:"type" yaml:"type"`
	TargetTable      string              `json:"targetTable" yaml:"targetTable"`
	TargetPrimaryKey string              `json:"targetPrimaryKey" yaml:"targetPrimaryKey"`
	ForeignKey       string              `json:"foreignKey" yaml:"foreignKey"`
	LocalKey         string              `json:"localKey" yaml:"localKey"`
	Columns          []string            `json:"columns" yaml:"columns"`
	Pivot            *HydrationPivotPlan `json:"pivot,omitempty" yaml:"pivot,omitempty"`
}

type HydrationPivotPlan struct {
	Table       string   `json:"table" yaml:"table"`
	PrimaryKey  string   `json:"primaryKey" yaml:"primaryKey"`
	AliasPrefix string   `json:"aliasPrefix" yaml:"aliasPrefix"`
	Columns     []string `json:"columns" yaml:"columns"`
}

// Clone returns a deep copy so callers can derive a new plan without
// touching one already attached to a query.
func (p *HydrationPlan) Clone() *HydrationPlan {
	if p == nil {
		return nil
	}
	c := &HydrationPlan{
		RootTable:      p.RootTable,
		RootPrimaryKey: p.RootPrimaryKey,
		RootColumns:    append([]string(nil), p.RootColumns...),
		Relations:      make([]HydrationRelationPlan, len(p.Relations)),
	}
	for i, r := range p.Relations {
		r.Columns = append([]string(nil), r.Columns...)
		if r.Pivot != nil {
			pv := *r.Pivot
			pv.Columns = append([]string(nil), pv.Columns...)
			r.Pivot = &pv
		}
		c.Relations[i] = r
	}
	return c
}

// Relation returns the plan entry for name.
func (p *HydrationPlan) Relation(name string) (HydrationRelationPlan, bool) {
	for _, r := range p.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return HydrationRelationPlan{}, false
}

// HasMultiplyingRelations reports whether any included relation fans out
// root rows.
func (p *HydrationPlan) HasMultiplyingRelations() bool {
	for _, r := range p.Relations {
		if r.Type.Multiplies() {
			return true
		}
	}
	return false
}
