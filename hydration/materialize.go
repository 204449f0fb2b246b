package hydration

import (
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/metal/ast"
)

// PivotKey is the key pivot columns are nested under inside a related
// record.
const PivotKey = "_pivot"

type entity struct {
	record map[string]any
	// children tracks, per relation, the keys of records already nested.
	children map[string]map[string]bool
}

// Materialize groups flat rows by the root primary key and nests the
// columns of every included relation under the relation name. HasMany and
// BelongsToMany relations become []map[string]any, deduplicated by the
// target primary key; HasOne and BelongsTo become a map[string]any or nil.
// Roots keep the order of their first row.
func Materialize(rows []map[string]any, plan *ast.HydrationPlan) ([]map[string]any, error) {
	if plan == nil {
		return rows, nil
	}

	var (
		order    []string
		entities = make(map[string]*entity, len(rows))
	)
	for i, row := range rows {
		pk, ok := row[plan.RootPrimaryKey]
		if !ok {
			return nil, fmt.Errorf("hydration: row %d has no root primary key column %q", i, plan.RootPrimaryKey)
		}
		key := valueKey(pk)
		e, ok := entities[key]
		if !ok {
			e = &entity{record: rootRecord(row, plan), children: make(map[string]map[string]bool)}
			for _, rel := range plan.Relations {
				if rel.Type.Multiplies() {
					e.record[rel.Name] = []map[string]any{}
				} else {
					e.record[rel.Name] = nil
				}
			}
			entities[key] = e
			order = append(order, key)
		}

		for _, rel := range plan.Relations {
			child, childKey, ok := relationRecord(row, rel)
			if !ok {
				continue
			}
			if !rel.Type.Multiplies() {
				if e.record[rel.Name] == nil {
					e.record[rel.Name] = child
				}
				continue
			}
			seen := e.children[rel.Name]
			if seen == nil {
				seen = make(map[string]bool)
				e.children[rel.Name] = seen
			}
			if seen[childKey] {
				continue
			}
			seen[childKey] = true
			e.record[rel.Name] = append(e.record[rel.Name].([]map[string]any), child)
		}
	}

	out := make([]map[string]any, len(order))
	for i, key := range order {
		out[i] = entities[key].record
	}
	return out, nil
}

func rootRecord(row map[string]any, plan *ast.HydrationPlan) map[string]any {
	rec := make(map[string]any, len(plan.RootColumns)+len(plan.Relations))
	if len(plan.RootColumns) == 0 {
		for k, v := range row {
			if !ast.IsRelationAlias(k) {
				rec[k] = v
			}
		}
		return rec
	}
	for _, name := range plan.RootColumns {
		rec[name] = row[name]
	}
	return rec
}

// relationRecord extracts the columns of rel from row. It reports false
// when the row carries no related record, as with an unmatched LEFT JOIN.
func relationRecord(row map[string]any, rel ast.HydrationRelationPlan) (map[string]any, string, bool) {
	rec := make(map[string]any, len(rel.Columns)+1)
	prefix := rel.AliasPrefix + ast.AliasSeparator
	allNull := true
	for _, name := range rel.Columns {
		v := row[prefix+name]
		rec[name] = v
		if v != nil {
			allNull = false
		}
	}
	if allNull {
		return nil, "", false
	}

	key := ""
	if pk, ok := rec[rel.TargetPrimaryKey]; ok {
		if pk == nil {
			return nil, "", false
		}
		key = valueKey(pk)
	} else {
		key = recordKey(rec, rel.Columns)
	}

	if rel.Pivot != nil && len(rel.Pivot.Columns) > 0 {
		pivotPrefix := rel.Pivot.AliasPrefix + ast.AliasSeparator
		pivot := make(map[string]any, len(rel.Pivot.Columns))
		for _, name := range rel.Pivot.Columns {
			pivot[name] = row[pivotPrefix+name]
		}
		rec[PivotKey] = pivot
	}
	return rec, key, true
}

func valueKey(v any) string {
	return fmt.Sprintf("%T:%v", v, v)
}

func recordKey(rec map[string]any, columns []string) string {
	parts := make([]string, len(columns))
	for i, name := range columns {
		parts[i] = valueKey(rec[name])
	}
	return strings.Join(parts, "|")
}
