package schema

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Registry is a set of table definitions loaded together.
type Registry struct {
	tables map[string]*TableDef
}

func NewRegistry(tables ...*TableDef) *Registry {
	r := &Registry{tables: make(map[string]*TableDef, len(tables))}
	for _, t := range tables {
		r.tables[t.Name] = t
	}
	return r
}

// Table returns the named table or an error wrapping ErrUnknownTable.
func (r *Registry) Table(name string) (*TableDef, error) {
	t, ok := r.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return t, nil
}

// TableNames returns the table names sorted.
func (r *Registry) TableNames() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type yamlFile struct {
	Tables map[string]yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Schema    string                  `yaml:"schema"`
	Columns   []yamlColumn            `yaml:"columns"`
	Relations map[string]yamlRelation `yaml:"relations"`
}

type yamlColumn struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Primary   bool   `yaml:"primary"`
	NotNull   bool   `yaml:"notNull"`
	Generator string `yaml:"generator"`
}

type yamlRelation struct {
	Type                    string   `yaml:"type"`
	Target                  string   `yaml:"target"`
	ForeignKey              string   `yaml:"foreignKey"`
	LocalKey                string   `yaml:"localKey"`
	Pivot                   string   `yaml:"pivot"`
	PivotForeignKeyToRoot   string   `yaml:"pivotForeignKeyToRoot"`
	PivotForeignKeyToTarget string   `yaml:"pivotForeignKeyToTarget"`
	TargetKey               string   `yaml:"targetKey"`
	PivotPrimaryKey         string   `yaml:"pivotPrimaryKey"`
	PivotColumns            []string `yaml:"pivotColumns"`
}

// LoadYAMLFile reads a schema file. See LoadYAML for the format.
func LoadYAMLFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema file: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// LoadYAML reads table definitions of the form:
//
//	tables:
//	  users:
//	    columns:
//	      - {name: id, type: integer, primary: true}
//	    relations:
//	      orders: {type: HasMany, target: orders, foreignKey: user_id}
//	      roles: {type: BelongsToMany, target: roles, pivot: role_user}
//
// A BelongsToMany without a pivot uses PivotTableName of the two tables.
func LoadYAML(r io.Reader) (*Registry, error) {
	var file yamlFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}

	names := make([]string, 0, len(file.Tables))
	for name := range file.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	reg := &Registry{tables: make(map[string]*TableDef, len(names))}
	for _, name := range names {
		def := file.Tables[name]
		cols := make([]*ColumnDef, 0, len(def.Columns))
		for _, c := range def.Columns {
			if c.Name == "" {
				return nil, fmt.Errorf("table %q: column without a name", name)
			}
			cols = append(cols, &ColumnDef{
				Name:      c.Name,
				Type:      c.Type,
				Primary:   c.Primary,
				NotNull:   c.NotNull,
				Generator: c.Generator,
			})
		}
		reg.tables[name] = NewTable(name, cols...).InSchema(def.Schema)
	}

	// Relations are wired once every table exists.
	for _, name := range names {
		root := reg.tables[name]
		def := file.Tables[name]
		relNames := make([]string, 0, len(def.Relations))
		for relName := range def.Relations {
			relNames = append(relNames, relName)
		}
		sort.Strings(relNames)
		for _, relName := range relNames {
			rel, err := reg.buildRelation(root, relName, def.Relations[relName])
			if err != nil {
				return nil, err
			}
			root.Relate(relName, rel)
		}
	}
	return reg, nil
}

func (reg *Registry) buildRelation(root *TableDef, name string, def yamlRelation) (Relation, error) {
	target, err := reg.Table(def.Target)
	if err != nil {
		return nil, fmt.Errorf("relation %q on table %q: %w", name, root.Name, err)
	}
	switch def.Type {
	case "HasMany", "hasMany":
		return &HasMany{TargetTable: target, ForeignKey: def.ForeignKey, LocalKey: def.LocalKey}, nil
	case "HasOne", "hasOne":
		return &HasOne{TargetTable: target, ForeignKey: def.ForeignKey, LocalKey: def.LocalKey}, nil
	case "BelongsTo", "belongsTo":
		return &BelongsTo{TargetTable: target, ForeignKey: def.ForeignKey, LocalKey: def.LocalKey}, nil
	case "BelongsToMany", "belongsToMany":
		pivotName := def.Pivot
		if pivotName == "" {
			pivotName = PivotTableName(root.Name, target.Name)
		}
		pivot, err := reg.Table(pivotName)
		if err != nil {
			return nil, fmt.Errorf("relation %q on table %q: pivot: %w", name, root.Name, err)
		}
		return &BelongsToMany{
			TargetTable:             target,
			PivotTable:              pivot,
			PivotForeignKeyToRoot:   def.PivotForeignKeyToRoot,
			PivotForeignKeyToTarget: def.PivotForeignKeyToTarget,
			LocalKey:                def.LocalKey,
			TargetKey:               def.TargetKey,
			PivotPrimaryKey:         def.PivotPrimaryKey,
			DefaultPivotColumns:     def.PivotColumns,
		}, nil
	default:
		return nil, fmt.Errorf("relation %q on table %q: unknown relation type %q", name, root.Name, def.Type)
	}
}
