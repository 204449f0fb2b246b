// Package schema describes tables, columns and the relations between them.
// Query builders consume these definitions; they are never derived from
// the database.
package schema

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTable    = errors.New("schema: unknown table")
	ErrUnknownColumn   = errors.New("schema: unknown column")
	ErrUnknownRelation = errors.New("schema: unknown relation")
)

// DefaultPrimaryKey is used when a table declares no primary column.
const DefaultPrimaryKey = "id"

type ColumnDef struct {
	Name    string
	Type    string
	Primary bool
	NotNull bool
	// Generator names a registered ValueGenerator that fills the column
	// when an inserted row omits it.
	Generator string
	// Table is set by NewTable to the owning table's name.
	Table string
}

// Col declares a plain column.
func Col(name, typ string) *ColumnDef {
	return &ColumnDef{Name: name, Type: typ}
}

// PK declares a primary key column.
func PK(name, typ string) *ColumnDef {
	return &ColumnDef{Name: name, Type: typ, Primary: true, NotNull: true}
}

// Generated returns a copy of c filled by generator on insert.
func (c *ColumnDef) Generated(generator string) *ColumnDef {
	cp := *c
	cp.Generator = generator
	return &cp
}

// TableDef is a table definition. Columns are set at construction;
// relations are attached with Relate while the schema is being assembled,
// since related tables often reference each other. A TableDef must not be
// modified once queries are built from it.
type TableDef struct {
	Name   string
	Schema string

	columns   map[string]*ColumnDef
	order     []string
	relations map[string]Relation
	relOrder  []string
}

// NewTable defines a table. Columns are copied; their Table field is set to
// name.
func NewTable(name string, columns ...*ColumnDef) *TableDef {
	t := &TableDef{
		Name:      name,
		columns:   make(map[string]*ColumnDef, len(columns)),
		order:     make([]string, 0, len(columns)),
		relations: make(map[string]Relation),
	}
	for _, c := range columns {
		cp := *c
		cp.Table = name
		if _, dup := t.columns[cp.Name]; !dup {
			t.order = append(t.order, cp.Name)
		}
		t.columns[cp.Name] = &cp
	}
	return t
}

// InSchema sets the database schema the table lives in.
func (t *TableDef) InSchema(schema string) *TableDef {
	t.Schema = schema
	return t
}

// Relate registers a named relation.
func (t *TableDef) Relate(name string, rel Relation) *TableDef {
	if _, dup := t.relations[name]; !dup {
		t.relOrder = append(t.relOrder, name)
	}
	t.relations[name] = rel
	return t
}

func (t *TableDef) Column(name string) (*ColumnDef, bool) {
	c, ok := t.columns[name]
	return c, ok
}

// MustColumn returns the named column or an error wrapping ErrUnknownColumn.
func (t *TableDef) MustColumn(name string) (*ColumnDef, error) {
	c, ok := t.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q on table %q", ErrUnknownColumn, name, t.Name)
	}
	return c, nil
}

// Columns returns the columns in declaration order.
func (t *TableDef) Columns() []*ColumnDef {
	out := make([]*ColumnDef, len(t.order))
	for i, name := range t.order {
		out[i] = t.columns[name]
	}
	return out
}

// ColumnNames returns the column names in declaration order.
func (t *TableDef) ColumnNames() []string {
	return append([]string(nil), t.order...)
}

// PrimaryKey returns the first primary column, or DefaultPrimaryKey.
func (t *TableDef) PrimaryKey() string {
	for _, name := range t.order {
		if t.columns[name].Primary {
			return name
		}
	}
	return DefaultPrimaryKey
}

func (t *TableDef) Relation(name string) (Relation, bool) {
	r, ok := t.relations[name]
	return r, ok
}

// MustRelation returns the named relation or an error wrapping
// ErrUnknownRelation.
func (t *TableDef) MustRelation(name string) (Relation, error) {
	r, ok := t.relations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q on table %q", ErrUnknownRelation, name, t.Name)
	}
	return r, nil
}

// RelationNames returns relation names in registration order.
func (t *TableDef) RelationNames() []string {
	return append([]string(nil), t.relOrder...)
}
