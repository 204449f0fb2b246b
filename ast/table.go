package ast

// Table names a base table, optionally schema-qualified and aliased.
type Table struct {
	Name   string
	Schema string
	Alias  string
}

func (*Table) Type() NodeType   { return NodeTable }
func (*Table) tableSourceNode() {}

func (t *Table) Reference() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

func (t *Table) Fingerprint() uint64 {
	return newHasher(NodeTable).str(t.Schema).str(t.Name).str(t.Alias).sum()
}

// DerivedTable is `(SELECT ...) AS alias [(columns)]`.
type DerivedTable struct {
	Query   *SelectQuery
	Alias   string
	Columns []string
}

func (*DerivedTable) Type() NodeType   { return NodeDerivedTable }
func (*DerivedTable) tableSourceNode() {}

func (d *DerivedTable) Reference() string { return d.Alias }

func (d *DerivedTable) Fingerprint() uint64 {
	return newHasher(NodeDerivedTable).query(d.Query).str(d.Alias).strs(d.Columns).sum()
}

// Join attaches a table source to a query. Relation carries the name of the
// schema relation that produced the join, if any; it never affects the
// rendered SQL.
type Join struct {
	Kind      JoinKind
	Table     TableSource
	Condition Expression
	Relation  string
}

func (*Join) Type() NodeType { return NodeJoin }

func (j *Join) Fingerprint() uint64 {
	return newHasher(NodeJoin).str(string(j.Kind)).node(j.Table).expr(j.Condition).str(j.Relation).sum()
}

// OrderBy is one ORDER BY term.
type OrderBy struct {
	Term      Operand
	Direction SortDirection
	Nulls     NullsOrder
}

func (*OrderBy) Type() NodeType { return NodeOrderBy }

func (o *OrderBy) Fingerprint() uint64 {
	return newHasher(NodeOrderBy).node(o.Term).str(string(o.Direction)).str(string(o.Nulls)).sum()
}
