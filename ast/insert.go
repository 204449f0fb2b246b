package ast

// Assignment is one `column = value` pair of an UPDATE or upsert set.
type Assignment struct {
	Column string
	Value  Operand
}

func hashAssignments(h *hasher, set []Assignment) {
	h.u64(uint64(len(set)))
	for _, a := range set {
		h.str(a.Column).node(a.Value)
	}
}

// OnConflict describes upsert behavior. Columns is the conflict target.
// With DoNothing unset, Set is applied to the existing row, filtered by
// Where when the dialect allows it.
type OnConflict struct {
	Columns   []string
	DoNothing bool
	Set       []Assignment
	Where     Expression
}

// InsertQuery inserts literal Rows or the result of Source. Exactly one of
// the two is set.
type InsertQuery struct {
	Table      *Table
	Columns    []string
	Rows       [][]Operand
	Source     *SelectQuery
	Returning  []Operand
	OnConflict *OnConflict
}

func (*InsertQuery) Type() NodeType { return NodeInsert }
func (*InsertQuery) statementNode() {}

func (q *InsertQuery) Clone() *InsertQuery {
	c := *q
	return &c
}

func (q *InsertQuery) Fingerprint() uint64 {
	h := newHasher(NodeInsert)
	if q.Table != nil {
		h.node(q.Table)
	}
	h.strs(q.Columns).u64(uint64(len(q.Rows)))
	for _, row := range q.Rows {
		h.operands(row)
	}
	h.query(q.Source).operands(q.Returning)
	if oc := q.OnConflict; oc != nil {
		h.strs(oc.Columns).flag(oc.DoNothing)
		hashAssignments(h, oc.Set)
		h.expr(oc.Where)
	}
	return h.sum()
}
