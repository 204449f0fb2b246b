package ast

type DeleteQuery struct {
	Table     *Table
	Using     []TableSource
	Where     Expression
	Returning []Operand
}

func (*DeleteQuery) Type() NodeType { return NodeDelete }
func (*DeleteQuery) statementNode() {}

func (q *DeleteQuery) Clone() *DeleteQuery {
	c := *q
	return &c
}

func (q *DeleteQuery) Fingerprint() uint64 {
	h := newHasher(NodeDelete)
	if q.Table != nil {
		h.node(q.Table)
	}
	h.u64(uint64(len(q.Using)))
	for _, u := range q.Using {
		h.node(u)
	}
	return h.expr(q.Where).operands(q.Returning).sum()
}
