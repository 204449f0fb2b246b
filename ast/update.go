package ast

type UpdateQuery struct {
	Table     *Table
	Set       []Assignment
	From      []TableSource
	Where     Expression
	Returning []Operand
}

func (*UpdateQuery) Type() NodeType { return NodeUpdate }
func (*UpdateQuery) statementNode() {}

func (q *UpdateQuery) Clone() *UpdateQuery {
	c := *q
	return &c
}

func (q *UpdateQuery) Fingerprint() uint64 {
	h := newHasher(NodeUpdate)
	if q.Table != nil {
		h.node(q.Table)
	}
	hashAssignments(h, q.Set)
	h.u64(uint64(len(q.From)))
	for _, f := range q.From {
		h.node(f)
	}
	return h.expr(q.Where).operands(q.Returning).sum()
}
