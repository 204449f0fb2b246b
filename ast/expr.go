package ast

// Binary is `left op right` for a comparison operator.
type Binary struct {
	Left     Operand
	Operator string
	Right    Operand
}

func (*Binary) Type() NodeType  { return NodeBinary }
func (*Binary) expressionNode() {}

func (b *Binary) Fingerprint() uint64 {
	return newHasher(NodeBinary).node(b.Left).str(b.Operator).node(b.Right).sum()
}

// Logical joins two or more expressions with AND or OR.
type Logical struct {
	Operator LogicalOperator
	Operands []Expression
}

func (*Logical) Type() NodeType  { return NodeLogical }
func (*Logical) expressionNode() {}

func (l *Logical) Fingerprint() uint64 {
	h := newHasher(NodeLogical).str(string(l.Operator)).u64(uint64(len(l.Operands)))
	for _, e := range l.Operands {
		h.expr(e)
	}
	return h.sum()
}

// Null is `operand IS [NOT] NULL`.
type Null struct {
	Operand Operand
	Negated bool
}

func (*Null) Type() NodeType  { return NodeNull }
func (*Null) expressionNode() {}

func (n *Null) Fingerprint() uint64 {
	return newHasher(NodeNull).node(n.Operand).flag(n.Negated).sum()
}

// In is `operand [NOT] IN (values...)` or `operand [NOT] IN (subquery)`.
// Exactly one of Values and Subquery is set.
type In struct {
	Operand  Operand
	Values   []Operand
	Subquery *SelectQuery
	Negated  bool
}

func (*In) Type() NodeType  { return NodeIn }
func (*In) expressionNode() {}

func (i *In) Fingerprint() uint64 {
	return newHasher(NodeIn).node(i.Operand).operands(i.Values).query(i.Subquery).flag(i.Negated).sum()
}

// Exists is `[NOT] EXISTS (subquery)`. The subquery projection is replaced
// with `1` at render time.
type Exists struct {
	Subquery *SelectQuery
	Negated  bool
}

func (*Exists) Type() NodeType  { return NodeExists }
func (*Exists) expressionNode() {}

func (e *Exists) Fingerprint() uint64 {
	return newHasher(NodeExists).query(e.Subquery).flag(e.Negated).sum()
}

// Between is `operand [NOT] BETWEEN lower AND upper`.
type Between struct {
	Operand Operand
	Lower   Operand
	Upper   Operand
	Negated bool
}

func (*Between) Type() NodeType  { return NodeBetween }
func (*Between) expressionNode() {}

func (b *Between) Fingerprint() uint64 {
	return newHasher(NodeBetween).node(b.Operand).node(b.Lower).node(b.Upper).flag(b.Negated).sum()
}
