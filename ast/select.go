package ast

// CTE is one entry of a WITH clause.
type CTE struct {
	Name      string
	Columns   []string
	Query     *SelectQuery
	Recursive bool
}

func (*CTE) Type() NodeType { return NodeCTE }

func (c *CTE) Fingerprint() uint64 {
	return newHasher(NodeCTE).str(c.Name).strs(c.Columns).query(c.Query).flag(c.Recursive).sum()
}

// SetOperation combines the enclosing query with Query.
type SetOperation struct {
	Operator SetOperator
	Query    *SelectQuery
}

func (*SetOperation) Type() NodeType { return NodeSetOperation }

func (s *SetOperation) Fingerprint() uint64 {
	return newHasher(NodeSetOperation).str(string(s.Operator)).query(s.Query).sum()
}

// Meta carries data that travels with a query without being rendered.
type Meta struct {
	Hydration *HydrationPlan
}

type SelectQuery struct {
	CTEs     []*CTE
	From     TableSource
	Columns  []Operand
	Joins    []*Join
	Where    Expression
	GroupBy  []Operand
	Having   Expression
	OrderBy  []*OrderBy
	Limit    *int
	Offset   *int
	Distinct bool
	SetOps   []*SetOperation
	Meta     *Meta
}

func (*SelectQuery) Type() NodeType { return NodeSelect }
func (*SelectQuery) statementNode() {}

// Clone returns a shallow copy. Slices are shared with the receiver and must
// be rebuilt, not appended to, before the copy is modified.
func (q *SelectQuery) Clone() *SelectQuery {
	c := *q
	return &c
}

// HasPagination reports whether LIMIT or OFFSET is set.
func (q *SelectQuery) HasPagination() bool {
	return q.Limit != nil || q.Offset != nil
}

// Hydration returns the attached plan, or nil.
func (q *SelectQuery) Hydration() *HydrationPlan {
	if q.Meta == nil {
		return nil
	}
	return q.Meta.Hydration
}

// Fingerprint ignores Meta: the hydration plan does not change the SQL.
func (q *SelectQuery) Fingerprint() uint64 {
	h := newHasher(NodeSelect).u64(uint64(len(q.CTEs)))
	for _, c := range q.CTEs {
		h.node(c)
	}
	h.node(q.From).operands(q.Columns).u64(uint64(len(q.Joins)))
	for _, j := range q.Joins {
		h.node(j)
	}
	h.expr(q.Where).operands(q.GroupBy).expr(q.Having).u64(uint64(len(q.OrderBy)))
	for _, o := range q.OrderBy {
		h.node(o)
	}
	h.intPtr(q.Limit).intPtr(q.Offset).flag(q.Distinct).u64(uint64(len(q.SetOps)))
	for _, s := range q.SetOps {
		h.node(s)
	}
	return h.sum()
}
