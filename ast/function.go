package ast

// Function is a scalar or aggregate function call.
type Function struct {
	Name     string
	Args     []Operand
	Distinct bool
	Alias    string
}

func (*Function) Type() NodeType { return NodeFunction }
func (*Function) operandNode()   {}

func (f *Function) Fingerprint() uint64 {
	return newHasher(NodeFunction).str(f.Name).operands(f.Args).flag(f.Distinct).str(f.Alias).sum()
}

// JSONPath extracts a scalar from a JSON column. Path is rooted at `$`.
type JSONPath struct {
	Column *Column
	Path   string
	Alias  string
}

func (*JSONPath) Type() NodeType { return NodeJSONPath }
func (*JSONPath) operandNode()   {}

func (j *JSONPath) Fingerprint() uint64 {
	h := newHasher(NodeJSONPath)
	if j.Column != nil {
		h.node(j.Column)
	}
	return h.str(j.Path).str(j.Alias).sum()
}

// ScalarSubquery is a parenthesized SELECT used as a value.
type ScalarSubquery struct {
	Query *SelectQuery
	Alias string
}

func (*ScalarSubquery) Type() NodeType { return NodeScalarSubquery }
func (*ScalarSubquery) operandNode()   {}

func (s *ScalarSubquery) Fingerprint() uint64 {
	return newHasher(NodeScalarSubquery).query(s.Query).str(s.Alias).sum()
}

// When is one branch of a searched CASE.
type When struct {
	Condition Expression
	Result    Operand
}

// Case is a searched CASE expression.
type Case struct {
	Whens []When
	Else  Operand
	Alias string
}

func (*Case) Type() NodeType { return NodeCase }
func (*Case) operandNode()   {}

func (c *Case) Fingerprint() uint64 {
	h := newHasher(NodeCase).u64(uint64(len(c.Whens)))
	for _, w := range c.Whens {
		h.expr(w.Condition).node(w.Result)
	}
	return h.node(c.Else).str(c.Alias).sum()
}

// WindowFunction is `name(args) OVER (PARTITION BY ... ORDER BY ...)`.
type WindowFunction struct {
	Name        string
	Args        []Operand
	PartitionBy []Operand
	OrderBy     []*OrderBy
	Alias       string
}

func (*WindowFunction) Type() NodeType { return NodeWindowFunction }
func (*WindowFunction) operandNode()   {}

func (w *WindowFunction) Fingerprint() uint64 {
	h := newHasher(NodeWindowFunction).str(w.Name).operands(w.Args).operands(w.PartitionBy)
	h.u64(uint64(len(w.OrderBy)))
	for _, o := range w.OrderBy {
		h.node(o)
	}
	return h.str(w.Alias).sum()
}
