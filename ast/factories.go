package ast

// Constructors for the common node shapes. Values that are not already an
// Operand are wrapped in a Literal.

func Col(table, name string) *Column {
	return &Column{Table: table, Name: name}
}

func Lit(v any) *Literal {
	return &Literal{Value: v}
}

// Star returns `*`, or `table.*` when table is set.
func Star(table string) *Column {
	return &Column{Table: table, Name: "*"}
}

// ToOperand wraps v in a Literal unless it already is an Operand.
func ToOperand(v any) Operand {
	if op, ok := v.(Operand); ok {
		return op
	}
	return Lit(v)
}

func compare(left Operand, op string, right any) *Binary {
	return &Binary{Left: left, Operator: op, Right: ToOperand(right)}
}

func Eq(left Operand, right any) *Binary  { return compare(left, OpEqual, right) }
func Neq(left Operand, right any) *Binary { return compare(left, OpNotEqualAlt, right) }
func Gt(left Operand, right any) *Binary  { return compare(left, OpGreaterThan, right) }
func Gte(left Operand, right any) *Binary { return compare(left, OpGreaterThanOrEqual, right) }
func Lt(left Operand, right any) *Binary  { return compare(left, OpLessThan, right) }
func Lte(left Operand, right any) *Binary { return compare(left, OpLessThanOrEqual, right) }

func Like(left Operand, pattern any) *Binary    { return compare(left, OpLike, pattern) }
func NotLike(left Operand, pattern any) *Binary { return compare(left, OpNotLike, pattern) }

// And joins the non-nil expressions. A single survivor is returned as is.
func And(exprs ...Expression) Expression { return logical(OpAnd, exprs) }

// Or joins the non-nil expressions. A single survivor is returned as is.
func Or(exprs ...Expression) Expression { return logical(OpOr, exprs) }

func logical(op LogicalOperator, exprs []Expression) Expression {
	operands := make([]Expression, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			operands = append(operands, e)
		}
	}
	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	}
	return &Logical{Operator: op, Operands: operands}
}

func IsNull(op Operand) *Null    { return &Null{Operand: op} }
func IsNotNull(op Operand) *Null { return &Null{Operand: op, Negated: true} }

func InList(op Operand, values ...any) *In {
	vals := make([]Operand, len(values))
	for i, v := range values {
		vals[i] = ToOperand(v)
	}
	return &In{Operand: op, Values: vals}
}

func NotInList(op Operand, values ...any) *In {
	in := InList(op, values...)
	in.Negated = true
	return in
}

func InSubquery(op Operand, q *SelectQuery) *In {
	return &In{Operand: op, Subquery: q}
}

func Exist(q *SelectQuery) *Exists    { return &Exists{Subquery: q} }
func NotExist(q *SelectQuery) *Exists { return &Exists{Subquery: q, Negated: true} }

func Range(op Operand, lower, upper any) *Between {
	return &Between{Operand: op, Lower: ToOperand(lower), Upper: ToOperand(upper)}
}

func Fn(name string, args ...any) *Function {
	ops := make([]Operand, len(args))
	for i, a := range args {
		ops[i] = ToOperand(a)
	}
	return &Function{Name: name, Args: ops}
}

// Count returns COUNT(op), or COUNT(*) when op is nil.
func Count(op Operand) *Function {
	if op == nil {
		op = Star("")
	}
	return &Function{Name: "COUNT", Args: []Operand{op}}
}

func JSON(col *Column, path string) *JSONPath {
	return &JSONPath{Column: col, Path: path}
}

func Subquery(q *SelectQuery) *ScalarSubquery {
	return &ScalarSubquery{Query: q}
}

func Ascending(term Operand) *OrderBy  { return &OrderBy{Term: term, Direction: Asc} }
func Descending(term Operand) *OrderBy { return &OrderBy{Term: term, Direction: Desc} }

// WithNulls returns a copy of o with NULL placement set.
func (o *OrderBy) WithNulls(nulls NullsOrder) *OrderBy {
	c := *o
	c.Nulls = nulls
	return &c
}

// RowNumber returns ROW_NUMBER() OVER (PARTITION BY partition ORDER BY order).
func RowNumber(partition []Operand, order ...*OrderBy) *WindowFunction {
	return &WindowFunction{Name: "ROW_NUMBER", PartitionBy: partition, OrderBy: order}
}
