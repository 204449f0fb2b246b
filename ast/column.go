package ast

// ExcludedTable marks a Column that refers to the row proposed for
// insertion inside an upsert's update set (EXCLUDED, VALUES(), MERGE source).
const ExcludedTable = "\x00excluded"

// Column references a table column. Table holds the qualifying name, which is
// the table alias when the source is aliased.
type Column struct {
	Table string
	Name  string
	Alias string
}

func (*Column) Type() NodeType { return NodeColumn }
func (*Column) operandNode()   {}

func (c *Column) Fingerprint() uint64 {
	return newHasher(NodeColumn).str(c.Table).str(c.Name).str(c.Alias).sum()
}

// IsStar reports whether the column is a wildcard reference.
func (c *Column) IsStar() bool { return c.Name == "*" }

// Literal is a value bound as a statement parameter.
type Literal struct {
	Value any
}

func (*Literal) Type() NodeType { return NodeLiteral }
func (*Literal) operandNode()   {}

func (l *Literal) Fingerprint() uint64 {
	return newHasher(NodeLiteral).value(l.Value).sum()
}

// OutputName returns the name a projected operand is exposed under in the
// result set. Only columns may fall back to their own name; every other
// operand needs an explicit alias.
func OutputName(op Operand) (string, bool) {
	switch n := op.(type) {
	case *Column:
		if n.Alias != "" {
			return n.Alias, true
		}
		if n.IsStar() {
			return "", false
		}
		return n.Name, true
	case *Function:
		return n.Alias, n.Alias != ""
	case *JSONPath:
		return n.Alias, n.Alias != ""
	case *ScalarSubquery:
		return n.Alias, n.Alias != ""
	case *Case:
		return n.Alias, n.Alias != ""
	case *WindowFunction:
		return n.Alias, n.Alias != ""
	default:
		return "", false
	}
}

// WithAlias returns a copy of op exposed under alias. Literals cannot carry
// an alias and are returned unchanged.
func WithAlias(op Operand, alias string) Operand {
	switch n := op.(type) {
	case *Column:
		c := *n
		c.Alias = alias
		return &c
	case *Function:
		c := *n
		c.Alias = alias
		return &c
	case *JSONPath:
		c := *n
		c.Alias = alias
		return &c
	case *ScalarSubquery:
		c := *n
		c.Alias = alias
		return &c
	case *Case:
		c := *n
		c.Alias = alias
		return &c
	case *WindowFunction:
		c := *n
		c.Alias = alias
		return &c
	default:
		return op
	}
}
