package ast

// Comparison operators accepted by Binary.
const (
	OpEqual              = "="
	OpNotEqual           = "!="
	OpNotEqualAlt        = "<>"
	OpLessThan           = "<"
	OpLessThanOrEqual    = "<="
	OpGreaterThan        = ">"
	OpGreaterThanOrEqual = ">="
	OpLike               = "LIKE"
	OpNotLike            = "NOT LIKE"
	OpILike              = "ILIKE"
	OpNotILike           = "NOT ILIKE"
)

var comparisonOperators = map[string]struct{}{
	OpEqual:              {},
	OpNotEqual:           {},
	OpNotEqualAlt:        {},
	OpLessThan:           {},
	OpLessThanOrEqual:    {},
	OpGreaterThan:        {},
	OpGreaterThanOrEqual: {},
	OpLike:               {},
	OpNotLike:            {},
	OpILike:              {},
	OpNotILike:           {},
}

// IsComparisonOperator reports whether op may appear in a Binary node.
func IsComparisonOperator(op string) bool {
	_, ok := comparisonOperators[op]
	return ok
}

type LogicalOperator string

const (
	OpAnd LogicalOperator = "AND"
	OpOr  LogicalOperator = "OR"
)

type SetOperator string

const (
	SetUnion     SetOperator = "UNION"
	SetUnionAll  SetOperator = "UNION ALL"
	SetIntersect SetOperator = "INTERSECT"
	SetExcept    SetOperator = "EXCEPT"
)

type SortDirection string

const (
	Asc  SortDirection = "ASC"
	Desc SortDirection = "DESC"
)

// NullsOrder places NULLs before or after other values. The zero value
// leaves it to the database.
type NullsOrder string

const (
	NullsFirst NullsOrder = "NULLS FIRST"
	NullsLast  NullsOrder = "NULLS LAST"
)

type JoinKind string

const (
	JoinInner JoinKind = "INNER"
	JoinLeft  JoinKind = "LEFT"
	JoinRight JoinKind = "RIGHT"
	JoinFull  JoinKind = "FULL"
	JoinCross JoinKind = "CROSS"
)

type ParamDirection string

const (
	ParamIn    ParamDirection = "IN"
	ParamOut   ParamDirection = "OUT"
	ParamInOut ParamDirection = "INOUT"
)
