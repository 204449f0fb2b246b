// Package ast defines the typed statement tree that query builders produce
// and dialect compilers consume.
//
// Nodes are immutable once constructed. Builders never modify a node that
// has been handed out; they copy the parent and replace the touched field.
package ast

import "fmt"

type NodeType int

const (
	// Operands
	NodeLiteral NodeType = iota
	NodeColumn
	NodeFunction
	NodeJSONPath
	NodeScalarSubquery
	NodeCase
	NodeWindowFunction

	// Boolean expressions
	NodeBinary
	NodeLogical
	NodeNull
	NodeIn
	NodeExists
	NodeBetween

	// Statement parts
	NodeTable
	NodeDerivedTable
	NodeJoin
	NodeOrderBy
	NodeCTE
	NodeSetOperation

	// Statements
	NodeSelect
	NodeInsert
	NodeUpdate
	NodeDelete
	NodeProcedureCall

	// NodeTypeCount sizes dispatch tables indexed by NodeType.
	NodeTypeCount
)

var nodeTypeNames = [NodeTypeCount]string{
	NodeLiteral:        "Literal",
	NodeColumn:         "Column",
	NodeFunction:       "Function",
	NodeJSONPath:       "JsonPath",
	NodeScalarSubquery: "ScalarSubquery",
	NodeCase:           "CaseExpression",
	NodeWindowFunction: "WindowFunction",
	NodeBinary:         "BinaryExpression",
	NodeLogical:        "LogicalExpression",
	NodeNull:           "NullExpression",
	NodeIn:             "InExpression",
	NodeExists:         "ExistsExpression",
	NodeBetween:        "BetweenExpression",
	NodeTable:          "Table",
	NodeDerivedTable:   "DerivedTable",
	NodeJoin:           "Join",
	NodeOrderBy:        "OrderBy",
	NodeCTE:            "CommonTableExpression",
	NodeSetOperation:   "SetOperation",
	NodeSelect:         "SelectQuery",
	NodeInsert:         "InsertQuery",
	NodeUpdate:         "UpdateQuery",
	NodeDelete:         "DeleteQuery",
	NodeProcedureCall:  "ProcedureCall",
}

func (t NodeType) String() string {
	if t >= 0 && t < NodeTypeCount {
		return nodeTypeNames[t]
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// Node is implemented by every tree element.
type Node interface {
	Type() NodeType
	Fingerprint() uint64
}

// Operand is a value-producing node: something that can appear in a
// projection list or on either side of a comparison.
type Operand interface {
	Node
	operandNode()
}

// Expression is a boolean-valued node usable in WHERE, HAVING, ON and
// CASE WHEN positions.
type Expression interface {
	Node
	expressionNode()
}

// TableSource is anything that can appear after FROM or JOIN.
type TableSource interface {
	Node
	tableSourceNode()
	// Reference returns the name other clauses use to qualify columns of
	// this source: the alias if set, otherwise the table name.
	Reference() string
}

// Statement is a complete compilable unit.
type Statement interface {
	Node
	statementNode()
}
