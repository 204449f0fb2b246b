package query

import "github.com/Konsultn-Engineering/metal/ast"

// Set returns the assignment `column = value`. Values that are not
// operands are bound as parameters.
func Set(column string, value any) ast.Assignment {
	return ast.Assignment{Column: column, Value: ast.ToOperand(value)}
}

// Excluded refers to column of the row proposed for insertion, for use in
// an upsert update set.
func Excluded(column string) *ast.Column {
	return &ast.Column{Table: ast.ExcludedTable, Name: column}
}

// Raw parses a raw column reference the way SelectRaw does, qualifying a
// bare column with table.
func Raw(spec, table string) (ast.Operand, error) {
	return parseRawColumn(spec, table)
}
