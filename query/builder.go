// Package query builds statement trees against schema tables.
//
// Builders are immutable: every method returns a new builder and leaves
// the receiver usable. Configuration errors, such as an unknown relation
// or column, are recorded at the call that caused them; later calls are
// no-ops and the error is returned from AST, Compile and Err.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/schema"
)

var (
	ErrUnknownRelation = schema.ErrUnknownRelation
	ErrUnknownColumn   = schema.ErrUnknownColumn
	ErrInvalidRaw      = errors.New("query: invalid raw column")
	ErrNoExecutor      = errors.New("query: no executor")
	ErrKeyShadowed     = errors.New("query: root primary key shadowed")
)

// base holds what every builder shares: the table, the name it is
// referenced by and the first recorded error.
type base struct {
	table *schema.TableDef
	ref   string
	err   error
}

func newBase(table *schema.TableDef, alias string) base {
	ref := alias
	if ref == "" {
		ref = table.Name
	}
	return base{table: table, ref: ref}
}

// Err returns the first error recorded while building, if any.
func (b base) Err() error { return b.err }

// Table returns the table the builder was started from.
func (b base) Table() *schema.TableDef { return b.table }

// Ref returns the name the table is referenced by: its alias or its name.
func (b base) Ref() string { return b.ref }

// column resolves spec to a column node. "table.column" is taken as
// written; a bare name must exist on the builder's table and is qualified
// with its reference.
func (b base) column(spec string) (*ast.Column, error) {
	if dot := strings.Index(spec, "."); dot > 0 {
		return ast.Col(spec[:dot], spec[dot+1:]), nil
	}
	if _, err := b.table.MustColumn(spec); err != nil {
		return nil, err
	}
	return ast.Col(b.ref, spec), nil
}

// columns resolves every spec, failing on the first unknown column.
func (b base) columns(specs []string) ([]*ast.Column, error) {
	out := make([]*ast.Column, len(specs))
	for i, spec := range specs {
		col, err := b.column(spec)
		if err != nil {
			return nil, err
		}
		out[i] = col
	}
	return out, nil
}

// names checks that every name is a column of the builder's table.
func (b base) names(names []string) error {
	for _, name := range names {
		if _, err := b.table.MustColumn(name); err != nil {
			return err
		}
	}
	return nil
}

// returning resolves names to unqualified column nodes for RETURNING and
// OUTPUT lists. "*" selects every column.
func (b base) returning(names []string) ([]ast.Operand, error) {
	out := make([]ast.Operand, len(names))
	for i, name := range names {
		if name == "*" {
			out[i] = ast.Star("")
			continue
		}
		if _, err := b.table.MustColumn(name); err != nil {
			return nil, err
		}
		out[i] = ast.Col("", name)
	}
	return out, nil
}

// Comparison keywords accepted by the Where helpers besides the binary
// operators.
const (
	opIn         = "IN"
	opNotIn      = "NOT IN"
	opIsNull     = "IS NULL"
	opIsNotNull  = "IS NOT NULL"
	opBetween    = "BETWEEN"
	opNotBetween = "NOT BETWEEN"
)

// condition builds `column op value`. IN takes a []any, BETWEEN a
// two-element []any, and the NULL checks ignore value.
func condition(col *ast.Column, op string, value any) (ast.Expression, error) {
	switch op {
	case opIn, opNotIn:
		values, ok := value.([]any)
		if !ok {
			values = []any{value}
		}
		if op == opNotIn {
			return ast.NotInList(col, values...), nil
		}
		return ast.InList(col, values...), nil
	case opIsNull:
		return ast.IsNull(col), nil
	case opIsNotNull:
		return ast.IsNotNull(col), nil
	case opBetween, opNotBetween:
		bounds, ok := value.([]any)
		if !ok || len(bounds) != 2 {
			return nil, fmt.Errorf("query: %s needs two bounds, got %v", op, value)
		}
		b := ast.Range(col, bounds[0], bounds[1])
		b.Negated = op == opNotBetween
		return b, nil
	default:
		op = strings.ToUpper(op)
		if !ast.IsComparisonOperator(op) {
			return nil, fmt.Errorf("query: unknown operator %q", op)
		}
		return &ast.Binary{Left: col, Operator: op, Right: ast.ToOperand(value)}, nil
	}
}
