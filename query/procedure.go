package query

import (
	"context"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/compiler"
	"github.com/Konsultn-Engineering/metal/database"
)

// ProcedureBuilder builds a stored procedure call. Parameters are passed
// in the order they are added.
type ProcedureBuilder struct {
	call *ast.ProcedureCall
}

func Call(name string) *ProcedureBuilder {
	return &ProcedureBuilder{call: &ast.ProcedureCall{Name: name}}
}

func (b *ProcedureBuilder) with(edit func(p *ast.ProcedureCall)) *ProcedureBuilder {
	p := *b.call
	edit(&p)
	return &ProcedureBuilder{call: &p}
}

func (b *ProcedureBuilder) InSchema(schema string) *ProcedureBuilder {
	return b.with(func(p *ast.ProcedureCall) { p.Schema = schema })
}

func (b *ProcedureBuilder) param(param ast.ProcedureParam) *ProcedureBuilder {
	return b.with(func(p *ast.ProcedureCall) { p.Params = concat(p.Params, param) })
}

// In passes value as an input parameter.
func (b *ProcedureBuilder) In(name string, value any) *ProcedureBuilder {
	return b.param(ast.ProcedureParam{Name: name, Direction: ast.ParamIn, Value: ast.ToOperand(value)})
}

// Out declares an output parameter. dbType is used where the dialect has
// to declare a variable for it and may be empty.
func (b *ProcedureBuilder) Out(name, dbType string) *ProcedureBuilder {
	return b.param(ast.ProcedureParam{Name: name, Direction: ast.ParamOut, DBType: dbType})
}

// InOut passes value and reads the parameter back after the call.
func (b *ProcedureBuilder) InOut(name string, value any, dbType string) *ProcedureBuilder {
	return b.param(ast.ProcedureParam{Name: name, Direction: ast.ParamInOut, Value: ast.ToOperand(value), DBType: dbType})
}

func (b *ProcedureBuilder) AST() *ast.ProcedureCall { return b.call }

func (b *ProcedureBuilder) Compile(d compiler.Dialect) (compiler.Compiled, error) {
	return compiler.New(d).Compile(b.call)
}

// Execute runs the call and returns the rows it produces, which carry the
// output parameters on dialects that select them back.
func (b *ProcedureBuilder) Execute(ctx context.Context, exec database.Executor, c *compiler.Compiler) ([]map[string]any, error) {
	return queryRows(ctx, exec, c, b.call)
}
