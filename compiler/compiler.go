// Package compiler renders statement trees into parameterized SQL.
//
// A Compiler pairs the shared rendering logic with a Dialect. Operand and
// expression nodes are rendered through dispatch tables indexed by node
// type; statements are assembled clause by clause, with dialect hooks for
// everything that differs between engines.
package compiler

import (
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/cache"
	"github.com/Konsultn-Engineering/metal/utils"
)

// Compiled is the output of a compilation. SQL always ends with ";".
type Compiled struct {
	SQL    string
	Params []any
}

// Dialect supplies the engine specific parts of rendering. Embed
// BaseDialect to inherit the generic behavior and override what differs.
//
// Statement hooks receive the Compiler so they can render sub-trees; any
// call back into the dialect must go through c.Dialect() so overrides of
// the embedding type are honored.
type Dialect interface {
	Name() string
	QuoteIdentifier(name string) string
	Placeholder(index int) string
	// SupportsRecursiveKeyword reports whether WITH RECURSIVE is written
	// when a CTE is recursive.
	SupportsRecursiveKeyword() bool
	// FunctionName maps a function name to the dialect's spelling.
	FunctionName(name string) string
	// JSONPath renders extraction of path from the already rendered column.
	JSONPath(column, path string) (string, error)
	// ExcludedColumn renders a reference to the row proposed for insertion
	// inside an upsert.
	ExcludedColumn(name string) (string, error)
	// Pagination renders the clause that follows ORDER BY, including a
	// leading space. It is only called when limit or offset is set.
	Pagination(limit, offset *int, hasOrderBy bool) (string, error)
	// NullsOrder renders NULL placement for an ORDER BY term, including a
	// leading space.
	NullsOrder(nulls ast.NullsOrder) (string, error)

	CompileInsert(c *Compiler, ctx *Context, q *ast.InsertQuery) (string, error)
	CompileUpdate(c *Compiler, ctx *Context, q *ast.UpdateQuery) (string, error)
	CompileDelete(c *Compiler, ctx *Context, q *ast.DeleteQuery) (string, error)
	CompileProcedure(c *Compiler, ctx *Context, p *ast.ProcedureCall) (string, error)
}

// RendererOverrider is implemented by dialects that replace individual
// node renderers. It is called once from New.
type RendererOverrider interface {
	OverrideRenderers(c *Compiler)
}

type OperandRenderer func(c *Compiler, ctx *Context, node ast.Operand) (string, error)

type ExpressionRenderer func(c *Compiler, ctx *Context, node ast.Expression) (string, error)

type Compiler struct {
	dialect   Dialect
	operands  [ast.NodeTypeCount]OperandRenderer
	exprs     [ast.NodeTypeCount]ExpressionRenderer
	cache     *cache.QueryCache
	dialectFP uint64
	sealed    bool
}

type Option func(*Compiler)

// WithCache memoizes compiled statements by fingerprint.
func WithCache(c *cache.QueryCache) Option {
	return func(comp *Compiler) {
		comp.cache = c
	}
}

// New builds a compiler for d. The dispatch tables are fixed once New
// returns, so a Compiler is safe for concurrent use.
func New(d Dialect, opts ...Option) *Compiler {
	c := &Compiler{dialect: d, dialectFP: utils.U64(d.Name())}
	c.registerDefaults()
	if o, ok := d.(RendererOverrider); ok {
		o.OverrideRenderers(c)
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sealed = true
	return c
}

func (c *Compiler) Dialect() Dialect { return c.dialect }

// SetOperandRenderer replaces the renderer for t. Only valid during New.
func (c *Compiler) SetOperandRenderer(t ast.NodeType, r OperandRenderer) {
	if c.sealed {
		panic("compiler: renderers are read-only after construction")
	}
	c.operands[t] = r
}

// SetExpressionRenderer replaces the renderer for t. Only valid during New.
func (c *Compiler) SetExpressionRenderer(t ast.NodeType, r ExpressionRenderer) {
	if c.sealed {
		panic("compiler: renderers are read-only after construction")
	}
	c.exprs[t] = r
}

// OperandRendererFor returns the registered renderer for t, so overrides
// can delegate to the default.
func (c *Compiler) OperandRendererFor(t ast.NodeType) OperandRenderer {
	return c.operands[t]
}

func (c *Compiler) ExpressionRendererFor(t ast.NodeType) ExpressionRenderer {
	return c.exprs[t]
}

// Compile renders stmt. The same statement compiled twice by the same
// compiler yields identical output.
func (c *Compiler) Compile(stmt ast.Statement) (Compiled, error) {
	if stmt == nil {
		return Compiled{}, invalid("nil statement")
	}
	if c.cache == nil {
		return c.compile(stmt)
	}
	key := utils.Mix64(c.dialectFP, stmt.Fingerprint())
	q, err := c.cache.GetOrCompile(key, func() (cache.CompiledQuery, bool, error) {
		out, err := c.compile(stmt)
		return cache.CompiledQuery{SQL: out.SQL, Params: out.Params}, exactParams(out.Params), err
	})
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{SQL: q.SQL, Params: q.Params}, nil
}

// exactParams reports whether every bound value is encoded exactly by the
// statement fingerprint, so the output can be served to other statements
// with the same fingerprint.
func exactParams(params []any) bool {
	for _, p := range params {
		if !ast.ExactValue(p) {
			return false
		}
	}
	return true
}

func (c *Compiler) compile(stmt ast.Statement) (Compiled, error) {
	ctx := newContext(c.dialect)

	var (
		sql string
		err error
	)
	switch s := stmt.(type) {
	case *ast.SelectQuery:
		sql, err = c.Select(ctx, s)
	case *ast.InsertQuery:
		sql, err = c.dialect.CompileInsert(c, ctx, s)
	case *ast.UpdateQuery:
		sql, err = c.dialect.CompileUpdate(c, ctx, s)
	case *ast.DeleteQuery:
		sql, err = c.dialect.CompileDelete(c, ctx, s)
	case *ast.ProcedureCall:
		sql, err = c.dialect.CompileProcedure(c, ctx, s)
	default:
		panic(fmt.Sprintf("compiler: unreachable statement variant %T", stmt))
	}
	if err != nil {
		return Compiled{}, err
	}

	return Compiled{SQL: terminate(sql), Params: ctx.Params()}, nil
}

func terminate(sql string) string {
	sql = strings.TrimSpace(sql)
	sql = strings.TrimRight(sql, ";")
	return sql + ";"
}

// Operand renders op through the dispatch table.
func (c *Compiler) Operand(ctx *Context, op ast.Operand) (string, error) {
	if op == nil {
		return "", invalid("missing operand")
	}
	r := c.operands[op.Type()]
	if r == nil {
		return "", invalid("no renderer for operand %s", op.Type())
	}
	return r(c, ctx, op)
}

// Expression renders e through the dispatch table.
func (c *Compiler) Expression(ctx *Context, e ast.Expression) (string, error) {
	if e == nil {
		return "", invalid("missing expression")
	}
	r := c.exprs[e.Type()]
	if r == nil {
		return "", invalid("no renderer for expression %s", e.Type())
	}
	return r(c, ctx, e)
}

// Operands renders ops separated by ", ".
func (c *Compiler) Operands(ctx *Context, ops []ast.Operand) (string, error) {
	parts := make([]string, len(ops))
	for i, op := range ops {
		s, err := c.Operand(ctx, op)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

// Projection renders op followed by ` AS alias` when the operand carries an
// explicit alias.
func (c *Compiler) Projection(ctx *Context, op ast.Operand) (string, error) {
	s, err := c.Operand(ctx, op)
	if err != nil {
		return "", err
	}
	alias, ok := ast.OutputName(op)
	if !ok {
		return s, nil
	}
	if col, isCol := op.(*ast.Column); isCol && col.Alias == "" {
		return s, nil
	}
	return s + " AS " + c.Quote(alias), nil
}

// Quote quotes a single identifier.
func (c *Compiler) Quote(name string) string {
	return c.dialect.QuoteIdentifier(name)
}

// QuoteTable renders the schema-qualified table name without its alias.
func (c *Compiler) QuoteTable(t *ast.Table) string {
	if t.Schema != "" {
		return c.Quote(t.Schema) + "." + c.Quote(t.Name)
	}
	return c.Quote(t.Name)
}

// QuoteColumns renders a parenthesized, quoted column list.
func (c *Compiler) QuoteColumns(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = c.Quote(n)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}
