package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/compiler"
)

// mergeSource is the alias of the proposed rows inside a MERGE.
const mergeSource = "src"

var mssqlFunctions = map[string]string{
	"LENGTH":      "LEN",
	"CHAR_LENGTH": "LEN",
	"NOW":         "GETDATE",
	"SUBSTR":      "SUBSTRING",
}

// MSSQL targets SQL Server. Upserts compile to MERGE and RETURNING to
// OUTPUT.
type MSSQL struct {
	compiler.BaseDialect
}

func NewMSSQL() *MSSQL {
	return &MSSQL{BaseDialect: compiler.NewBaseDialect("mssql")}
}

func (MSSQL) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (MSSQL) Placeholder(n int) string {
	return "@p" + strconv.Itoa(n)
}

func (MSSQL) SupportsRecursiveKeyword() bool { return false }

func (MSSQL) FunctionName(name string) string {
	if mapped, ok := mssqlFunctions[name]; ok {
		return mapped
	}
	return name
}

func (MSSQL) JSONPath(column, path string) (string, error) {
	return "JSON_VALUE(" + column + ", '" + path + "')", nil
}

func (m MSSQL) NullsOrder(ast.NullsOrder) (string, error) {
	return "", compiler.Unsupported(m.Name(), "NULLS FIRST/LAST is not supported")
}

func (m MSSQL) ExcludedColumn(name string) (string, error) {
	return m.QuoteIdentifier(mergeSource) + "." + m.QuoteIdentifier(name), nil
}

// Pagination renders OFFSET/FETCH. SQL Server only accepts it after an
// ORDER BY, so a neutral one is added when the query has none.
func (MSSQL) Pagination(limit, offset *int, hasOrderBy bool) (string, error) {
	var sb strings.Builder
	if !hasOrderBy {
		sb.WriteString(" ORDER BY (SELECT NULL)")
	}
	off := 0
	if offset != nil {
		off = *offset
	}
	sb.WriteString(" OFFSET ")
	sb.WriteString(strconv.Itoa(off))
	sb.WriteString(" ROWS")
	if limit != nil {
		sb.WriteString(" FETCH NEXT ")
		sb.WriteString(strconv.Itoa(*limit))
		sb.WriteString(" ROWS ONLY")
	}
	return sb.String(), nil
}

// OverrideRenderers rewrites ILIKE, which SQL Server lacks, into a LIKE
// over lowered operands.
func (MSSQL) OverrideRenderers(c *compiler.Compiler) {
	binary := c.ExpressionRendererFor(ast.NodeBinary)
	c.SetExpressionRenderer(ast.NodeBinary, func(c *compiler.Compiler, ctx *compiler.Context, node ast.Expression) (string, error) {
		b := node.(*ast.Binary)
		var op string
		switch b.Operator {
		case ast.OpILike:
			op = " LIKE "
		case ast.OpNotILike:
			op = " NOT LIKE "
		default:
			return binary(c, ctx, node)
		}
		left, err := c.Operand(ctx, b.Left)
		if err != nil {
			return "", err
		}
		right, err := c.Operand(ctx, b.Right)
		if err != nil {
			return "", err
		}
		return "LOWER(" + left + ")" + op + "LOWER(" + right + ")", nil
	})
}

// output renders " OUTPUT INSERTED.[a], ..." for the pseudo table prefix.
// Only plain columns can be returned.
func (m MSSQL) output(c *compiler.Compiler, prefix string, ops []ast.Operand) (string, error) {
	if len(ops) == 0 {
		return "", nil
	}
	parts := make([]string, len(ops))
	for i, op := range ops {
		col, ok := op.(*ast.Column)
		if !ok {
			return "", compiler.Unsupported(m.Name(), "OUTPUT only accepts columns")
		}
		if col.IsStar() {
			parts[i] = prefix + ".*"
			continue
		}
		parts[i] = prefix + "." + c.Quote(col.Name)
		if col.Alias != "" {
			parts[i] += " AS " + c.Quote(col.Alias)
		}
	}
	return " OUTPUT " + strings.Join(parts, ", "), nil
}

func (m MSSQL) CompileInsert(c *compiler.Compiler, ctx *compiler.Context, q *ast.InsertQuery) (string, error) {
	if q.OnConflict != nil {
		return m.merge(c, ctx, q)
	}
	head, err := c.InsertHead(q)
	if err != nil {
		return "", err
	}
	out, err := m.output(c, "INSERTED", q.Returning)
	if err != nil {
		return "", err
	}
	src, err := c.InsertSource(ctx, q)
	if err != nil {
		return "", err
	}
	return head + out + " " + src, nil
}

// merge renders an upsert as
//
//	MERGE INTO t USING (source) AS [src] (cols) ON t.k = [src].k
//	WHEN MATCHED [AND guard] THEN UPDATE SET ...
//	WHEN NOT MATCHED THEN INSERT (cols) VALUES ([src].cols)
func (m MSSQL) merge(c *compiler.Compiler, ctx *compiler.Context, q *ast.InsertQuery) (string, error) {
	oc := q.OnConflict
	if len(oc.Columns) == 0 {
		return "", compiler.Unsupported(m.Name(), "MERGE requires conflict columns")
	}
	inserted := make(map[string]bool, len(q.Columns))
	for _, col := range q.Columns {
		inserted[col] = true
	}
	for _, col := range oc.Columns {
		if !inserted[col] {
			return "", compiler.Unsupported(m.Name(), "MERGE conflict column "+strconv.Quote(col)+" is not an inserted column")
		}
	}

	// InsertHead validates the statement; the MERGE form does not use it.
	if _, err := c.InsertHead(q); err != nil {
		return "", err
	}

	var sb strings.Builder
	target := c.QuoteTable(q.Table)
	ref := c.Quote(q.Table.Reference())
	src := c.Quote(mergeSource)

	sb.WriteString("MERGE INTO ")
	sb.WriteString(target)
	if q.Table.Alias != "" {
		sb.WriteString(" AS ")
		sb.WriteString(ref)
	}

	source, err := c.InsertSource(ctx, q)
	if err != nil {
		return "", err
	}
	sb.WriteString(" USING (")
	sb.WriteString(source)
	sb.WriteString(") AS ")
	sb.WriteString(src)
	sb.WriteByte(' ')
	sb.WriteString(c.QuoteColumns(q.Columns))

	sb.WriteString(" ON ")
	for i, col := range oc.Columns {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(ref + "." + c.Quote(col) + " = " + src + "." + c.Quote(col))
	}

	if !oc.DoNothing {
		sb.WriteString(" WHEN MATCHED")
		if oc.Where != nil {
			guard, err := c.Expression(ctx, oc.Where)
			if err != nil {
				return "", err
			}
			sb.WriteString(" AND ")
			sb.WriteString(guard)
		}
		set, err := c.Assignments(ctx, oc.Set)
		if err != nil {
			return "", err
		}
		sb.WriteString(" THEN UPDATE SET ")
		sb.WriteString(set)
	}

	values := make([]string, len(q.Columns))
	for i, col := range q.Columns {
		values[i] = src + "." + c.Quote(col)
	}
	sb.WriteString(" WHEN NOT MATCHED THEN INSERT ")
	sb.WriteString(c.QuoteColumns(q.Columns))
	sb.WriteString(" VALUES (")
	sb.WriteString(strings.Join(values, ", "))
	sb.WriteByte(')')

	out, err := m.output(c, "INSERTED", q.Returning)
	if err != nil {
		return "", err
	}
	sb.WriteString(out)
	return sb.String(), nil
}

// CompileUpdate renders `UPDATE t SET ... [OUTPUT ...] [FROM ...] [WHERE ...]`.
// An aliased target is updated through its alias and listed in FROM.
func (m MSSQL) CompileUpdate(c *compiler.Compiler, ctx *compiler.Context, q *ast.UpdateQuery) (string, error) {
	if q.Table == nil || q.Table.Name == "" {
		return c.UpdateHead(ctx, q)
	}
	target := c.QuoteTable(q.Table)
	from := q.From
	if q.Table.Alias != "" {
		target = c.Quote(q.Table.Alias)
		from = append([]ast.TableSource{q.Table}, q.From...)
	}

	set, err := c.Assignments(ctx, q.Set)
	if err != nil {
		return "", err
	}
	out, err := m.output(c, "INSERTED", q.Returning)
	if err != nil {
		return "", err
	}
	sql := "UPDATE " + target + " SET " + set + out
	if len(from) > 0 {
		sources, err := c.TableSources(ctx, from)
		if err != nil {
			return "", err
		}
		sql += " FROM " + sources
	}
	where, err := c.Where(ctx, q.Where)
	if err != nil {
		return "", err
	}
	return sql + where, nil
}

func (m MSSQL) CompileDelete(c *compiler.Compiler, ctx *compiler.Context, q *ast.DeleteQuery) (string, error) {
	if len(q.Using) > 0 {
		return "", compiler.Unsupported(m.Name(), "DELETE ... USING is not supported")
	}
	if q.Table == nil || q.Table.Name == "" {
		return c.DeleteHead(ctx, q)
	}
	out, err := m.output(c, "DELETED", q.Returning)
	if err != nil {
		return "", err
	}
	var sql string
	if q.Table.Alias != "" {
		table, err := c.TableSource(ctx, q.Table)
		if err != nil {
			return "", err
		}
		sql = "DELETE " + c.Quote(q.Table.Alias) + out + " FROM " + table
	} else {
		sql = "DELETE FROM " + c.QuoteTable(q.Table) + out
	}
	where, err := c.Where(ctx, q.Where)
	if err != nil {
		return "", err
	}
	return sql + where, nil
}

// CompileProcedure declares a variable per OUT and INOUT parameter,
// assigns INOUT inputs, runs EXEC with named arguments and selects the
// variables back.
func (m MSSQL) CompileProcedure(c *compiler.Compiler, ctx *compiler.Context, p *ast.ProcedureCall) (string, error) {
	if err := compiler.ValidateProcedure(p); err != nil {
		return "", err
	}
	name, err := c.ProcedureName(p)
	if err != nil {
		return "", err
	}

	var stmts, assigns, selects []string
	for _, param := range p.Params {
		if param.Direction == ast.ParamIn {
			continue
		}
		variable, err := sessionVariable(param)
		if err != nil {
			return "", err
		}
		dbType := param.DBType
		if dbType == "" {
			dbType = "sql_variant"
		}
		if !dbTypePattern.MatchString(dbType) {
			return "", fmt.Errorf("%w: invalid type %q for parameter %q", compiler.ErrInvalidAST, dbType, param.Name)
		}
		stmts = append(stmts, "DECLARE "+variable+" "+dbType)
		selects = append(selects, variable+" AS "+m.QuoteIdentifier(param.Name))
		if param.Direction == ast.ParamInOut {
			v, err := c.Operand(ctx, param.Value)
			if err != nil {
				return "", err
			}
			assigns = append(assigns, "SET "+variable+" = "+v)
		}
	}
	stmts = append(stmts, assigns...)

	args := make([]string, len(p.Params))
	for i, param := range p.Params {
		if !identPattern.MatchString(param.Name) {
			return "", fmt.Errorf("%w: invalid procedure parameter name %q", compiler.ErrInvalidAST, param.Name)
		}
		arg := "@" + param.Name + " = "
		if param.Direction == ast.ParamIn {
			v, err := c.Operand(ctx, param.Value)
			if err != nil {
				return "", err
			}
			args[i] = arg + v
			continue
		}
		variable, _ := sessionVariable(param)
		args[i] = arg + variable + " OUTPUT"
	}

	exec := "EXEC " + name
	if len(args) > 0 {
		exec += " " + strings.Join(args, ", ")
	}
	stmts = append(stmts, exec)
	if len(selects) > 0 {
		stmts = append(stmts, "SELECT "+strings.Join(selects, ", "))
	}
	return strings.Join(stmts, "; "), nil
}
