package dialect

import (
	"strconv"
	"strings"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/compiler"
)

// maxMySQLLimit is the documented way to express "no limit" in MySQL when
// only an offset is wanted.
const maxMySQLLimit = "18446744073709551615"

type MySQL struct {
	compiler.BaseDialect
}

func NewMySQL() *MySQL {
	return &MySQL{BaseDialect: compiler.NewBaseDialect("mysql")}
}

func (MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) JSONPath(column, path string) (string, error) {
	return "JSON_UNQUOTE(JSON_EXTRACT(" + column + ", '" + path + "'))", nil
}

func (m MySQL) NullsOrder(ast.NullsOrder) (string, error) {
	return "", compiler.Unsupported(m.Name(), "NULLS FIRST/LAST is not supported")
}

func (m MySQL) ExcludedColumn(name string) (string, error) {
	return "VALUES(" + m.QuoteIdentifier(name) + ")", nil
}

func (MySQL) Pagination(limit, offset *int, _ bool) (string, error) {
	if limit == nil && offset != nil {
		return " LIMIT " + maxMySQLLimit + " OFFSET " + strconv.Itoa(*offset), nil
	}
	return compiler.LimitOffset(limit, offset), nil
}

func (m MySQL) CompileInsert(c *compiler.Compiler, ctx *compiler.Context, q *ast.InsertQuery) (string, error) {
	if len(q.Returning) > 0 {
		return "", compiler.Unsupported(m.Name(), "RETURNING is not supported")
	}
	head, err := c.InsertHead(q)
	if err != nil {
		return "", err
	}
	src, err := c.InsertSource(ctx, q)
	if err != nil {
		return "", err
	}
	sql := head + " " + src

	oc := q.OnConflict
	if oc == nil {
		return sql, nil
	}
	if oc.Where != nil {
		return "", compiler.Unsupported(m.Name(), "ON DUPLICATE KEY UPDATE cannot carry a WHERE guard")
	}
	if oc.DoNothing {
		// A self assignment leaves the existing row untouched.
		col := q.Columns[0]
		if len(oc.Columns) > 0 {
			col = oc.Columns[0]
		}
		quoted := m.QuoteIdentifier(col)
		return sql + " ON DUPLICATE KEY UPDATE " + quoted + " = " + quoted, nil
	}
	set, err := c.Assignments(ctx, oc.Set)
	if err != nil {
		return "", err
	}
	return sql + " ON DUPLICATE KEY UPDATE " + set, nil
}

// CompileUpdate renders the multi-table form `UPDATE t, u SET ...` when
// extra sources are present.
func (m MySQL) CompileUpdate(c *compiler.Compiler, ctx *compiler.Context, q *ast.UpdateQuery) (string, error) {
	if len(q.Returning) > 0 {
		return "", compiler.Unsupported(m.Name(), "RETURNING is not supported")
	}
	if len(q.From) == 0 || q.Table == nil {
		return compiler.UpdateFrom(c, ctx, q)
	}
	sources := append([]ast.TableSource{q.Table}, q.From...)
	tables, err := c.TableSources(ctx, sources)
	if err != nil {
		return "", err
	}
	set, err := c.Assignments(ctx, q.Set)
	if err != nil {
		return "", err
	}
	where, err := c.Where(ctx, q.Where)
	if err != nil {
		return "", err
	}
	return "UPDATE " + tables + " SET " + set + where, nil
}

// CompileDelete renders `DELETE t FROM t, u WHERE ...` for deletes that
// reference other tables.
func (m MySQL) CompileDelete(c *compiler.Compiler, ctx *compiler.Context, q *ast.DeleteQuery) (string, error) {
	if len(q.Returning) > 0 {
		return "", compiler.Unsupported(m.Name(), "RETURNING is not supported")
	}
	if len(q.Using) == 0 || q.Table == nil {
		return m.BaseDialect.CompileDelete(c, ctx, q)
	}
	sources := append([]ast.TableSource{q.Table}, q.Using...)
	tables, err := c.TableSources(ctx, sources)
	if err != nil {
		return "", err
	}
	where, err := c.Where(ctx, q.Where)
	if err != nil {
		return "", err
	}
	return "DELETE " + m.QuoteIdentifier(q.Table.Reference()) + " FROM " + tables + where, nil
}

// CompileProcedure assigns INOUT values to session variables, calls the
// procedure, then selects the OUT and INOUT variables back.
func (m MySQL) CompileProcedure(c *compiler.Compiler, ctx *compiler.Context, p *ast.ProcedureCall) (string, error) {
	if err := compiler.ValidateProcedure(p); err != nil {
		return "", err
	}
	name, err := c.ProcedureName(p)
	if err != nil {
		return "", err
	}

	// INOUT assignments precede the CALL, so their values bind first.
	var stmts, selects []string
	for _, param := range p.Params {
		if param.Direction != ast.ParamInOut {
			continue
		}
		variable, err := sessionVariable(param)
		if err != nil {
			return "", err
		}
		v, err := c.Operand(ctx, param.Value)
		if err != nil {
			return "", err
		}
		stmts = append(stmts, "SET "+variable+" = "+v)
	}

	args := make([]string, len(p.Params))
	for i, param := range p.Params {
		if param.Direction == ast.ParamIn {
			v, err := c.Operand(ctx, param.Value)
			if err != nil {
				return "", err
			}
			args[i] = v
			continue
		}
		variable, err := sessionVariable(param)
		if err != nil {
			return "", err
		}
		args[i] = variable
		selects = append(selects, variable+" AS "+m.QuoteIdentifier(param.Name))
	}

	stmts = append(stmts, "CALL "+name+"("+strings.Join(args, ", ")+")")
	if len(selects) > 0 {
		stmts = append(stmts, "SELECT "+strings.Join(selects, ", "))
	}
	return strings.Join(stmts, "; "), nil
}
