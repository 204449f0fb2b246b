package dialect

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/compiler"
)

type Postgres struct {
	compiler.BaseDialect
}

func NewPostgres() *Postgres {
	return &Postgres{BaseDialect: compiler.NewBaseDialect("postgres")}
}

func (Postgres) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

func (Postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

var jsonPathSegment = regexp.MustCompile(`\.([A-Za-z_][A-Za-z0-9_]*)|\[([0-9]+)\]`)

// JSONPath renders `column #>> '{a,b,0}'` for `$.a.b[0]`.
func (Postgres) JSONPath(column, path string) (string, error) {
	var keys []string
	for _, m := range jsonPathSegment.FindAllStringSubmatch(path, -1) {
		if m[1] != "" {
			keys = append(keys, m[1])
		} else {
			keys = append(keys, m[2])
		}
	}
	return column + " #>> '{" + strings.Join(keys, ",") + "}'", nil
}

func (p Postgres) ExcludedColumn(name string) (string, error) {
	return "EXCLUDED." + p.QuoteIdentifier(name), nil
}

func (Postgres) CompileInsert(c *compiler.Compiler, ctx *compiler.Context, q *ast.InsertQuery) (string, error) {
	return insertWithReturning(c, ctx, q)
}

func (Postgres) CompileUpdate(c *compiler.Compiler, ctx *compiler.Context, q *ast.UpdateQuery) (string, error) {
	sql, err := compiler.UpdateFrom(c, ctx, q)
	if err != nil {
		return "", err
	}
	ret, err := c.Returning(ctx, q.Returning)
	if err != nil {
		return "", err
	}
	return sql + ret, nil
}

func (Postgres) CompileDelete(c *compiler.Compiler, ctx *compiler.Context, q *ast.DeleteQuery) (string, error) {
	head, err := c.DeleteHead(ctx, q)
	if err != nil {
		return "", err
	}
	sql := head
	if len(q.Using) > 0 {
		using, err := c.TableSources(ctx, q.Using)
		if err != nil {
			return "", err
		}
		sql += " USING " + using
	}
	where, err := c.Where(ctx, q.Where)
	if err != nil {
		return "", err
	}
	ret, err := c.Returning(ctx, q.Returning)
	if err != nil {
		return "", err
	}
	return sql + where + ret, nil
}

// CompileProcedure renders CALL. OUT arguments are passed as NULL; the
// procedure returns their values as a single row.
func (Postgres) CompileProcedure(c *compiler.Compiler, ctx *compiler.Context, p *ast.ProcedureCall) (string, error) {
	if err := compiler.ValidateProcedure(p); err != nil {
		return "", err
	}
	name, err := c.ProcedureName(p)
	if err != nil {
		return "", err
	}
	args := make([]string, len(p.Params))
	for i, param := range p.Params {
		if param.Direction == ast.ParamOut {
			args[i] = "NULL"
			continue
		}
		v, err := c.Operand(ctx, param.Value)
		if err != nil {
			return "", err
		}
		args[i] = v
	}
	return "CALL " + name + "(" + strings.Join(args, ", ") + ")", nil
}
