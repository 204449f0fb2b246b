package compiler

import (
	"strconv"
	"strings"

	"github.com/Konsultn-Engineering/metal/ast"
)

// BaseDialect implements Dialect with ANSI behavior: double quoted
// identifiers, `?` placeholders, LIMIT/OFFSET pagination and WITH
// RECURSIVE. Upserts, RETURNING, JSON paths, DELETE ... USING and
// procedure calls are reported as unsupported.
type BaseDialect struct {
	name string
}

func NewBaseDialect(name string) BaseDialect {
	return BaseDialect{name: name}
}

func (b BaseDialect) Name() string { return b.name }

func (BaseDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (BaseDialect) Placeholder(int) string { return "?" }

func (BaseDialect) SupportsRecursiveKeyword() bool { return true }

func (BaseDialect) FunctionName(name string) string { return name }

func (b BaseDialect) JSONPath(string, string) (string, error) {
	return "", Unsupported(b.name, "JSON path extraction is not supported")
}

func (b BaseDialect) ExcludedColumn(string) (string, error) {
	return "", Unsupported(b.name, "upsert is not supported")
}

func (BaseDialect) Pagination(limit, offset *int, _ bool) (string, error) {
	return LimitOffset(limit, offset), nil
}

func (BaseDialect) NullsOrder(nulls ast.NullsOrder) (string, error) {
	return " " + string(nulls), nil
}

// LimitOffset renders " LIMIT n OFFSET m", omitting whichever is unset.
func LimitOffset(limit, offset *int) string {
	var sb strings.Builder
	if limit != nil {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(*limit))
	}
	if offset != nil {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(*offset))
	}
	return sb.String()
}

func (b BaseDialect) CompileInsert(c *Compiler, ctx *Context, q *ast.InsertQuery) (string, error) {
	if q.OnConflict != nil {
		return "", Unsupported(b.name, "upsert is not supported")
	}
	if len(q.Returning) > 0 {
		return "", Unsupported(b.name, "RETURNING is not supported")
	}
	head, err := c.InsertHead(q)
	if err != nil {
		return "", err
	}
	src, err := c.InsertSource(ctx, q)
	if err != nil {
		return "", err
	}
	return head + " " + src, nil
}

func (b BaseDialect) CompileUpdate(c *Compiler, ctx *Context, q *ast.UpdateQuery) (string, error) {
	if len(q.Returning) > 0 {
		return "", Unsupported(b.name, "RETURNING is not supported")
	}
	return UpdateFrom(c, ctx, q)
}

// UpdateFrom renders `UPDATE t SET ... [FROM ...] [WHERE ...]`.
func UpdateFrom(c *Compiler, ctx *Context, q *ast.UpdateQuery) (string, error) {
	head, err := c.UpdateHead(ctx, q)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(head)
	if len(q.From) > 0 {
		from, err := c.TableSources(ctx, q.From)
		if err != nil {
			return "", err
		}
		sb.WriteString(" FROM ")
		sb.WriteString(from)
	}
	where, err := c.Where(ctx, q.Where)
	if err != nil {
		return "", err
	}
	sb.WriteString(where)
	return sb.String(), nil
}

func (b BaseDialect) CompileDelete(c *Compiler, ctx *Context, q *ast.DeleteQuery) (string, error) {
	if len(q.Using) > 0 {
		return "", Unsupported(b.name, "DELETE ... USING is not supported")
	}
	if len(q.Returning) > 0 {
		return "", Unsupported(b.name, "RETURNING is not supported")
	}
	head, err := c.DeleteHead(ctx, q)
	if err != nil {
		return "", err
	}
	where, err := c.Where(ctx, q.Where)
	if err != nil {
		return "", err
	}
	return head + where, nil
}

func (b BaseDialect) CompileProcedure(*Compiler, *Context, *ast.ProcedureCall) (string, error) {
	return "", Unsupported(b.name, "stored procedure calls are not supported")
}

// ProcedureName renders the schema-qualified procedure name.
func (c *Compiler) ProcedureName(p *ast.ProcedureCall) (string, error) {
	if p.Name == "" {
		return "", invalid("procedure call without a name")
	}
	if p.Schema != "" {
		return c.Quote(p.Schema) + "." + c.Quote(p.Name), nil
	}
	return c.Quote(p.Name), nil
}

// ValidateProcedure checks parameter names and directions.
func ValidateProcedure(p *ast.ProcedureCall) error {
	seen := make(map[string]bool, len(p.Params))
	for _, param := range p.Params {
		if param.Name == "" {
			return invalid("procedure %s: parameter without a name", p.Name)
		}
		if seen[param.Name] {
			return invalid("procedure %s: duplicate parameter %q", p.Name, param.Name)
		}
		seen[param.Name] = true
		switch param.Direction {
		case ast.ParamIn, ast.ParamInOut:
			if param.Value == nil {
				return invalid("procedure %s: %s parameter %q without a value", p.Name, param.Direction, param.Name)
			}
		case ast.ParamOut:
		default:
			return invalid("procedure %s: unknown direction %q for %q", p.Name, param.Direction, param.Name)
		}
	}
	return nil
}
