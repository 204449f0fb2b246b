// Package dialect provides the SQL engines the compiler can target.
package dialect

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/compiler"
)

var constructors = map[string]func() compiler.Dialect{
	"postgres": func() compiler.Dialect { return NewPostgres() },
	"mysql":    func() compiler.Dialect { return NewMySQL() },
	"tidb":     func() compiler.Dialect { return NewTiDB() },
	"sqlite":   func() compiler.Dialect { return NewSQLite() },
	"mssql":    func() compiler.Dialect { return NewMSSQL() },
}

var aliases = map[string]string{
	"postgresql": "postgres",
	"pg":         "postgres",
	"pgx":        "postgres",
	"sqlite3":    "sqlite",
	"sqlserver":  "mssql",
}

// Get returns the dialect registered under name or one of its aliases.
func Get(name string) (compiler.Dialect, error) {
	key := strings.ToLower(name)
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	ctor, ok := constructors[key]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(), nil
}

// Names lists the canonical dialect names, sorted.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	identPattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	dbTypePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_ ]*(\([0-9A-Za-z, ]+\))?$`)
)

// sessionVariable names the variable that receives an OUT parameter. The
// prefix keeps it clear of generated placeholders such as @p1.
func sessionVariable(param ast.ProcedureParam) (string, error) {
	if !identPattern.MatchString(param.Name) {
		return "", fmt.Errorf("%w: invalid procedure parameter name %q", compiler.ErrInvalidAST, param.Name)
	}
	return "@out_" + param.Name, nil
}

// onConflict renders the ON CONFLICT clause shared by postgres and sqlite.
func onConflict(c *compiler.Compiler, ctx *compiler.Context, oc *ast.OnConflict) (string, error) {
	var sb strings.Builder
	sb.WriteString(" ON CONFLICT")
	if len(oc.Columns) > 0 {
		sb.WriteByte(' ')
		sb.WriteString(c.QuoteColumns(oc.Columns))
	}
	if oc.DoNothing {
		sb.WriteString(" DO NOTHING")
		return sb.String(), nil
	}
	if len(oc.Columns) == 0 {
		return "", compiler.Unsupported(c.Dialect().Name(), "ON CONFLICT DO UPDATE requires conflict columns")
	}
	set, err := c.Assignments(ctx, oc.Set)
	if err != nil {
		return "", err
	}
	sb.WriteString(" DO UPDATE SET ")
	sb.WriteString(set)
	where, err := c.Where(ctx, oc.Where)
	if err != nil {
		return "", err
	}
	sb.WriteString(where)
	return sb.String(), nil
}

// insertWithReturning renders INSERT ... [ON CONFLICT ...] [RETURNING ...].
func insertWithReturning(c *compiler.Compiler, ctx *compiler.Context, q *ast.InsertQuery) (string, error) {
	head, err := c.InsertHead(q)
	if err != nil {
		return "", err
	}
	src, err := c.InsertSource(ctx, q)
	if err != nil {
		return "", err
	}
	sql := head + " " + src
	if q.OnConflict != nil {
		clause, err := onConflict(c, ctx, q.OnConflict)
		if err != nil {
			return "", err
		}
		sql += clause
	}
	ret, err := c.Returning(ctx, q.Returning)
	if err != nil {
		return "", err
	}
	return sql + ret, nil
}
