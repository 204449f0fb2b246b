package query

import (
	"context"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/compiler"
	"github.com/Konsultn-Engineering/metal/database"
)

func queryRows(ctx context.Context, exec database.Executor, c *compiler.Compiler, stmt ast.Statement) ([]map[string]any, error) {
	if exec == nil {
		return nil, ErrNoExecutor
	}
	out, err := c.Compile(stmt)
	if err != nil {
		return nil, err
	}
	return exec.Query(ctx, out.SQL, out.Params)
}

func execStatement(ctx context.Context, exec database.Executor, c *compiler.Compiler, stmt ast.Statement) (int64, error) {
	if exec == nil {
		return 0, ErrNoExecutor
	}
	out, err := c.Compile(stmt)
	if err != nil {
		return 0, err
	}
	return exec.Exec(ctx, out.SQL, out.Params)
}
