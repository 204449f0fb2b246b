package connector

import (
	"context"
	"time"

	"github.com/Konsultn-Engineering/metal/database"
)

type timeoutExecutor struct {
	exec    database.Executor
	timeout time.Duration
}

// WithQueryTimeout bounds every statement run through exec by d. A zero d
// returns exec unchanged.
func WithQueryTimeout(exec database.Executor, d time.Duration) database.Executor {
	if d <= 0 {
		return exec
	}
	return timeoutExecutor{exec: exec, timeout: d}
}

func (t timeoutExecutor) Query(ctx context.Context, query string, params []any) ([]map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.exec.Query(ctx, query, params)
}

func (t timeoutExecutor) Exec(ctx context.Context, query string, params []any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.exec.Exec(ctx, query, params)
}
