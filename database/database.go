// Package database runs compiled statements and returns rows as maps keyed
// by column name.
package database

import (
	"context"
	"log/slog"
	"time"
)

// Executor runs SQL produced by the compiler. Params are bound in order.
type Executor interface {
	Query(ctx context.Context, query string, params []any) ([]map[string]any, error)
	Exec(ctx context.Context, query string, params []any) (int64, error)
}

// Rows is the subset of a driver result set scanRows needs.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	NextResultSet() bool
	Err() error
}

// DefaultSlowThreshold is the duration past which a statement is logged as
// slow.
const DefaultSlowThreshold = 100 * time.Millisecond

type options struct {
	slowThreshold time.Duration
	logger        *slog.Logger
}

func newOptions(opts []Option) options {
	o := options{slowThreshold: DefaultSlowThreshold, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type Option func(*options)

// WithSlowThreshold sets the slow statement threshold. Zero disables the
// warning.
func WithSlowThreshold(d time.Duration) Option {
	return func(o *options) { o.slowThreshold = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// observe records one statement in stats and logs it when slow or failed.
func (o options) observe(ctx context.Context, stats *QueryStats, exec bool, query string, params []any, start time.Time, err error) {
	elapsed := time.Since(start)
	stats.record(exec, elapsed, o.slowThreshold, err)
	if err != nil {
		o.logger.DebugContext(ctx, "query failed", "query", query, "error", err)
		return
	}
	if o.slowThreshold > 0 && elapsed > o.slowThreshold {
		o.logger.WarnContext(ctx, "slow query detected", "duration", elapsed, "query", query, "args", len(params))
	}
}

// scanRows reads every row into a map. []byte values are returned as
// strings. A batch of statements yields several result sets; the rows of
// the last one that has columns are returned, which is where a procedure
// call selects its output parameters.
func scanRows(rows Rows) ([]map[string]any, error) {
	results := make([]map[string]any, 0)
	for {
		columns, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		if len(columns) > 0 {
			if results, err = scanResultSet(rows, columns); err != nil {
				return nil, err
			}
		}
		if !rows.NextResultSet() {
			break
		}
	}
	return results, rows.Err()
}

func scanResultSet(rows Rows, columns []string) ([]map[string]any, error) {
	buf := scanPool.Get().(*scanBuffers)
	defer buf.release()
	buf.prepare(len(columns))

	results := make([]map[string]any, 0)
	for rows.Next() {
		if err := rows.Scan(buf.ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := buf.vals[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = buf.vals[i]
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
