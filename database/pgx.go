package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxConn is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type PgxConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PgxExecutor runs statements through pgx. pgx prepares and caches
// statements itself.
type PgxExecutor struct {
	conn  PgxConn
	stats QueryStats
	opts  options
}

var _ Executor = (*PgxExecutor)(nil)

func NewPgxExecutor(conn PgxConn, opts ...Option) *PgxExecutor {
	return &PgxExecutor{conn: conn, opts: newOptions(opts)}
}

func (e *PgxExecutor) Stats() StatsSnapshot { return e.stats.Snapshot() }

func (e *PgxExecutor) Query(ctx context.Context, query string, params []any) (result []map[string]any, err error) {
	start := time.Now()
	defer func() { e.opts.observe(ctx, &e.stats, false, query, params, start, err) }()

	rows, err := e.conn.Query(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(pgxRows{rows})
}

func (e *PgxExecutor) Exec(ctx context.Context, query string, params []any) (affected int64, err error) {
	start := time.Now()
	defer func() { e.opts.observe(ctx, &e.stats, true, query, params, start, err) }()

	tag, err := e.conn.Exec(ctx, query, params...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// pgxRows adapts pgx.Rows to Rows.
type pgxRows struct {
	rows pgx.Rows
}

func (r pgxRows) Next() bool { return r.rows.Next() }

func (r pgxRows) Scan(dest ...any) error {
	values, err := r.rows.Values()
	if err != nil {
		return err
	}
	for i, v := range values {
		*dest[i].(*any) = v
	}
	return nil
}

func (r pgxRows) Columns() ([]string, error) {
	fields := r.rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}
	return columns, nil
}

// NextResultSet is always false: pgx runs one statement per query.
func (r pgxRows) NextResultSet() bool { return false }

func (r pgxRows) Err() error { return r.rows.Err() }
