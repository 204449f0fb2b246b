package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/Konsultn-Engineering/metal/cache"
)

// SQLConn is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type SQLConn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// SQLExecutor runs statements through database/sql.
type SQLExecutor struct {
	conn  SQLConn
	stmts *cache.StatementCache
	stats QueryStats
	opts  options
}

var _ Executor = (*SQLExecutor)(nil)

func NewSQLExecutor(conn SQLConn, opts ...Option) *SQLExecutor {
	return &SQLExecutor{conn: conn, opts: newOptions(opts)}
}

// WithStatementCache prepares each distinct statement once and reuses it.
// The cache must not be shared with executors on other connections.
func (e *SQLExecutor) WithStatementCache(c *cache.StatementCache) *SQLExecutor {
	e.stmts = c
	return e
}

func (e *SQLExecutor) Stats() StatsSnapshot { return e.stats.Snapshot() }

func (e *SQLExecutor) Query(ctx context.Context, query string, params []any) (result []map[string]any, err error) {
	start := time.Now()
	defer func() { e.opts.observe(ctx, &e.stats, false, query, params, start, err) }()

	var rows *sql.Rows
	if e.stmts != nil {
		stmt, release, perr := e.stmts.GetOrPrepare(ctx, e.conn, query)
		if perr != nil {
			return nil, perr
		}
		defer release()
		rows, err = stmt.QueryContext(ctx, params...)
	} else {
		rows, err = e.conn.QueryContext(ctx, query, params...)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func (e *SQLExecutor) Exec(ctx context.Context, query string, params []any) (affected int64, err error) {
	start := time.Now()
	defer func() { e.opts.observe(ctx, &e.stats, true, query, params, start, err) }()

	var res sql.Result
	if e.stmts != nil {
		stmt, release, perr := e.stmts.GetOrPrepare(ctx, e.conn, query)
		if perr != nil {
			return 0, perr
		}
		defer release()
		res, err = stmt.ExecContext(ctx, params...)
	} else {
		res, err = e.conn.ExecContext(ctx, query, params...)
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
