package connector

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Konsultn-Engineering/metal/cache"
	"github.com/Konsultn-Engineering/metal/compiler"
	"github.com/Konsultn-Engineering/metal/database"
)

// SQLConnection is a Connection over a database/sql pool. Providers for
// database/sql drivers build on it.
type SQLConnection struct {
	db      *sql.DB
	exec    *database.SQLExecutor
	stmts   *cache.StatementCache
	dialect compiler.Dialect
	timeout time.Duration
}

var _ Connection = (*SQLConnection)(nil)

// NewSQLConnection applies the pool settings of cfg to db and wraps it. The
// connection owns db and closes it on Close.
func NewSQLConnection(db *sql.DB, d compiler.Dialect, cfg Config) (*SQLConnection, error) {
	cfg = cfg.WithDefaults()
	db.SetMaxOpenConns(cfg.Pool.MaxOpen)
	db.SetMaxIdleConns(cfg.Pool.MaxIdle)
	db.SetConnMaxLifetime(cfg.Pool.MaxLifetime)
	db.SetConnMaxIdleTime(cfg.Pool.MaxIdleTime)

	c := &SQLConnection{
		db:      db,
		exec:    database.NewSQLExecutor(db, ExecutorOptions(cfg)...),
		dialect: d,
		timeout: cfg.QueryTimeout,
	}
	if cfg.StatementCacheSize > 0 {
		stmts, err := cache.NewStatementCache(cfg.StatementCacheSize)
		if err != nil {
			return nil, err
		}
		c.stmts = stmts
		c.exec.WithStatementCache(stmts)
	}
	return c, nil
}

// ExecutorOptions maps the logging settings of cfg onto executor options.
func ExecutorOptions(cfg Config) []database.Option {
	switch {
	case cfg.SlowQueryThreshold > 0:
		return []database.Option{database.WithSlowThreshold(cfg.SlowQueryThreshold)}
	case cfg.SlowQueryThreshold < 0:
		return []database.Option{database.WithSlowThreshold(0)}
	default:
		return nil
	}
}

// DB returns the underlying pool.
func (c *SQLConnection) DB() *sql.DB { return c.db }

func (c *SQLConnection) Executor() database.Executor {
	return WithQueryTimeout(c.exec, c.timeout)
}

func (c *SQLConnection) Dialect() compiler.Dialect { return c.dialect }

func (c *SQLConnection) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *SQLConnection) Stats() ConnectionStats {
	s := c.db.Stats()
	return ConnectionStats{
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
		Queries:         c.exec.Stats(),
	}
}

func (c *SQLConnection) Close() error {
	var errs []error
	if c.stmts != nil {
		errs = append(errs, c.stmts.Close())
	}
	errs = append(errs, c.db.Close())
	return errors.Join(errs...)
}
