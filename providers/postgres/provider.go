// Package postgres registers PostgreSQL providers: "postgres" (alias
// "pgx") runs on a pgx pool, "pq" on database/sql with lib/pq.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Konsultn-Engineering/metal/compiler"
	"github.com/Konsultn-Engineering/metal/connector"
	"github.com/Konsultn-Engineering/metal/database"
	"github.com/Konsultn-Engineering/metal/dialect"
)

type Provider struct{}

func init() {
	connector.Register("postgres", &Provider{})
	connector.Register("pgx", &Provider{})
	connector.Register("pq", &PQProvider{})
}

// DSN returns cfg.URL, or a postgres:// URL built from the discrete
// fields.
func DSN(cfg connector.Config) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return connector.NewDSNBuilder("postgres").
		Auth(cfg.Username, cfg.Password).
		Host(cfg.Host, cfg.Port).
		Database(cfg.Database).
		Param("sslmode", cfg.SSLMode).
		Params(cfg.Params).
		Build()
}

// PoolConfig parses the DSN of cfg and applies its pool settings.
func PoolConfig(cfg connector.Config) (*pgxpool.Config, error) {
	cfg = cfg.WithDefaults()
	poolCfg, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConns = int32(cfg.Pool.MaxOpen)
	poolCfg.MinConns = int32(cfg.Pool.MaxIdle)
	poolCfg.MaxConnLifetime = cfg.Pool.MaxLifetime
	poolCfg.MaxConnIdleTime = cfg.Pool.MaxIdleTime
	return poolCfg, nil
}

func (p *Provider) Connect(ctx context.Context, cfg connector.Config) (connector.Connection, error) {
	poolCfg, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &connection{
		pool:    pool,
		exec:    database.NewPgxExecutor(pool, connector.ExecutorOptions(cfg)...),
		dialect: dialect.NewPostgres(),
		cfg:     cfg,
	}, nil
}

func (p *Provider) Dialect() compiler.Dialect {
	return dialect.NewPostgres()
}

type connection struct {
	pool    *pgxpool.Pool
	exec    *database.PgxExecutor
	dialect compiler.Dialect
	cfg     connector.Config
}

// Pool returns the underlying pgx pool.
func (c *connection) Pool() *pgxpool.Pool { return c.pool }

func (c *connection) Executor() database.Executor {
	return connector.WithQueryTimeout(c.exec, c.cfg.QueryTimeout)
}

func (c *connection) Dialect() compiler.Dialect {
	return c.dialect
}

func (c *connection) Health(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *connection) Stats() connector.ConnectionStats {
	s := c.pool.Stat()
	return connector.ConnectionStats{
		OpenConnections: int(s.TotalConns()),
		InUse:           int(s.AcquiredConns()),
		Idle:            int(s.IdleConns()),
		Queries:         c.exec.Stats(),
	}
}

func (c *connection) Close() error {
	c.pool.Close()
	return nil
}
