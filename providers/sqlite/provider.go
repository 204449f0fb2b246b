// Package sqlite registers the "sqlite" provider on database/sql with the
// pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"slices"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/Konsultn-Engineering/metal/compiler"
	"github.com/Konsultn-Engineering/metal/connector"
	"github.com/Konsultn-Engineering/metal/dialect"
)

// Memory is the database name of a private in-memory database.
const Memory = ":memory:"

type Provider struct{}

func init() {
	connector.Register("sqlite", &Provider{})
}

// DSN returns cfg.URL, or cfg.Database (default Memory) followed by the
// params in key order. foreign_keys is switched on unless set.
func DSN(cfg connector.Config) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	name := cfg.Database
	if name == "" {
		name = Memory
	}

	pragmas := map[string]string{"foreign_keys": "on"}
	for k, v := range cfg.Params {
		pragmas[k] = v
	}
	keys := make([]string, 0, len(pragmas))
	for k := range pragmas {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	q := make([]string, len(keys))
	for i, k := range keys {
		q[i] = "_pragma=" + url.QueryEscape(k+"("+pragmas[k]+")")
	}
	return name + "?" + strings.Join(q, "&")
}

// Connect opens the database. An in-memory database lives as long as its
// connection, so the pool is pinned to a single connection.
func (p *Provider) Connect(ctx context.Context, cfg connector.Config) (connector.Connection, error) {
	dsn := DSN(cfg)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(dsn, Memory) {
		cfg.Pool.MaxOpen = 1
		cfg.Pool.MaxIdle = 1
		cfg.Pool.MaxLifetime = -1
		cfg.Pool.MaxIdleTime = -1
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	conn, err := connector.NewSQLConnection(db, dialect.NewSQLite(), cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return conn, nil
}

func (p *Provider) Dialect() compiler.Dialect {
	return dialect.NewSQLite()
}
