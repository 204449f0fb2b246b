// Package mysql registers the "mysql" and "tidb" providers on
// database/sql with go-sql-driver/mysql. TiDB speaks the MySQL protocol
// and differs only in its dialect.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/Konsultn-Engineering/metal/compiler"
	"github.com/Konsultn-Engineering/metal/connector"
	"github.com/Konsultn-Engineering/metal/dialect"
)

type Provider struct {
	dialect func() compiler.Dialect
}

func init() {
	connector.Register("mysql", &Provider{dialect: func() compiler.Dialect { return dialect.NewMySQL() }})
	connector.Register("tidb", &Provider{dialect: func() compiler.Dialect { return dialect.NewTiDB() }})
}

// DSN returns cfg.URL, or a driver DSN built from the discrete fields.
// Times are parsed into time.Time. Procedure calls with OUT parameters
// compile to a batch of statements, so multi statements are enabled and
// parameters are interpolated client side.
func DSN(cfg connector.Config) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.MultiStatements = true
	mc.InterpolateParams = true
	if cfg.ConnectTimeout > 0 {
		mc.Timeout = cfg.ConnectTimeout
	}
	if cfg.SSLMode != "" {
		mc.TLSConfig = cfg.SSLMode
	}
	if len(cfg.Params) > 0 {
		mc.Params = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			mc.Params[k] = v
		}
	}
	return mc.FormatDSN()
}

// Connect opens a database/sql pool. The statement cache is disabled:
// MySQL cannot prepare a batch, and interpolated parameters make it
// unnecessary.
func (p *Provider) Connect(ctx context.Context, cfg connector.Config) (connector.Connection, error) {
	if cfg.StatementCacheSize > 0 {
		slog.WarnContext(ctx, "statement cache is not used with mysql", "driver", cfg.Driver, "size", cfg.StatementCacheSize)
		cfg.StatementCacheSize = 0
	}
	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	conn, err := connector.NewSQLConnection(db, p.Dialect(), cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return conn, nil
}

func (p *Provider) Dialect() compiler.Dialect {
	return p.dialect()
}
