package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/Konsultn-Engineering/metal/compiler"
	"github.com/Konsultn-Engineering/metal/connector"
	"github.com/Konsultn-Engineering/metal/dialect"
)

// PQProvider connects through database/sql and lib/pq. Unlike the pgx
// provider it can reuse prepared statements via StatementCacheSize.
type PQProvider struct{}

func (p *PQProvider) Connect(ctx context.Context, cfg connector.Config) (connector.Connection, error) {
	db, err := sql.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	conn, err := connector.NewSQLConnection(db, dialect.NewPostgres(), cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return conn, nil
}

func (p *PQProvider) Dialect() compiler.Dialect {
	return dialect.NewPostgres()
}
