// Package connector opens database connections through registered
// providers. A Connection pairs an executor with the dialect its statements
// must be compiled for, so a caller holding one has everything needed to
// run builder output.
package connector

import (
	"context"

	"github.com/Konsultn-Engineering/metal/compiler"
	"github.com/Konsultn-Engineering/metal/database"
)

type Connection interface {
	Executor() database.Executor
	Dialect() compiler.Dialect
	Health(ctx context.Context) error
	Stats() ConnectionStats
	Close() error
}

// Connector opens connections for one provider and configuration.
type Connector interface {
	Connect(ctx context.Context) (Connection, error)
	ConnectWithRetry(ctx context.Context, opts RetryConfig) (Connection, error)
}

// Compiler returns a compiler for the dialect of conn.
func Compiler(conn Connection, opts ...compiler.Option) *compiler.Compiler {
	return compiler.New(conn.Dialect(), opts...)
}
