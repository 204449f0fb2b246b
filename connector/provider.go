package connector

import (
	"context"

	"github.com/Konsultn-Engineering/metal/compiler"
)

// Provider opens connections for one driver. Providers register themselves
// from their package init.
type Provider interface {
	Connect(ctx context.Context, config Config) (Connection, error)
	Dialect() compiler.Dialect
}
