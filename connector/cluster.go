package connector

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/Konsultn-Engineering/metal/compiler"
	"github.com/Konsultn-Engineering/metal/database"
)

// Cluster routes reads to replicas and writes to the primary. As a
// Connection it behaves like its primary.
type Cluster struct {
	strategy string
	primary  Connection
	replicas []Connection
	readIdx  atomic.Uint64
}

var _ Connection = (*Cluster)(nil)

// OpenCluster connects the primary and every replica. On failure the
// connections opened so far are closed.
func OpenCluster(ctx context.Context, cfg ClusterConfig) (*Cluster, error) {
	if err := cfg.ValidateCluster(); err != nil {
		return nil, err
	}
	primary, err := Open(ctx, cfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to primary: %w", err)
	}

	replicas := make([]Connection, 0, len(cfg.Replicas))
	for i, replicaCfg := range cfg.Replicas {
		replica, err := Open(ctx, replicaCfg)
		if err != nil {
			_ = primary.Close()
			for _, r := range replicas {
				_ = r.Close()
			}
			return nil, fmt.Errorf("failed to connect to replica %d: %w", i, err)
		}
		replicas = append(replicas, replica)
	}
	return NewCluster(cfg.ReadStrategy, primary, replicas...), nil
}

// NewCluster groups already open connections.
func NewCluster(readStrategy string, primary Connection, replicas ...Connection) *Cluster {
	return &Cluster{strategy: readStrategy, primary: primary, replicas: replicas}
}

func (c *Cluster) Primary() Connection { return c.primary }

func (c *Cluster) Replicas() []Connection {
	return append([]Connection(nil), c.replicas...)
}

// Read returns a connection for read operations based on the configured strategy.
func (c *Cluster) Read() Connection {
	if len(c.replicas) == 0 {
		return c.primary
	}
	switch c.strategy {
	case "random":
		return c.replicas[rand.IntN(len(c.replicas))]
	case "round_robin":
		idx := c.readIdx.Add(1) - 1
		return c.replicas[idx%uint64(len(c.replicas))]
	default:
		return c.primary
	}
}

// Write returns the primary.
func (c *Cluster) Write() Connection { return c.primary }

func (c *Cluster) Executor() database.Executor { return c.primary.Executor() }

func (c *Cluster) Dialect() compiler.Dialect { return c.primary.Dialect() }

// Health checks the health of all connections in the cluster.
func (c *Cluster) Health(ctx context.Context) error {
	if err := c.primary.Health(ctx); err != nil {
		return fmt.Errorf("primary health check failed: %w", err)
	}
	for i, replica := range c.replicas {
		if err := replica.Health(ctx); err != nil {
			return fmt.Errorf("replica %d health check failed: %w", i, err)
		}
	}
	return nil
}

// Stats returns aggregated statistics from all connections.
func (c *Cluster) Stats() ConnectionStats {
	stats := c.primary.Stats()
	for _, replica := range c.replicas {
		stats = stats.add(replica.Stats())
	}
	return stats
}

// Close closes all connections in the cluster.
func (c *Cluster) Close() error {
	errs := []error{c.primary.Close()}
	for _, replica := range c.replicas {
		errs = append(errs, replica.Close())
	}
	return errors.Join(errs...)
}
