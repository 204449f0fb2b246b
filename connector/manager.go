package connector

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

type standardConnector struct {
	provider Provider
	config   Config
}

var globalManager = &Manager{
	providers: make(map[string]Provider),
}

// Manager maps driver names to providers.
type Manager struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// Register makes provider available under name, replacing any earlier
// registration.
func Register(name string, provider Provider) {
	globalManager.mu.Lock()
	defer globalManager.mu.Unlock()
	globalManager.providers[name] = provider
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	globalManager.mu.RLock()
	defer globalManager.mu.RUnlock()
	names := make([]string, 0, len(globalManager.providers))
	for name := range globalManager.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New returns a connector for the provider registered as name.
func New(name string, config Config) (Connector, error) {
	globalManager.mu.RLock()
	provider, ok := globalManager.providers[name]
	globalManager.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("provider %s not registered", name)
	}
	return &standardConnector{provider: provider, config: config}, nil
}

// Open validates config and connects through config.Driver, retrying when
// config.Retry is set.
func Open(ctx context.Context, config Config) (Connection, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c, err := New(config.Driver, config)
	if err != nil {
		return nil, err
	}
	if config.Retry != nil {
		return c.ConnectWithRetry(ctx, *config.Retry)
	}
	return c.Connect(ctx)
}

func (c *standardConnector) Connect(ctx context.Context) (Connection, error) {
	if c.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}
	conn, err := c.provider.Connect(ctx, c.config)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", c.config.Driver, err)
	}
	return conn, nil
}

func (c *standardConnector) ConnectWithRetry(ctx context.Context, opts RetryConfig) (Connection, error) {
	conn, err := retryConnect(ctx, opts, c.Connect)
	if err != nil {
		return nil, fmt.Errorf("failed to connect after %d retries: %w", opts.MaxRetries, err)
	}
	return conn, nil
}
