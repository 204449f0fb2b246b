package connector

import (
	"errors"
	"fmt"
	"time"
)

// Pool defaults applied by WithDefaults.
const (
	DefaultMaxOpen     = 10
	DefaultMaxIdle     = 5
	DefaultMaxLifetime = time.Hour
	DefaultMaxIdleTime = 30 * time.Minute
)

var ErrInvalidConfig = errors.New("connector: invalid config")

// Config represents database connection configuration.
type Config struct {
	// Driver names the registered provider: postgres, pq, mysql, tidb or
	// sqlite.
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`
	// URL is used as is when set; the discrete fields below are ignored.
	URL            string            `json:"url" yaml:"url" mapstructure:"url"`
	Host           string            `json:"host" yaml:"host" mapstructure:"host"`
	Port           int               `json:"port" yaml:"port" mapstructure:"port"`
	Database       string            `json:"database" yaml:"database" mapstructure:"database"`
	Username       string            `json:"username" yaml:"username" mapstructure:"username"`
	Password       string            `json:"password" yaml:"password" mapstructure:"password"`
	SSLMode        string            `json:"ssl_mode" yaml:"ssl_mode" mapstructure:"ssl_mode"`
	Params         map[string]string `json:"params" yaml:"params" mapstructure:"params"`
	Pool           PoolConfig        `json:"pool" yaml:"pool" mapstructure:"pool"`
	ConnectTimeout time.Duration     `json:"connect_timeout" yaml:"connect_timeout" mapstructure:"connect_timeout"`
	// QueryTimeout bounds every statement run through the connection's
	// executor. Zero means no bound.
	QueryTimeout time.Duration `json:"query_timeout" yaml:"query_timeout" mapstructure:"query_timeout"`
	// SlowQueryThreshold overrides database.DefaultSlowThreshold. A negative
	// value disables slow query logging.
	SlowQueryThreshold time.Duration `json:"slow_query_threshold" yaml:"slow_query_threshold" mapstructure:"slow_query_threshold"`
	// StatementCacheSize enables prepared statement reuse on database/sql
	// providers.
	StatementCacheSize int          `json:"statement_cache_size" yaml:"statement_cache_size" mapstructure:"statement_cache_size"`
	Retry              *RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty" mapstructure:"retry"`
}

// PoolConfig defines connection pool settings.
type PoolConfig struct {
	MaxOpen     int           `json:"max_open" yaml:"max_open" mapstructure:"max_open"`
	MaxIdle     int           `json:"max_idle" yaml:"max_idle" mapstructure:"max_idle"`
	MaxLifetime time.Duration `json:"max_lifetime" yaml:"max_lifetime" mapstructure:"max_lifetime"`
	MaxIdleTime time.Duration `json:"max_idle_time" yaml:"max_idle_time" mapstructure:"max_idle_time"`
}

// RetryConfig defines connection retry behavior.
type RetryConfig struct {
	MaxRetries int           `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
	BaseDelay  time.Duration `json:"base_delay" yaml:"base_delay" mapstructure:"base_delay"`
	MaxDelay   time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`
	Backoff    float64       `json:"backoff" yaml:"backoff" mapstructure:"backoff"`
}

// ClusterConfig defines primary-replica database cluster configuration.
type ClusterConfig struct {
	Primary      Config   `json:"primary" yaml:"primary" mapstructure:"primary"`
	Replicas     []Config `json:"replicas" yaml:"replicas" mapstructure:"replicas"`
	ReadStrategy string   `json:"read_strategy" yaml:"read_strategy" mapstructure:"read_strategy"`
}

// Validate reports the first problem with c. Host and port are only
// required for network drivers without a URL.
func (c Config) Validate() error {
	if c.Driver == "" {
		return fmt.Errorf("%w: driver is required", ErrInvalidConfig)
	}
	if c.URL == "" && c.Driver != "sqlite" {
		if c.Host == "" {
			return fmt.Errorf("%w: host is required", ErrInvalidConfig)
		}
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("%w: invalid port: %d", ErrInvalidConfig, c.Port)
		}
	}
	if c.Pool.MaxOpen < 0 || c.Pool.MaxIdle < 0 {
		return fmt.Errorf("%w: pool sizes must not be negative", ErrInvalidConfig)
	}
	if c.Pool.MaxOpen > 0 && c.Pool.MaxIdle > c.Pool.MaxOpen {
		return fmt.Errorf("%w: max_idle %d exceeds max_open %d", ErrInvalidConfig, c.Pool.MaxIdle, c.Pool.MaxOpen)
	}
	if r := c.Retry; r != nil && (r.MaxRetries < 0 || r.Backoff < 0) {
		return fmt.Errorf("%w: retry settings must not be negative", ErrInvalidConfig)
	}
	return nil
}

// WithDefaults returns c with unset pool settings filled in.
func (c Config) WithDefaults() Config {
	if c.Pool.MaxOpen <= 0 {
		c.Pool.MaxOpen = DefaultMaxOpen
	}
	if c.Pool.MaxIdle <= 0 {
		c.Pool.MaxIdle = min(DefaultMaxIdle, c.Pool.MaxOpen)
	}
	if c.Pool.MaxLifetime == 0 {
		c.Pool.MaxLifetime = DefaultMaxLifetime
	}
	if c.Pool.MaxIdleTime == 0 {
		c.Pool.MaxIdleTime = DefaultMaxIdleTime
	}
	return c
}

// ValidateCluster validates cluster configuration.
func (cc *ClusterConfig) ValidateCluster() error {
	if err := cc.Primary.Validate(); err != nil {
		return fmt.Errorf("primary: %w", err)
	}
	for i, r := range cc.Replicas {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("replica %d: %w", i, err)
		}
	}

	validStrategies := map[string]bool{
		"round_robin": true,
		"random":      true,
		"primary":     true,
	}
	if cc.ReadStrategy != "" && !validStrategies[cc.ReadStrategy] {
		return fmt.Errorf("%w: invalid read strategy: %s", ErrInvalidConfig, cc.ReadStrategy)
	}
	return nil
}
