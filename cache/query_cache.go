// Package cache holds the LRU caches used around statement compilation and
// execution.
package cache

import (
	"fmt"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// CompiledQuery is a rendered statement and its bound parameters.
type CompiledQuery struct {
	SQL    string
	Params []any
}

func (q CompiledQuery) clone() CompiledQuery {
	if q.Params == nil {
		return q
	}
	q.Params = append([]any(nil), q.Params...)
	return q
}

// QueryCache maps statement fingerprints to compiled output. It is safe for
// concurrent use; concurrent misses on the same key compile once.
type QueryCache struct {
	cache *lru.Cache[uint64, CompiledQuery]
	group singleflight.Group
}

func NewQueryCache(size int) (*QueryCache, error) {
	c, err := lru.New[uint64, CompiledQuery](size)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}
	return &QueryCache{cache: c}, nil
}

// Get returns a copy of the cached entry.
func (c *QueryCache) Get(key uint64) (CompiledQuery, bool) {
	q, ok := c.cache.Get(key)
	if !ok {
		return CompiledQuery{}, false
	}
	return q.clone(), true
}

func (c *QueryCache) Set(key uint64, q CompiledQuery) {
	c.cache.Add(key, q.clone())
}

// GetOrCompile returns the cached entry for key, calling compile on a miss.
// The result is stored only when compile reports it as reusable. Errors are
// not cached.
func (c *QueryCache) GetOrCompile(key uint64, compile func() (CompiledQuery, bool, error)) (CompiledQuery, error) {
	if q, ok := c.Get(key); ok {
		return q, nil
	}
	v, err, _ := c.group.Do(strconv.FormatUint(key, 16), func() (any, error) {
		if q, ok := c.cache.Get(key); ok {
			return q, nil
		}
		q, reusable, err := compile()
		if err != nil {
			return nil, err
		}
		if reusable {
			c.cache.Add(key, q.clone())
		}
		return q, nil
	})
	if err != nil {
		return CompiledQuery{}, err
	}
	return v.(CompiledQuery).clone(), nil
}

func (c *QueryCache) Len() int { return c.cache.Len() }

func (c *QueryCache) Purge() { c.cache.Purge() }
