package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Konsultn-Engineering/metal/utils"
)

// Preparer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// StatementCache keeps prepared statements keyed by their SQL text.
// GetOrPrepare leases a statement until its release func runs. Evicted
// statements are closed once their last lease is released.
type StatementCache struct {
	cache *lru.Cache[uint64, *leasedStmt]
	mu    sync.Mutex
}

type leasedStmt struct {
	stmt    *sql.Stmt
	refs    int
	evicted bool
}

// closeIdle closes the statement if it is evicted and unleased. The cache
// mutex must be held.
func (l *leasedStmt) closeIdle() {
	if l.evicted && l.refs == 0 {
		_ = l.stmt.Close()
	}
}

func NewStatementCache(size int) (*StatementCache, error) {
	c, err := lru.NewWithEvict(size, func(_ uint64, l *leasedStmt) {
		l.evicted = true
		l.closeIdle()
	})
	if err != nil {
		return nil, fmt.Errorf("create statement cache: %w", err)
	}
	return &StatementCache{cache: c}, nil
}

func (s *StatementCache) Contains(query string) bool {
	return s.cache.Contains(utils.U64(query))
}

// GetOrPrepare returns the cached statement for query, preparing it on db
// on a miss. The caller must call release once it is done with the
// statement, including any rows it returned.
func (s *StatementCache) GetOrPrepare(ctx context.Context, db Preparer, query string) (stmt *sql.Stmt, release func(), err error) {
	key := utils.U64(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.cache.Get(key)
	if !ok {
		prepared, perr := db.PrepareContext(ctx, query)
		if perr != nil {
			return nil, nil, perr
		}
		l = &leasedStmt{stmt: prepared}
		s.cache.Add(key, l)
	}
	l.refs++
	return l.stmt, s.releaser(l), nil
}

func (s *StatementCache) releaser(l *leasedStmt) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			l.refs--
			l.closeIdle()
		})
	}
}

func (s *StatementCache) Len() int { return s.cache.Len() }

// Close evicts every cached statement. Leased statements are closed when
// released.
func (s *StatementCache) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
	return nil
}
