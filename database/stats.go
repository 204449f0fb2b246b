package database

import (
	"fmt"
	"sync/atomic"
	"time"
)

// QueryStats counts executed statements. It is safe for concurrent use.
type QueryStats struct {
	queries  atomic.Int64
	execs    atomic.Int64
	duration atomic.Int64
	slow     atomic.Int64
	errors   atomic.Int64
}

func (s *QueryStats) record(exec bool, elapsed, slowThreshold time.Duration, err error) {
	if exec {
		s.execs.Add(1)
	} else {
		s.queries.Add(1)
	}
	s.duration.Add(int64(elapsed))
	if err != nil {
		s.errors.Add(1)
	}
	if slowThreshold > 0 && elapsed > slowThreshold {
		s.slow.Add(1)
	}
}

// Snapshot returns the current counters.
func (s *QueryStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Queries:  s.queries.Load(),
		Execs:    s.execs.Load(),
		Duration: time.Duration(s.duration.Load()),
		Slow:     s.slow.Load(),
		Errors:   s.errors.Load(),
	}
}

func (s *QueryStats) Reset() {
	s.queries.Store(0)
	s.execs.Store(0)
	s.duration.Store(0)
	s.slow.Store(0)
	s.errors.Store(0)
}

type StatsSnapshot struct {
	Queries  int64
	Execs    int64
	Duration time.Duration
	Slow     int64
	Errors   int64
}

// Average returns the mean statement duration.
func (s StatsSnapshot) Average() time.Duration {
	n := s.Queries + s.Execs
	if n == 0 {
		return 0
	}
	return s.Duration / time.Duration(n)
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf("queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.Queries, s.Execs, s.Duration, s.Average(), s.Slow, s.Errors)
}
