package connector

import "github.com/Konsultn-Engineering/metal/database"

// ConnectionStats represents database connection pool statistics.
type ConnectionStats struct {
	OpenConnections int
	InUse           int
	Idle            int
	Queries         database.StatsSnapshot
}

func (s ConnectionStats) add(o ConnectionStats) ConnectionStats {
	s.OpenConnections += o.OpenConnections
	s.InUse += o.InUse
	s.Idle += o.Idle
	s.Queries.Queries += o.Queries.Queries
	s.Queries.Execs += o.Queries.Execs
	s.Queries.Duration += o.Queries.Duration
	s.Queries.Slow += o.Queries.Slow
	s.Queries.Errors += o.Queries.Errors
	return s
}
