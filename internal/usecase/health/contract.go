package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker checks that the search index is ready to serve queries.
type IndexChecker interface {
	HealthCheck(ctx context.Context) error
}
