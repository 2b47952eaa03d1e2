package constants

import "time"

const (
	// DefaultRateLimit is the shared outbound budget against the replay
	// hosting service: 20 requests per hour across the throttled URL
	// prefixes.
	DefaultRateLimit = 20.0 / 3600

	MaxPostRetries = 3
	PostRetryPause = 1 * time.Second
)

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// SyncFetchWorkers bounds concurrent replay fetches during a listing
	// sync. Effective throughput is serialized by the shared rate limiter
	// regardless.
	SyncFetchWorkers = 4

	RecentReplaysLimit = 50
)
