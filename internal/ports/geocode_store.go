package ports

import (
	"context"
	"route-planner-service/internal/domain"
	"time"
)

// Port: process-wide cache of geocoding outcomes, positive and negative.
// Implementations must be safe for concurrent use.
type GeocodeStore interface {
	// Return the entry for key, or ok=false when absent or expired.
	Get(ctx context.Context, key string) (entry domain.CacheEntry, ok bool, err error)
	// Store entry under key, evicting as the implementation's policy requires.
	Put(ctx context.Context, key string, entry domain.CacheEntry) error
}

// Port: fixed-window request counters keyed by client.
type RateLimitStore interface {
	// Register one request for key at now and return the updated record.
	// A window older than window is reset before counting.
	// Concurrent hits on the same key must not lose updates.
	Hit(ctx context.Context, key string, now time.Time, window time.Duration) (domain.RateRecord, error)
}
