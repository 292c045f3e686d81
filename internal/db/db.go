// Package db defines the storage surface used for persisted token counters.
package db

import (
	"context"
	"time"
)

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Counters stores integer counters that expire on their own.
type Counters interface {
	// IncrWithTTL adds delta to key and returns the new value. The TTL is set
	// only when the key has none, so a counter expires relative to its first write.
	IncrWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	// Counter returns the value of key, or ErrKeyNotFound.
	Counter(ctx context.Context, key string) (int64, error)
}
