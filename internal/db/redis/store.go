// Package redis keeps token counters in Redis through rueidis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/hybridrag/internal/db"
)

var (
	_ db.Counters = (*Store)(nil)
	_ db.Pinger   = (*Store)(nil)
)

// Config holds connection parameters.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store is a counter store backed by a rueidis client.
type Store struct {
	client rueidis.Client
}

// NewStore connects to Redis. Client-side caching is off: counters change on every request.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("redis: at least one address is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: connect: %w", err)
	}
	return &Store{client: client}, nil
}

// IncrWithTTL pipelines INCRBY and EXPIRE NX in one round trip.
func (s *Store) IncrWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	secs := max(int64(ttl/time.Second), 1)
	res := s.client.DoMulti(ctx,
		s.client.B().Incrby().Key(key).Increment(delta).Build(),
		s.client.B().Expire().Key(key).Seconds(secs).Nx().Build(),
	)
	val, err := res[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: "INCRBY", Key: key, Err: err}
	}
	if err := res[1].Error(); err != nil {
		return val, &db.Error{Op: "EXPIRE", Key: key, Err: err}
	}
	return val, nil
}

// Counter reads key as an integer.
func (s *Store) Counter(ctx context.Context, key string) (int64, error) {
	val, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).AsInt64()
	switch {
	case rueidis.IsRedisNil(err):
		return 0, db.ErrKeyNotFound
	case err != nil:
		return 0, &db.Error{Op: "GET", Key: key, Err: err}
	}
	return val, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: "PING", Err: err}
	}
	return nil
}

// WaitForReady pings until Redis answers or timeout elapses.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	const interval = 100 * time.Millisecond
	for {
		err := s.Ping(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("redis not ready after %s: %w", timeout, err)
		case <-time.After(interval):
		}
	}
}

// Close shuts down the client.
func (s *Store) Close() { s.client.Close() }
