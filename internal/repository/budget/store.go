// Package budget persists token budget counters so that limits survive restarts
// and are shared between replicas.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/hybridrag/internal/db"
)

// A counter outlives its period by one period.
const (
	DefaultDailyTTL   = 48 * time.Hour
	DefaultMonthlyTTL = 62 * 24 * time.Hour
)

// Store implements embedding.BudgetStore on top of db.Counters.
type Store struct {
	counters db.Counters
	dailyTTL time.Duration
	monthTTL time.Duration
}

// New creates a budget store. Zero TTLs select the defaults.
func New(counters db.Counters, dailyTTL, monthTTL time.Duration) *Store {
	if dailyTTL <= 0 {
		dailyTTL = DefaultDailyTTL
	}
	if monthTTL <= 0 {
		monthTTL = DefaultMonthlyTTL
	}
	return &Store{counters: counters, dailyTTL: dailyTTL, monthTTL: monthTTL}
}

// IncrBy adds val tokens to the period counter key.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if _, err := s.counters.IncrWithTTL(ctx, key, val, s.ttlForKey(key)); err != nil {
		return fmt.Errorf("budget incr: %w", err)
	}
	return nil
}

// Get returns the counter value, 0 if the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	val, err := s.counters.Counter(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("budget get: %w", err)
	}
	return val, nil
}

// Keys look like hybridrag:budget:{provider}:daily:YYYY-MM-DD or ...:monthly:YYYY-MM.
func (s *Store) ttlForKey(key string) time.Duration {
	if strings.Contains(key, ":daily:") {
		return s.dailyTTL
	}
	return s.monthTTL
}
