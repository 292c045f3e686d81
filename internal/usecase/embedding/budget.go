package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	"github.com/kailas-cloud/hybridrag/internal/domain/usage"
)

// BudgetAction defines behavior when token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore is the persistence interface for budget counters.
// Keys are period-scoped, so counters roll over without explicit deletes.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// window is a token counter bound to one calendar period.
type window struct {
	period usage.Period
	limit  int64 // 0 = unlimited
	used   int64
	start  time.Time
}

func (w *window) roll(now time.Time) {
	if s := periodStart(w.period, now); s.After(w.start) {
		w.start = s
		w.used = 0
	}
}

func (w *window) exceeded() bool { return w.limit > 0 && w.used >= w.limit }

func (w *window) remaining() int64 {
	if w.limit == 0 {
		return -1
	}
	return max(w.limit-w.used, 0)
}

// BudgetTracker is an in-memory token budget tracker with optional persistence.
// Check never leaves the process; Record updates memory first and then writes
// behind to the store.
type BudgetTracker struct {
	mu       sync.Mutex
	daily    window
	monthly  window
	action   BudgetAction
	provider string
	store    BudgetStore
	now      func() time.Time
	logger   *zap.Logger
}

// NewBudgetTracker creates a budget tracker with the given limits.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	return newBudgetTracker(provider, dailyLimit, monthlyLimit, action, logger, func() time.Time {
		return time.Now().UTC()
	})
}

func newBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger, now func() time.Time,
) *BudgetTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := now()
	return &BudgetTracker{
		daily:    window{period: usage.PeriodDay, limit: dailyLimit, start: periodStart(usage.PeriodDay, t)},
		monthly:  window{period: usage.PeriodMonth, limit: monthlyLimit, start: periodStart(usage.PeriodMonth, t)},
		action:   action,
		provider: provider,
		now:      now,
		logger:   logger,
	}
}

// WithStore attaches a persistence store and loads current counters.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.now()
	for _, w := range []*window{&b.daily, &b.monthly} {
		w.roll(now)
		key := b.key(w.period, now)
		val, err := store.Get(ctx, key)
		if err != nil {
			b.logger.Warn("Failed to load budget from store", zap.String("key", key), zap.Error(err))
			continue
		}
		w.used = val
	}

	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.daily.used),
		zap.Int64("monthly_used", b.monthly.used),
	)
	return b
}

func (b *BudgetTracker) key(p usage.Period, t time.Time) string {
	layout := "2006-01-02"
	name := "daily"
	if p == usage.PeriodMonth {
		layout = "2006-01"
		name = "monthly"
	}
	return fmt.Sprintf("%sbudget:%s:%s:%s", domain.KeyPrefix, b.provider, name, t.Format(layout))
}

// Check verifies the budget allows a new request.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollLocked()
	if !b.daily.exceeded() && !b.monthly.exceeded() {
		return nil
	}

	if b.action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}

	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.daily.used),
		zap.Int64("daily_limit", b.daily.limit),
		zap.Int64("monthly_used", b.monthly.used),
		zap.Int64("monthly_limit", b.monthly.limit),
	)
	return nil
}

// Record registers consumed tokens after a request.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	b.rollLocked()
	b.daily.used += tokens
	b.monthly.used += tokens
	store := b.store
	now := b.now()
	b.mu.Unlock()

	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, p := range []usage.Period{usage.PeriodDay, usage.PeriodMonth} {
		key := b.key(p, now)
		if err := store.IncrBy(ctx, key, tokens); err != nil {
			b.logger.Warn("Failed to persist budget", zap.String("key", key), zap.Error(err))
		}
	}
}

// RemainingDaily returns tokens left in the daily budget (-1 if unlimited).
func (b *BudgetTracker) RemainingDaily() int64 {
	return b.Snapshot(usage.PeriodDay).TokensRemaining()
}

// RemainingMonthly returns tokens left in the monthly budget (-1 if unlimited).
func (b *BudgetTracker) RemainingMonthly() int64 {
	return b.Snapshot(usage.PeriodMonth).TokensRemaining()
}

// Snapshot returns the budget state of one period.
func (b *BudgetTracker) Snapshot(p usage.Period) usage.Budget {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollLocked()
	w := &b.daily
	if p == usage.PeriodMonth {
		w = &b.monthly
	}
	return usage.NewBudget(w.limit, w.used, w.remaining(), periodEnd(p, w.start).UnixMilli())
}

func (b *BudgetTracker) rollLocked() {
	now := b.now()
	b.daily.roll(now)
	b.monthly.roll(now)
}

func periodStart(p usage.Period, t time.Time) time.Time {
	t = t.UTC()
	if p == usage.PeriodMonth {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func periodEnd(p usage.Period, start time.Time) time.Time {
	if p == usage.PeriodMonth {
		return start.AddDate(0, 1, 0)
	}
	return start.AddDate(0, 0, 1)
}
