package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	"github.com/kailas-cloud/hybridrag/internal/domain/usage"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

var testNow = time.Date(2025, time.March, 14, 15, 9, 26, 0, time.UTC)

func newTestTracker(daily, monthly int64, action BudgetAction) (*BudgetTracker, *fakeClock) {
	clk := &fakeClock{t: testNow}
	return newBudgetTracker("prov", daily, monthly, action, zap.NewNop(), clk.Now), clk
}

func TestBudgetTracker_RejectWhenExceeded(t *testing.T) {
	bt := NewBudgetTracker("test", 100, 0, BudgetActionReject, zap.NewNop())

	bt.Record(100)

	err := bt.Check(context.Background())
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected domain.ErrEmbeddingQuotaExceeded, got %v", err)
	}
}

func TestBudgetTracker_WarnWhenExceeded(t *testing.T) {
	bt := NewBudgetTracker("test", 100, 0, BudgetActionWarn, zap.NewNop())

	bt.Record(200)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected nil error for warn action, got %v", err)
	}
}

func TestBudgetTracker_MonthlyReject(t *testing.T) {
	bt := NewBudgetTracker("test", 0, 500, BudgetActionReject, zap.NewNop())

	bt.Record(500)

	err := bt.Check(context.Background())
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected domain.ErrEmbeddingQuotaExceeded for monthly limit, got %v", err)
	}
}

func TestBudgetTracker_UnlimitedWhenZero(t *testing.T) {
	bt := NewBudgetTracker("test", 0, 0, BudgetActionReject, zap.NewNop())

	bt.Record(999999999)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected nil error for unlimited budget, got %v", err)
	}
	if bt.RemainingDaily() != -1 || bt.RemainingMonthly() != -1 {
		t.Errorf("expected -1 remaining for unlimited, got %d/%d", bt.RemainingDaily(), bt.RemainingMonthly())
	}
}

func TestBudgetTracker_Remaining(t *testing.T) {
	bt := NewBudgetTracker("test", 1000, 10000, BudgetActionWarn, zap.NewNop())

	bt.Record(300)

	if daily := bt.RemainingDaily(); daily != 700 {
		t.Errorf("expected daily remaining 700, got %d", daily)
	}
	if monthly := bt.RemainingMonthly(); monthly != 9700 {
		t.Errorf("expected monthly remaining 9700, got %d", monthly)
	}

	bt.Record(5000)
	if daily := bt.RemainingDaily(); daily != 0 {
		t.Errorf("expected daily remaining clamped to 0, got %d", daily)
	}
}

func TestBudgetTracker_Snapshot(t *testing.T) {
	bt, _ := newTestTracker(1000, 10000, BudgetActionReject)
	bt.Record(250)

	day := bt.Snapshot(usage.PeriodDay)
	if day.TokensLimit() != 1000 || day.TokensUsed() != 250 || day.TokensRemaining() != 750 {
		t.Errorf("unexpected daily snapshot: %+v", day)
	}
	wantDayEnd := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC).UnixMilli()
	if day.ResetsAt() != wantDayEnd {
		t.Errorf("daily resets at %d, expected %d", day.ResetsAt(), wantDayEnd)
	}

	month := bt.Snapshot(usage.PeriodMonth)
	wantMonthEnd := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	if month.ResetsAt() != wantMonthEnd {
		t.Errorf("monthly resets at %d, expected %d", month.ResetsAt(), wantMonthEnd)
	}
	if month.IsExhausted() {
		t.Error("monthly budget should not be exhausted")
	}
}

func TestBudgetTracker_RollsOver(t *testing.T) {
	bt, clk := newTestTracker(100, 1000, BudgetActionReject)
	bt.Record(100)

	if err := bt.Check(context.Background()); !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected quota error before midnight, got %v", err)
	}

	clk.Set(testNow.Add(24 * time.Hour))
	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected daily reset after midnight, got %v", err)
	}
	if used := bt.Snapshot(usage.PeriodMonth).TokensUsed(); used != 100 {
		t.Errorf("monthly counter must survive a day rollover, got %d", used)
	}

	clk.Set(time.Date(2025, time.April, 1, 0, 0, 1, 0, time.UTC))
	if used := bt.Snapshot(usage.PeriodMonth).TokensUsed(); used != 0 {
		t.Errorf("expected monthly reset, got %d", used)
	}
}

func TestBudgetTracker_BelowLimitAllows(t *testing.T) {
	bt := NewBudgetTracker("test", 1000, 10000, BudgetActionReject, zap.NewNop())

	bt.Record(500)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected nil error when below limit, got %v", err)
	}
}

// --- Mock BudgetStore ---

type mockBudgetStore struct {
	mu     sync.Mutex
	data   map[string]int64
	getErr error
	setErr error
}

func newMockBudgetStore() *mockBudgetStore {
	return &mockBudgetStore{data: make(map[string]int64)}
}

func (m *mockBudgetStore) IncrBy(_ context.Context, key string, val int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] += val
	return nil
}

func (m *mockBudgetStore) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return 0, m.getErr
	}
	return m.data[key], nil
}

func (m *mockBudgetStore) value(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

// --- Persistence tests ---

func TestBudgetTracker_Keys(t *testing.T) {
	bt, _ := newTestTracker(0, 0, BudgetActionWarn)

	if got := bt.key(usage.PeriodDay, testNow); got != "hybridrag:budget:prov:daily:2025-03-14" {
		t.Errorf("daily key = %q", got)
	}
	if got := bt.key(usage.PeriodMonth, testNow); got != "hybridrag:budget:prov:monthly:2025-03" {
		t.Errorf("monthly key = %q", got)
	}
}

func TestBudgetTracker_WithStore_LoadsValues(t *testing.T) {
	store := newMockBudgetStore()
	store.data["hybridrag:budget:prov:daily:2025-03-14"] = 300
	store.data["hybridrag:budget:prov:monthly:2025-03"] = 5000

	bt, _ := newTestTracker(1000, 10000, BudgetActionReject)
	bt.WithStore(context.Background(), store)

	if used := bt.Snapshot(usage.PeriodDay).TokensUsed(); used != 300 {
		t.Errorf("expected daily_used=300, got %d", used)
	}
	if used := bt.Snapshot(usage.PeriodMonth).TokensUsed(); used != 5000 {
		t.Errorf("expected monthly_used=5000, got %d", used)
	}
}

func TestBudgetTracker_Record_PersistsToStore(t *testing.T) {
	store := newMockBudgetStore()
	bt, _ := newTestTracker(10000, 100000, BudgetActionWarn)
	bt.WithStore(context.Background(), store)

	bt.Record(100)
	bt.Record(200)
	bt.Record(300)

	if used := bt.Snapshot(usage.PeriodDay).TokensUsed(); used != 600 {
		t.Errorf("expected daily_used=600, got %d", used)
	}
	if v := store.value("hybridrag:budget:prov:daily:2025-03-14"); v != 600 {
		t.Errorf("expected store daily=600, got %d", v)
	}
	if v := store.value("hybridrag:budget:prov:monthly:2025-03"); v != 600 {
		t.Errorf("expected store monthly=600, got %d", v)
	}
}

func TestBudgetTracker_WithStore_LoadError(t *testing.T) {
	store := newMockBudgetStore()
	store.getErr = errors.New("connection refused")

	bt, _ := newTestTracker(1000, 10000, BudgetActionReject)
	bt.WithStore(context.Background(), store)

	if used := bt.Snapshot(usage.PeriodDay).TokensUsed(); used != 0 {
		t.Errorf("expected daily_used=0 on load error, got %d", used)
	}
}

func TestBudgetTracker_Record_StoreWriteError(t *testing.T) {
	store := newMockBudgetStore()
	bt, _ := newTestTracker(1000, 10000, BudgetActionWarn)
	bt.WithStore(context.Background(), store)

	store.mu.Lock()
	store.setErr = errors.New("write timeout")
	store.mu.Unlock()

	bt.Record(50)

	if used := bt.Snapshot(usage.PeriodDay).TokensUsed(); used != 50 {
		t.Errorf("expected daily_used=50 even with store error, got %d", used)
	}
}

func TestBudgetTracker_ConcurrentRecord(t *testing.T) {
	bt := NewBudgetTracker("test", 0, 0, BudgetActionWarn, zap.NewNop())

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bt.Record(2)
		}()
	}
	wg.Wait()

	if used := bt.Snapshot(usage.PeriodDay).TokensUsed(); used != 100 {
		t.Errorf("expected 100 tokens, got %d", used)
	}
}
