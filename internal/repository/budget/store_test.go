package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/hybridrag/internal/db"
)

type fakeCounters struct {
	values map[string]int64
	ttls   map[string]time.Duration
	err    error
}

func newFakeCounters() *fakeCounters {
	return &fakeCounters{values: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCounters) IncrWithTTL(_ context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.values[key] += delta
	if _, ok := f.ttls[key]; !ok {
		f.ttls[key] = ttl
	}
	return f.values[key], nil
}

func (f *fakeCounters) Counter(_ context.Context, key string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	v, ok := f.values[key]
	if !ok {
		return 0, db.ErrKeyNotFound
	}
	return v, nil
}

func TestStore_IncrBy_TTLByPeriod(t *testing.T) {
	c := newFakeCounters()
	s := New(c, time.Hour, 2*time.Hour)
	ctx := context.Background()

	daily := "hybridrag:budget:openai:daily:2025-03-14"
	monthly := "hybridrag:budget:openai:monthly:2025-03"
	for _, key := range []string{daily, monthly, daily} {
		if err := s.IncrBy(ctx, key, 10); err != nil {
			t.Fatalf("IncrBy(%s): %v", key, err)
		}
	}

	if c.ttls[daily] != time.Hour {
		t.Errorf("daily ttl = %s", c.ttls[daily])
	}
	if c.ttls[monthly] != 2*time.Hour {
		t.Errorf("monthly ttl = %s", c.ttls[monthly])
	}
	if v, _ := s.Get(ctx, daily); v != 20 {
		t.Errorf("daily counter = %d, want 20", v)
	}
}

func TestStore_DefaultTTLs(t *testing.T) {
	s := New(newFakeCounters(), 0, 0)
	if s.dailyTTL != DefaultDailyTTL || s.monthTTL != DefaultMonthlyTTL {
		t.Errorf("unexpected TTLs: %s / %s", s.dailyTTL, s.monthTTL)
	}
}

func TestStore_Get_MissingIsZero(t *testing.T) {
	v, err := New(newFakeCounters(), 0, 0).Get(context.Background(), "missing")
	if err != nil || v != 0 {
		t.Fatalf("Get = %d, %v", v, err)
	}
}

func TestStore_Errors(t *testing.T) {
	c := newFakeCounters()
	c.err = errors.New("connection refused")
	s := New(c, 0, 0)

	if err := s.IncrBy(context.Background(), "k", 1); err == nil {
		t.Error("expected incr error")
	}
	if _, err := s.Get(context.Background(), "k"); err == nil {
		t.Error("expected get error")
	}
}
