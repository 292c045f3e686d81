package usage

import (
	"context"
	"time"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	domusage "github.com/kailas-cloud/hybridrag/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	br       BudgetReader
	provider string
	now      func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader, provider string) *Service {
	return &Service{br: br, provider: provider, now: time.Now}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period domusage.Period) (domusage.Report, error) {
	if !period.IsValid() {
		return domusage.Report{}, domain.InvalidInputf("unsupported period %q (use day or month)", period)
	}

	now := s.now().UTC()
	var start, end time.Time
	switch period {
	case domusage.PeriodMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	default:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1)
	}

	b := domusage.NewBudget(0, 0, -1, end.UnixMilli())
	if s.br != nil {
		b = s.br.Snapshot(period)
	}

	return domusage.NewReport(period, start.UnixMilli(), end.UnixMilli(), s.provider, b), nil
}
