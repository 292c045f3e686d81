package usage

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// IsValid checks if the period is supported.
func (p Period) IsValid() bool { return p == PeriodDay || p == PeriodMonth }

// Budget is a token budget snapshot. Limit 0 means unlimited.
type Budget struct {
	tokensLimit     int64
	tokensUsed      int64
	tokensRemaining int64
	resetsAt        int64 // unix millis, converted to RFC 3339 at transport layer
}

// NewBudget creates a Budget snapshot.
func NewBudget(limit, used, remaining, resetsAt int64) Budget {
	return Budget{tokensLimit: limit, tokensUsed: used, tokensRemaining: remaining, resetsAt: resetsAt}
}

// TokensLimit returns the token cap (0 = unlimited).
func (b Budget) TokensLimit() int64 { return b.tokensLimit }

// TokensUsed returns tokens consumed in the period.
func (b Budget) TokensUsed() int64 { return b.tokensUsed }

// TokensRemaining returns tokens left (-1 = unlimited).
func (b Budget) TokensRemaining() int64 { return b.tokensRemaining }

// IsExhausted reports whether a limited budget is spent.
func (b Budget) IsExhausted() bool { return b.tokensLimit > 0 && b.tokensRemaining <= 0 }

// ResetsAt returns the reset timestamp (unix millis).
func (b Budget) ResetsAt() int64 { return b.resetsAt }

// Report is an embedding usage report for a time period.
type Report struct {
	period      Period
	periodStart int64
	periodEnd   int64
	provider    string
	budget      Budget
}

// NewReport creates a usage report.
func NewReport(period Period, start, end int64, provider string, b Budget) Report {
	return Report{period: period, periodStart: start, periodEnd: end, provider: provider, budget: b}
}

// Period returns the aggregation granularity.
func (r Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis).
func (r Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis).
func (r Report) PeriodEnd() int64 { return r.periodEnd }

// Provider returns the embedding provider name.
func (r Report) Provider() string { return r.provider }

// Budget returns the budget status.
func (r Report) Budget() Budget { return r.budget }
