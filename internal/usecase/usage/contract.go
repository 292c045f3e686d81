package usage

import domusage "github.com/kailas-cloud/hybridrag/internal/domain/usage"

// BudgetReader provides read-only access to token budget state.
type BudgetReader interface {
	Snapshot(period domusage.Period) domusage.Budget
}
