package retrieval

import (
	"github.com/kailas-cloud/hybridrag/internal/domain/resolution"
	"github.com/kailas-cloud/hybridrag/internal/domain/result"
)

// Strategy names the component that produced an outcome.
type Strategy string

// Strategies.
const (
	StrategyRule      Strategy = "rule"
	StrategyEmbedding Strategy = "embedding"
)

// Stage is a step of the retrieval pipeline, used as a log and metric label.
type Stage string

// Pipeline stages.
const (
	StageRuleDispatch  Stage = "rule_dispatch"
	StageEmbeddingRank Stage = "embedding_rank"
	StageResolved      Stage = "resolved"
	StageFailed        Stage = "failed"
)

// Kind is the shape of an outcome.
type Kind string

// Outcome kinds.
const (
	KindDocuments    Kind = "documents"
	KindFunctionCall Kind = "function_call"
)

// Outcome is the result of one retrieval: ranked documents or a function call.
type Outcome struct {
	kind     Kind
	strategy Strategy
	rule     string
	matches  []result.Result
	call     resolution.Call
}

func documentsOutcome(strategy Strategy, rule string, matches []result.Result) Outcome {
	return Outcome{kind: KindDocuments, strategy: strategy, rule: rule, matches: matches}
}

func callOutcome(rule string, call resolution.Call) Outcome {
	return Outcome{kind: KindFunctionCall, strategy: StrategyRule, rule: rule, call: call}
}

// Kind returns the outcome shape.
func (o Outcome) Kind() Kind { return o.kind }

// Strategy returns which component resolved the query.
func (o Outcome) Strategy() Strategy { return o.strategy }

// Rule returns the matched rule name, empty for embedding outcomes.
func (o Outcome) Rule() string { return o.rule }

// Matches returns ranked documents for KindDocuments.
func (o Outcome) Matches() []result.Result { return o.matches }

// Call returns the function call for KindFunctionCall.
func (o Outcome) Call() resolution.Call { return o.call }
