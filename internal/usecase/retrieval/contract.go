package retrieval

import (
	"context"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	"github.com/kailas-cloud/hybridrag/internal/domain/resolution"
)

// Embedder vectorizes a batch of texts in one provider call.
type Embedder interface {
	Embed(ctx context.Context, texts []string) (domain.EmbeddingResult, error)
}

// RuleMatcher resolves a query by shortcut rules.
type RuleMatcher interface {
	Match(query string) resolution.Resolution
}

// FunctionDispatcher resolves a query to a function call or fails with domain.ErrNoRuleMatch.
type FunctionDispatcher interface {
	Dispatch(query string) (resolution.Call, error)
}
