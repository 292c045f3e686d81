package hybridrag

import "github.com/kailas-cloud/hybridrag/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput             = domain.ErrInvalidInput
	ErrEmptyCorpus              = domain.ErrEmptyCorpus
	ErrNoRuleMatch              = domain.ErrNoRuleMatch
	ErrRetrievalFailed          = domain.ErrRetrievalFailed
	ErrVectorDimMismatch        = domain.ErrVectorDimMismatch
	ErrZeroVector               = domain.ErrZeroVector
	ErrEmbeddingProviderError   = domain.ErrEmbeddingProviderError
	ErrEmbeddingProviderTimeout = domain.ErrEmbeddingProviderTimeout
)
