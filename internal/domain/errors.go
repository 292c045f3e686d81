package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals a malformed query, corpus or k. Surfaced as a client error.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyCorpus signals a ranking request against an empty corpus.
	// Distinct from "no good match", which is never reported as an error.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrNoRuleMatch signals that a query conforms to no function template.
	ErrNoRuleMatch = fmt.Errorf("%w: query did not match any known function pattern", ErrInvalidInput)

	// ErrVectorDimMismatch signals vectors of different (or zero) length.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrZeroVector signals a zero-norm vector where a direction is required.
	ErrZeroVector = errors.New("zero vector")

	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingProviderTimeout signals that the provider did not answer before the deadline.
	ErrEmbeddingProviderTimeout = errors.New("embedding provider timeout")

	// ErrRetrievalFailed signals that the embedding ranking stage could not complete.
	ErrRetrievalFailed = errors.New("retrieval failed")
)

// RetrievalFailedError carries the cause of a failed embedding ranking.
// errors.Is matches both ErrRetrievalFailed and the cause chain.
type RetrievalFailedError struct {
	Cause error
}

func (e *RetrievalFailedError) Error() string {
	return fmt.Sprintf("%s: %v", ErrRetrievalFailed.Error(), e.Cause)
}

func (e *RetrievalFailedError) Unwrap() []error { return []error{ErrRetrievalFailed, e.Cause} }

// NewRetrievalFailed wraps cause into a RetrievalFailedError.
func NewRetrievalFailed(cause error) error {
	return &RetrievalFailedError{Cause: cause}
}

// InvalidInputf formats a message and wraps it with ErrInvalidInput.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
