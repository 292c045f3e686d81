package domain

import (
	"context"
	"errors"
	"testing"
)

func TestRetrievalFailedError_MatchesSentinelAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewRetrievalFailed(cause)

	if !errors.Is(err, ErrRetrievalFailed) {
		t.Error("expected errors.Is(err, ErrRetrievalFailed)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is(err, cause)")
	}

	var rfe *RetrievalFailedError
	if !errors.As(err, &rfe) {
		t.Fatal("expected errors.As to find *RetrievalFailedError")
	}
	if rfe.Cause != cause {
		t.Errorf("Cause = %v, want %v", rfe.Cause, cause)
	}
}

func TestRetrievalFailedError_ProviderTimeoutVisible(t *testing.T) {
	err := NewRetrievalFailed(ErrEmbeddingProviderTimeout)
	if !errors.Is(err, ErrEmbeddingProviderTimeout) {
		t.Error("expected provider timeout to be visible through RetrievalFailedError")
	}
	if errors.Is(err, ErrEmbeddingProviderError) {
		t.Error("timeout must not match the generic provider error")
	}
}

func TestErrNoRuleMatch_IsInvalidInput(t *testing.T) {
	if !errors.Is(ErrNoRuleMatch, ErrInvalidInput) {
		t.Error("ErrNoRuleMatch must be a client error")
	}
}

func TestInvalidInputf(t *testing.T) {
	err := InvalidInputf("k must be positive, got %d", -1)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatal("expected ErrInvalidInput")
	}
	if err.Error() != "invalid input: k must be positive, got -1" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestEmbeddingUsage_Context(t *testing.T) {
	ctx, usage := NewContextWithUsage(context.Background())
	UsageFromContext(ctx).AddTokens(12)
	UsageFromContext(ctx).AddTokens(0)

	if usage.TotalTokens != 12 {
		t.Errorf("TotalTokens = %d, want 12", usage.TotalTokens)
	}
	if !usage.Used {
		t.Error("expected Used=true")
	}
}

func TestEmbeddingUsage_NilSafe(t *testing.T) {
	// No collector in context: AddTokens on nil must not panic.
	UsageFromContext(context.Background()).AddTokens(5)
}
