// Package hashemb is an offline embedding backend. Vectors are derived from a
// hash of the text, so identical texts always embed identically and unrelated
// texts land near-orthogonal. Useful for local runs and tests; carries no semantics.
package hashemb

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	"github.com/kailas-cloud/hybridrag/internal/domain/vector"
	"github.com/kailas-cloud/hybridrag/internal/metrics"
)

// DefaultDimensions matches text-embedding-3-small.
const DefaultDimensions = 1536

// Provider is the provider label used in metrics and usage reports.
const Provider = "mock"

const streamSalt = 0x9e3779b97f4a7c15

// Embedder is a deterministic domain.Embedder.
type Embedder struct {
	dimensions int
	model      string
}

// New creates a hash embedder. dimensions <= 0 selects DefaultDimensions.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{
		dimensions: dimensions,
		model:      fmt.Sprintf("mock-fnv-%d", dimensions),
	}
}

// Model implements domain.Embedder.
func (e *Embedder) Model() string { return e.model }

// Dimensions returns the vector length.
func (e *Embedder) Dimensions() int { return e.dimensions }

// Embed implements domain.Embedder. Token usage is approximated by word count.
func (e *Embedder) Embed(ctx context.Context, texts []string) (domain.EmbeddingResult, error) {
	switch err := ctx.Err(); {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.EmbeddingResult{}, fmt.Errorf("mock embed: %w", domain.ErrEmbeddingProviderTimeout)
	case err != nil:
		return domain.EmbeddingResult{}, fmt.Errorf("mock embed: %w", err)
	}

	start := time.Now()
	out := make([][]float32, len(texts))
	tokens := 0
	for i, t := range texts {
		v, err := e.vector(t)
		if err != nil {
			metrics.EmbeddingRequestsTotal.WithLabelValues(Provider, e.model, "error").Inc()
			return domain.EmbeddingResult{}, fmt.Errorf("mock embed text %d: %w", i, err)
		}
		out[i] = v
		tokens += len(strings.Fields(t))
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(Provider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(Provider, e.model).Observe(time.Since(start).Seconds())
	metrics.EmbeddingBatchSize.WithLabelValues(Provider, e.model).Observe(float64(len(texts)))

	return domain.EmbeddingResult{
		Embeddings:   out,
		PromptTokens: tokens,
		TotalTokens:  tokens,
	}, nil
}

// HealthCheck always succeeds.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

func (e *Embedder) vector(text string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	r := rand.New(rand.NewPCG(seed, seed^streamSalt)) //nolint:gosec // not for crypto
	v := make([]float32, e.dimensions)
	for i := range v {
		v[i] = float32(r.Float64()*2 - 1)
	}
	return vector.Normalize(v) //nolint:wrapcheck // already a domain error
}
