package domain

import "context"

// Embedder maps a batch of texts to one L2-normalized vector per text,
// in input order, with a single provider round trip.
// An Embedder is bound to one model; vectors from different Embedders must not be compared.
type Embedder interface {
	Embed(ctx context.Context, texts []string) (EmbeddingResult, error)
	Model() string
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vectors and token usage through the decorator chain.
type EmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}
