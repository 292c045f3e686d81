package hybridrag

import "context"

// Embedder converts a batch of texts to vectors in one call.
// The result must hold one vector per text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vectors and token counts.
type EmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}
