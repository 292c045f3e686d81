package domain

// KeyPrefix namespaces every key hybridrag writes to an external store.
const KeyPrefix = "hybridrag:"

// VectorConfig holds vectorization defaults, not exposed to clients.
type VectorConfig struct {
	Model      string
	Dimensions int
}

// DefaultVectorConfig returns the defaults for text-embedding-3-small.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:      "text-embedding-3-small",
		Dimensions: 1536,
	}
}

// Retrieval defaults per deployment.
const (
	// DefaultKnowledgeBaseK is the number of results for the curated knowledge base (single best answer).
	DefaultKnowledgeBaseK = 1
	// DefaultAdHocK is the number of results for caller-supplied corpora.
	DefaultAdHocK = 3
	// MaxQueryLength is the maximum accepted query length in characters.
	MaxQueryLength = 4096
)
