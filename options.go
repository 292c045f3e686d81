package hybridrag

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	embedder Embedder

	openAIKey     string
	openAIModel   string
	openAIBaseURL string
	timeout       time.Duration
	mockDims      int

	knowledgeBase     []Document
	knowledgeBasePath string
	defaultK          int
	adHocK            int
	disableRules      bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithEmbedder sets a custom embedding provider. It takes precedence over WithOpenAI.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAI uses the OpenAI embeddings API. An empty or placeholder key
// ("dummy-api-key") keeps the deterministic mock embedder. model defaults to
// text-embedding-3-small.
func WithOpenAI(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIKey = apiKey
		c.openAIModel = model
	})
}

// WithBaseURL points the OpenAI backend at a compatible endpoint.
func WithBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIBaseURL = url
	})
}

// WithTimeout bounds a single embedding round trip. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithMockDimensions sets the vector length of the mock embedder. Default: 1536.
func WithMockDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.mockDims = dim
	})
}

// WithKnowledgeBase replaces the built-in TypeScript Book excerpts used by Search.
// The TypeScript answer rules go with them; function templates stay.
func WithKnowledgeBase(docs []Document) Option {
	return optionFunc(func(c *clientConfig) {
		c.knowledgeBase = docs
	})
}

// WithKnowledgeBaseFile loads the Search corpus from a YAML file.
// Like WithKnowledgeBase, it drops the TypeScript answer rules.
func WithKnowledgeBaseFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.knowledgeBasePath = path
	})
}

// WithDefaultK sets the number of documents Search returns. Default: 1.
func WithDefaultK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultK = k
	})
}

// WithAdHocK sets the number of documents Similar and Retrieve return when k <= 0. Default: 3.
func WithAdHocK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.adHocK = k
	})
}

// WithoutRules disables the TypeScript keyword rules and function templates
// for Search and Retrieve. Execute keeps the function templates.
func WithoutRules() Option {
	return optionFunc(func(c *clientConfig) {
		c.disableRules = true
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
