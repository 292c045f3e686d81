// Package retrieval decides, per query, whether a shortcut rule or embedding
// similarity answers it, and ranks corpus documents for the latter.
package retrieval

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	"github.com/kailas-cloud/hybridrag/internal/domain/corpus"
	"github.com/kailas-cloud/hybridrag/internal/domain/resolution"
	"github.com/kailas-cloud/hybridrag/internal/domain/result"
	"github.com/kailas-cloud/hybridrag/internal/domain/vector"
	"github.com/kailas-cloud/hybridrag/internal/logger"
	"github.com/kailas-cloud/hybridrag/internal/metrics"
)

// Config wires a Service. Embed is required; nil matchers never match.
type Config struct {
	Embed     Embedder
	Rules     RuleMatcher
	Functions FunctionDispatcher
	// Corpus is the default knowledge base used by Search.
	Corpus corpus.Corpus
	// DefaultK is the result count for Search. Zero selects domain.DefaultKnowledgeBaseK.
	DefaultK int
}

// Service is the ranking engine. It holds no per-request state and is safe for concurrent use.
type Service struct {
	embed     Embedder
	rules     RuleMatcher
	functions FunctionDispatcher
	corpus    corpus.Corpus
	defaultK  int
}

// New creates a retrieval service.
func New(cfg Config) *Service {
	k := cfg.DefaultK
	if k <= 0 {
		k = domain.DefaultKnowledgeBaseK
	}
	return &Service{
		embed:     cfg.Embed,
		rules:     cfg.Rules,
		functions: cfg.Functions,
		corpus:    cfg.Corpus,
		defaultK:  k,
	}
}

// Corpus returns the default knowledge base.
func (s *Service) Corpus() corpus.Corpus { return s.corpus }

// DefaultK returns the result count used by Search.
func (s *Service) DefaultK() int { return s.defaultK }

// Search answers query against the default knowledge base.
func (s *Service) Search(ctx context.Context, query string) (Outcome, error) {
	return s.Retrieve(ctx, query, s.corpus, s.defaultK)
}

// Retrieve runs the rule stage and, on a miss, ranks c by cosine similarity to
// query and returns the top min(k, c.Len()) documents. A rule hit never calls the embedder.
func (s *Service) Retrieve(ctx context.Context, query string, c corpus.Corpus, k int) (Outcome, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	if err := validate(query, k); err != nil {
		return Outcome{}, err
	}

	if s.rules != nil {
		res := s.rules.Match(query)
		switch res.Kind() {
		case resolution.Answer:
			matches := []result.Result{result.New(res.Answer(), -1, result.RuleScore)}
			s.observe(log, StrategyRule, StageResolved, res.Rule(), start)
			return documentsOutcome(StrategyRule, res.Rule(), matches), nil
		case resolution.FunctionCall:
			s.observe(log, StrategyRule, StageResolved, res.Rule(), start)
			return callOutcome(res.Rule(), res.Call()), nil
		}
	}
	log.Debug("no rule matched", zap.String("stage", string(StageRuleDispatch)))

	matches, err := s.rank(ctx, query, c, k)
	if err != nil {
		s.observe(log, StrategyEmbedding, StageFailed, "", start)
		return Outcome{}, err
	}
	s.observe(log, StrategyEmbedding, StageResolved, "", start)
	return documentsOutcome(StrategyEmbedding, "", matches), nil
}

// Rank scores every document of c against query without consulting rules.
func (s *Service) Rank(ctx context.Context, query string, c corpus.Corpus, k int) ([]result.Result, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	if err := validate(query, k); err != nil {
		return nil, err
	}

	matches, err := s.rank(ctx, query, c, k)
	if err != nil {
		s.observe(log, StrategyEmbedding, StageFailed, "", start)
		return nil, err
	}
	s.observe(log, StrategyEmbedding, StageResolved, "", start)
	return matches, nil
}

// Dispatch resolves query to a function call using only the function templates.
func (s *Service) Dispatch(ctx context.Context, query string) (resolution.Call, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	if err := validate(query, 1); err != nil {
		return resolution.Call{}, err
	}
	if s.functions == nil {
		return resolution.Call{}, domain.ErrNoRuleMatch
	}

	call, err := s.functions.Dispatch(query)
	if err != nil {
		s.observe(log, StrategyRule, StageFailed, "", start)
		return resolution.Call{}, fmt.Errorf("dispatch: %w", err)
	}
	s.observe(log, StrategyRule, StageResolved, call.Name(), start)
	return call, nil
}

func (s *Service) rank(ctx context.Context, query string, c corpus.Corpus, k int) ([]result.Result, error) {
	if c.IsEmpty() {
		return nil, domain.ErrEmptyCorpus
	}

	texts := make([]string, 0, c.Len()+1)
	texts = append(texts, query)
	texts = append(texts, c.Contents()...)

	emb, err := s.embed.Embed(ctx, texts)
	if err != nil {
		return nil, domain.NewRetrievalFailed(err)
	}
	if len(emb.Embeddings) != len(texts) {
		return nil, domain.NewRetrievalFailed(fmt.Errorf("%w: got %d embeddings for %d texts",
			domain.ErrEmbeddingProviderError, len(emb.Embeddings), len(texts)))
	}

	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)
	metrics.RetrievalCorpusSize.Observe(float64(c.Len()))

	q := emb.Embeddings[0]
	scored := make([]result.Result, c.Len())
	for i := range scored {
		score, err := vector.Cosine(q, emb.Embeddings[i+1])
		if err != nil {
			return nil, fmt.Errorf("score document %d: %w", i, err)
		}
		scored[i] = result.New(c.At(i), i, score)
	}

	slices.SortStableFunc(scored, func(a, b result.Result) int {
		if byScore := cmp.Compare(b.Score(), a.Score()); byScore != 0 {
			return byScore
		}
		return cmp.Compare(a.Index(), b.Index())
	})

	return scored[:min(k, len(scored))], nil
}

func (s *Service) observe(log *zap.Logger, strategy Strategy, stage Stage, rule string, start time.Time) {
	d := time.Since(start)
	metrics.RetrievalsTotal.WithLabelValues(string(strategy), string(stage)).Inc()
	metrics.RetrievalDuration.WithLabelValues(string(strategy)).Observe(d.Seconds())
	if rule != "" && stage == StageResolved {
		metrics.RuleHitsTotal.WithLabelValues(rule).Inc()
	}
	log.Debug("retrieval finished",
		zap.String("strategy", string(strategy)),
		zap.String("stage", string(stage)),
		zap.String("rule", rule),
		zap.Duration("duration", d),
	)
}

func validate(query string, k int) error {
	if strings.TrimSpace(query) == "" {
		return domain.InvalidInputf("query must not be empty")
	}
	if n := utf8.RuneCountInString(query); n > domain.MaxQueryLength {
		return domain.InvalidInputf("query too long (max %d characters, got %d)", domain.MaxQueryLength, n)
	}
	if k <= 0 {
		return domain.InvalidInputf("k must be positive, got %d", k)
	}
	return nil
}
