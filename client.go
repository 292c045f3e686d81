package hybridrag

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/hybridrag/internal/config"
	"github.com/kailas-cloud/hybridrag/internal/domain"
	"github.com/kailas-cloud/hybridrag/internal/domain/corpus"
	"github.com/kailas-cloud/hybridrag/internal/domain/document"
	"github.com/kailas-cloud/hybridrag/internal/domain/resolution"
	"github.com/kailas-cloud/hybridrag/internal/domain/result"
	"github.com/kailas-cloud/hybridrag/internal/knowledgebase"
	"github.com/kailas-cloud/hybridrag/internal/rules"
	"github.com/kailas-cloud/hybridrag/internal/transport/hashemb"
	openaiEmb "github.com/kailas-cloud/hybridrag/internal/transport/openai"
	retrievaluc "github.com/kailas-cloud/hybridrag/internal/usecase/retrieval"
)

const defaultTimeout = 30 * time.Second

// Client is an in-process hybrid retrieval engine. Safe for concurrent use.
type Client struct {
	svc    *retrievaluc.Service
	adHocK int
	obs    *observer
}

// New creates a Client. Without options it uses the deterministic mock
// embedder and the built-in TypeScript Book knowledge base.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		timeout:  defaultTimeout,
		mockDims: domain.DefaultVectorConfig().Dimensions,
		defaultK: domain.DefaultKnowledgeBaseK,
		adHocK:   domain.DefaultAdHocK,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.defaultK <= 0 || cfg.adHocK <= 0 {
		return nil, fmt.Errorf("hybridrag: k must be positive (default %d, ad-hoc %d)", cfg.defaultK, cfg.adHocK)
	}

	kb, err := knowledgeBase(cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var matcher retrievaluc.RuleMatcher
	if !cfg.disableRules {
		builtin := cfg.knowledgeBase == nil && cfg.knowledgeBasePath == ""
		m, err := rules.Shortcuts(builtin)
		if err != nil {
			return nil, fmt.Errorf("hybridrag: combine rules: %w", err)
		}
		matcher = m
	}

	return &Client{
		svc: retrievaluc.New(retrievaluc.Config{
			Embed:     buildEmbedder(cfg),
			Rules:     matcher,
			Functions: rules.Functions(),
			Corpus:    kb,
			DefaultK:  cfg.defaultK,
		}),
		adHocK: cfg.adHocK,
		obs:    obs,
	}, nil
}

func buildEmbedder(cfg *clientConfig) retrievaluc.Embedder {
	switch {
	case cfg.embedder != nil:
		return &embedderAdapter{inner: cfg.embedder}
	case config.HasRealAPIKey(cfg.openAIKey):
		model := cfg.openAIModel
		if model == "" {
			model = domain.DefaultVectorConfig().Model
		}
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:   cfg.openAIKey,
			BaseURL:  cfg.openAIBaseURL,
			Model:    model,
			Provider: config.ProviderOpenAI,
			Timeout:  cfg.timeout,
		})
	default:
		return hashemb.New(cfg.mockDims)
	}
}

func knowledgeBase(cfg *clientConfig) (corpus.Corpus, error) {
	switch {
	case cfg.knowledgeBase != nil:
		docs := make([]document.Document, len(cfg.knowledgeBase))
		for i, d := range cfg.knowledgeBase {
			doc, err := document.New(d.Content, d.Source)
			if err != nil {
				return corpus.Corpus{}, fmt.Errorf("hybridrag: knowledge base document %d: %w", i, err)
			}
			docs[i] = doc
		}
		kb, err := corpus.New(docs)
		if err != nil {
			return corpus.Corpus{}, fmt.Errorf("hybridrag: knowledge base: %w", err)
		}
		return kb, nil
	case cfg.knowledgeBasePath != "":
		kb, err := knowledgebase.LoadFile(cfg.knowledgeBasePath)
		if err != nil {
			return corpus.Corpus{}, fmt.Errorf("hybridrag: %w", err)
		}
		return kb, nil
	default:
		return knowledgebase.TypeScriptBook(), nil
	}
}

// Search answers query from the knowledge base: a matching rule wins,
// otherwise the top documents by cosine similarity are returned.
func (c *Client) Search(ctx context.Context, query string) (Answer, error) {
	start := time.Now()
	out, err := c.svc.Search(ctx, query)
	if err != nil {
		c.obs.observe("search", "", start, err)
		return Answer{}, err
	}
	ans, err := toAnswer(out)
	c.obs.observe("search", ans.Strategy, start, err)
	return ans, err
}

// Retrieve answers query from docs with the rule stage enabled.
// A nil docs slice searches the knowledge base; a non-nil empty slice is an
// empty corpus and fails with ErrEmptyCorpus unless a rule answers first.
// k <= 0 selects the default for the chosen corpus.
func (c *Client) Retrieve(ctx context.Context, query string, docs []Document, k int) (Answer, error) {
	start := time.Now()
	ans, err := c.retrieve(ctx, query, docs, k)
	c.obs.observe("retrieve", ans.Strategy, start, err)
	return ans, err
}

func (c *Client) retrieve(ctx context.Context, query string, docs []Document, k int) (Answer, error) {
	target := c.svc.Corpus()
	defaultK := c.svc.DefaultK()
	if docs != nil {
		var err error
		if target, err = toCorpus(docs); err != nil {
			return Answer{}, err
		}
		defaultK = c.adHocK
	}
	if k <= 0 {
		k = defaultK
	}
	out, err := c.svc.Retrieve(ctx, query, target, k)
	if err != nil {
		return Answer{}, err
	}
	return toAnswer(out)
}

// Similar ranks docs by cosine similarity to query, skipping rules.
// k <= 0 selects the ad-hoc default.
func (c *Client) Similar(ctx context.Context, query string, docs []string, k int) ([]Match, error) {
	start := time.Now()
	matches, err := c.similar(ctx, query, docs, k)
	c.obs.observe("similar", StrategyEmbedding, start, err)
	return matches, err
}

func (c *Client) similar(ctx context.Context, query string, docs []string, k int) ([]Match, error) {
	target, err := corpus.FromContents(docs)
	if err != nil {
		return nil, domain.InvalidInputf("%v", err)
	}
	if k <= 0 {
		k = c.adHocK
	}
	res, err := c.svc.Rank(ctx, query, target, k)
	if err != nil {
		return nil, err
	}
	return toMatches(res), nil
}

// Execute resolves query to a function call. It fails with ErrNoRuleMatch
// when no template matches.
func (c *Client) Execute(ctx context.Context, query string) (FunctionCall, error) {
	start := time.Now()
	call, err := c.svc.Dispatch(ctx, query)
	if err != nil {
		c.obs.observe("execute", StrategyRule, start, err)
		return FunctionCall{}, err
	}
	fc, err := toFunctionCall(call)
	c.obs.observe("execute", StrategyRule, start, err)
	return fc, err
}

func toCorpus(docs []Document) (corpus.Corpus, error) {
	out := make([]document.Document, len(docs))
	for i, d := range docs {
		doc, err := document.New(d.Content, d.Source)
		if err != nil {
			return corpus.Corpus{}, domain.InvalidInputf("document [%d]: %v", i, err)
		}
		out[i] = doc
	}
	c, err := corpus.New(out)
	if err != nil {
		return corpus.Corpus{}, domain.InvalidInputf("%v", err)
	}
	return c, nil
}

func toAnswer(o retrievaluc.Outcome) (Answer, error) {
	ans := Answer{Strategy: Strategy(o.Strategy()), Rule: o.Rule()}
	if o.Kind() == retrievaluc.KindFunctionCall {
		fc, err := toFunctionCall(o.Call())
		if err != nil {
			return Answer{}, err
		}
		ans.Call = &fc
		return ans, nil
	}
	ans.Matches = toMatches(o.Matches())
	return ans, nil
}

func toMatches(res []result.Result) []Match {
	out := make([]Match, len(res))
	for i, r := range res {
		out[i] = Match{Content: r.Content(), Source: r.Source(), Score: r.Score(), Index: r.Index()}
	}
	return out
}

func toFunctionCall(call resolution.Call) (FunctionCall, error) {
	js, err := call.ArgumentsJSON()
	if err != nil {
		return FunctionCall{}, fmt.Errorf("hybridrag: encode arguments: %w", err)
	}
	args := call.Arguments()
	out := make([]Argument, len(args))
	for i, a := range args {
		out[i] = Argument{Name: a.Name, Value: a.Value}
	}
	return FunctionCall{Name: call.Name(), Arguments: out, ArgumentsJSON: js}, nil
}

// embedderAdapter bridges the public Embedder to the internal contract.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, texts []string) (domain.EmbeddingResult, error) {
	res, err := a.inner.Embed(ctx, texts)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embeddings:   res.Embeddings,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}
