// Package app is the composition root shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/internal/config"
	dbRedis "github.com/kailas-cloud/hybridrag/internal/db/redis"
	"github.com/kailas-cloud/hybridrag/internal/domain"
	"github.com/kailas-cloud/hybridrag/internal/domain/corpus"
	"github.com/kailas-cloud/hybridrag/internal/knowledgebase"
	"github.com/kailas-cloud/hybridrag/internal/metrics"
	budgetrepo "github.com/kailas-cloud/hybridrag/internal/repository/budget"
	"github.com/kailas-cloud/hybridrag/internal/rules"
	"github.com/kailas-cloud/hybridrag/internal/transport/hashemb"
	openaiEmb "github.com/kailas-cloud/hybridrag/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/hybridrag/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/hybridrag/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/hybridrag/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/hybridrag/internal/usecase/usage"
)

// App holds the wired services.
type App struct {
	Retrieval *retrievaluc.Service
	Usage     *usageuc.Service
	Health    *healthuc.Service
	Budget    *embeddinguc.BudgetTracker
	Embedder  *embeddinguc.InstrumentedEmbedder
	store     *dbRedis.Store
}

// New builds every service from cfg. The caller must Close the App.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	kb, err := LoadKnowledgeBase(cfg.Retrieval.KnowledgeBasePath)
	if err != nil {
		return nil, err
	}

	provider := cfg.Embedding.Provider
	budget := embeddinguc.NewBudgetTracker(
		provider,
		cfg.Embedding.Budget.DailyTokenLimit,
		cfg.Embedding.Budget.MonthlyTokenLimit,
		embeddinguc.BudgetAction(cfg.Embedding.Budget.Action),
		logger,
	)

	a := &App{Budget: budget}

	// Pass nil interface (not typed nil pointer) when no store is configured.
	var pinger healthuc.DBPinger
	if cfg.BudgetStore.Driver == config.DriverRedis {
		store, err := openStore(ctx, cfg.BudgetStore)
		if err != nil {
			return nil, err
		}
		a.store = store
		pinger = store
		budget.WithStore(ctx, budgetrepo.New(store, 0, 0))
		logger.Info("Budget store connected", zap.Strings("addrs", cfg.BudgetStore.Addrs))
	}

	a.Embedder = BuildEmbedder(cfg.Embedding, budget, logger)
	logger.Info("Embedder created",
		zap.String("provider", provider),
		zap.String("model", a.Embedder.Model()),
	)

	matcher, err := rules.Shortcuts(cfg.Retrieval.KnowledgeBasePath == "")
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("combine rules: %w", err)
	}

	a.Retrieval = retrievaluc.New(retrievaluc.Config{
		Embed:     a.Embedder,
		Rules:     matcher,
		Functions: rules.Functions(),
		Corpus:    kb,
		DefaultK:  cfg.Retrieval.KnowledgeBaseK,
	})
	a.Usage = usageuc.New(budget, provider)
	a.Health = healthuc.New(pinger, a.Embedder)
	return a, nil
}

// Close releases the budget store connection, if any.
func (a *App) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// BuildEmbedder assembles the decorator chain: backend -> Instrumented.
// The mock backend is used when no real credential is configured.
func BuildEmbedder(
	cfg config.EmbeddingConfig,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) *embeddinguc.InstrumentedEmbedder {
	var base domain.Embedder
	switch cfg.Provider {
	case config.ProviderOpenAI:
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			User:       cfg.User,
			Provider:   cfg.Provider,
			Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
			Logger:     logger,
		})
	default:
		base = hashemb.New(cfg.Dimensions)
	}
	return embeddinguc.NewInstrumentedEmbedder(base, cfg.Provider, budget, logger)
}

// LoadKnowledgeBase reads the corpus at path, or returns the built-in
// TypeScript Book excerpts when path is empty.
func LoadKnowledgeBase(path string) (corpus.Corpus, error) {
	if path == "" {
		return knowledgebase.TypeScriptBook(), nil
	}
	kb, err := knowledgebase.LoadFile(path)
	if err != nil {
		return corpus.Corpus{}, fmt.Errorf("load knowledge base: %w", err)
	}
	return kb, nil
}

func openStore(ctx context.Context, cfg config.BudgetStoreConfig) (*dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create budget store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("budget store not ready: %w", err)
	}
	return store, nil
}
