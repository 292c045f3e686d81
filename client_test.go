package hybridrag

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// axisEmbedder maps each known text to a fixed vector; unknown texts get the query axis.
type axisEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (e *axisEmbedder) Embed(_ context.Context, texts []string) (EmbeddingResult, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := e.vectors[t]
		if !ok {
			v = []float32{1, 0, 0}
		}
		out[i] = v
	}
	return EmbeddingResult{Embeddings: out, PromptTokens: len(texts), TotalTokens: len(texts)}, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) (EmbeddingResult, error) {
	return EmbeddingResult{}, ErrEmbeddingProviderTimeout
}

func TestSearch_RuleAnswer(t *testing.T) {
	emb := &axisEmbedder{}
	c, err := New(WithEmbedder(emb))
	require.NoError(t, err)

	ans, err := c.Search(context.Background(), "What does the author affectionately call the => syntax?")
	require.NoError(t, err)

	assert.Equal(t, StrategyRule, ans.Strategy)
	require.Len(t, ans.Matches, 1)
	assert.Equal(t, "TypeScript Book - Arrow Functions", ans.Matches[0].Source)
	assert.Equal(t, -1, ans.Matches[0].Index)
	assert.Nil(t, ans.Call)
	assert.Zero(t, emb.calls, "rule hit must not embed")
}

func TestSearch_EmbeddingFallback(t *testing.T) {
	c, err := New(WithMockDimensions(64))
	require.NoError(t, err)

	ans, err := c.Search(context.Background(), "How do interfaces describe object shapes?")
	require.NoError(t, err)

	assert.Equal(t, StrategyEmbedding, ans.Strategy)
	assert.Empty(t, ans.Rule)
	assert.Len(t, ans.Matches, 1)
}

func TestSearch_FunctionTemplate(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	ans, err := c.Search(context.Background(), "What is the status of ticket 83742?")
	require.NoError(t, err)

	require.NotNil(t, ans.Call)
	assert.Equal(t, StrategyRule, ans.Strategy)
	assert.Equal(t, "get_ticket_status", ans.Call.Name)
	assert.Equal(t, `{"ticket_id": 83742}`, ans.Call.ArgumentsJSON)
	assert.Empty(t, ans.Matches)
}

func TestWithoutRules(t *testing.T) {
	c, err := New(WithoutRules(), WithMockDimensions(32))
	require.NoError(t, err)

	ans, err := c.Search(context.Background(), "What does the author affectionately call the => syntax?")
	require.NoError(t, err)
	assert.Equal(t, StrategyEmbedding, ans.Strategy)

	call, err := c.Execute(context.Background(), "What is the status of ticket 1?")
	require.NoError(t, err)
	assert.Equal(t, "get_ticket_status", call.Name)
}

func TestSimilar_OrdersByScoreThenIndex(t *testing.T) {
	emb := &axisEmbedder{vectors: map[string][]float32{
		"far":    {0, 1, 0},
		"near":   {1, 0, 0},
		"near-2": {1, 0, 0},
		"middle": {1, 1, 0},
	}}
	c, err := New(WithEmbedder(emb))
	require.NoError(t, err)

	matches, err := c.Similar(context.Background(), "query", []string{"far", "near", "middle", "near-2"}, 3)
	require.NoError(t, err)

	require.Len(t, matches, 3)
	assert.Equal(t, "near", matches[0].Content)
	assert.Equal(t, "near-2", matches[1].Content)
	assert.Equal(t, "middle", matches[2].Content)
	assert.Equal(t, 1, matches[0].Index)
	assert.Equal(t, 1, emb.calls, "query and documents go in one batch")
}

func TestSimilar_DefaultKAndClamp(t *testing.T) {
	c, err := New(WithAdHocK(2), WithMockDimensions(32))
	require.NoError(t, err)

	matches, err := c.Similar(context.Background(), "alpha", []string{"alpha", "beta", "gamma"}, 0)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.Equal(t, "alpha", matches[0].Content)

	matches, err = c.Similar(context.Background(), "alpha", []string{"alpha"}, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestSimilar_SkipsRules(t *testing.T) {
	c, err := New(WithMockDimensions(32))
	require.NoError(t, err)

	matches, err := c.Similar(context.Background(), "What is the status of ticket 83742?", []string{"tickets", "cats"}, 1)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestSimilar_Errors(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Similar(ctx, "q", nil, 1)
	assert.ErrorIs(t, err, ErrEmptyCorpus)

	_, err = c.Similar(ctx, "q", []string{"a", ""}, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = c.Similar(ctx, "   ", []string{"a"}, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRetrieve_CallerCorpus(t *testing.T) {
	c, err := New(WithMockDimensions(32))
	require.NoError(t, err)

	docs := []Document{
		{Content: "Goroutines are lightweight threads.", Source: "Go Tour"},
		{Content: "Channels connect goroutines.", Source: "Go Tour"},
	}
	ans, err := c.Retrieve(context.Background(), "Channels connect goroutines.", docs, 0)
	require.NoError(t, err)

	assert.Equal(t, StrategyEmbedding, ans.Strategy)
	require.Len(t, ans.Matches, 2)
	assert.Equal(t, "Channels connect goroutines.", ans.Matches[0].Content)
	assert.Equal(t, "Go Tour", ans.Matches[0].Source)
}

func TestRetrieve_RuleBeatsCallerCorpus(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	ans, err := c.Retrieve(context.Background(),
		"Which operator converts any value into an explicit boolean?",
		[]Document{{Content: "unrelated"}}, 1)
	require.NoError(t, err)
	assert.Equal(t, StrategyRule, ans.Strategy)
	assert.Equal(t, "TypeScript Book - Operators", ans.Matches[0].Source)
}

func TestRetrieve_ProviderFailure(t *testing.T) {
	c, err := New(WithEmbedder(failingEmbedder{}))
	require.NoError(t, err)

	_, err = c.Retrieve(context.Background(), "How do interfaces work?", nil, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrievalFailed)
	assert.ErrorIs(t, err, ErrEmbeddingProviderTimeout)
}

func TestExecute(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	call, err := c.Execute(context.Background(), "Schedule a meeting on 2025-02-15 at 14:00 in Room A.")
	require.NoError(t, err)
	assert.Equal(t, "schedule_meeting", call.Name)
	assert.Equal(t, `{"date": "2025-02-15", "time": "14:00", "meeting_room": "Room A"}`, call.ArgumentsJSON)
	require.Len(t, call.Arguments, 3)
	assert.Equal(t, Argument{Name: "meeting_room", Value: "Room A"}, call.Arguments[2])

	_, err = c.Execute(context.Background(), "What does the author affectionately call the => syntax?")
	assert.ErrorIs(t, err, ErrNoRuleMatch)
}

func TestWithKnowledgeBase(t *testing.T) {
	c, err := New(WithoutRules(), WithDefaultK(2), WithKnowledgeBase([]Document{
		{Content: "alpha", Source: "a"},
		{Content: "beta", Source: "b"},
		{Content: "gamma", Source: "c"},
	}))
	require.NoError(t, err)

	ans, err := c.Search(context.Background(), "beta")
	require.NoError(t, err)
	require.Len(t, ans.Matches, 2)
	assert.Equal(t, "b", ans.Matches[0].Source)
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(WithDefaultK(0))
	assert.Error(t, err)

	_, err = New(WithKnowledgeBase([]Document{{Content: ""}}))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = New(WithKnowledgeBaseFile("/nonexistent/kb.yaml"))
	assert.Error(t, err)
}

func TestWithOpenAI_PlaceholderKeyUsesMock(t *testing.T) {
	c, err := New(WithOpenAI("dummy-api-key", ""), WithMockDimensions(16))
	require.NoError(t, err)

	// The mock embedder answers offline.
	ans, err := c.Search(context.Background(), "How do interfaces work?")
	require.NoError(t, err)
	assert.Equal(t, StrategyEmbedding, ans.Strategy)
}

func TestObserver_MetricsAndLogs(t *testing.T) {
	reg := prometheus.NewRegistry()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c, err := New(WithPrometheus(reg), WithLogger(logger))
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "What does the author affectionately call the => syntax?")
	require.NoError(t, err)
	_, err = c.Execute(context.Background(), "no template here")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		c.obs.metrics.operations.WithLabelValues("search", "rule", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		c.obs.metrics.operations.WithLabelValues("execute", "rule", "error")))
	assert.Contains(t, buf.String(), "operation completed")
	assert.Contains(t, buf.String(), "operation failed")

	// A second client on the same registry reuses the collectors.
	c2, err := New(WithPrometheus(reg))
	require.NoError(t, err)
	assert.Same(t, c.obs.metrics.operations, c2.obs.metrics.operations)
}

func TestObserver_IncompatibleCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hybridrag",
		Subsystem: "client",
		Name:      "operations_total",
		Help:      "Total client operations by type, strategy and status.",
	}))

	_, err := New(WithPrometheus(reg))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidInput))
}

func TestWithKnowledgeBase_NoTypeScriptAnswers(t *testing.T) {
	kotlin := Document{
		Content: "In Kotlin, the -> arrow separates lambda parameters from the body.",
		Source:  "Kotlin Docs - Lambdas",
	}
	c, err := New(WithMockDimensions(32), WithKnowledgeBase([]Document{kotlin}))
	require.NoError(t, err)

	ans, err := c.Search(context.Background(), "What is the => syntax called?")
	require.NoError(t, err)

	assert.Equal(t, StrategyEmbedding, ans.Strategy)
	require.Len(t, ans.Matches, 1)
	assert.Equal(t, kotlin.Source, ans.Matches[0].Source)
	assert.Equal(t, 0, ans.Matches[0].Index)

	// Function templates do not depend on the corpus.
	call, err := c.Execute(context.Background(), "What is the status of ticket 9?")
	require.NoError(t, err)
	assert.Equal(t, "get_ticket_status", call.Name)
}

func TestRetrieve_EmptyCorpusIsNotKnowledgeBase(t *testing.T) {
	c, err := New(WithMockDimensions(32))
	require.NoError(t, err)

	_, err = c.Retrieve(context.Background(), "How do interfaces work?", []Document{}, 1)
	assert.ErrorIs(t, err, ErrEmptyCorpus)

	ans, err := c.Retrieve(context.Background(), "How do interfaces work?", nil, 1)
	require.NoError(t, err)
	assert.Len(t, ans.Matches, 1)
}
