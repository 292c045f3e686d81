package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	"github.com/kailas-cloud/hybridrag/internal/domain/corpus"
	"github.com/kailas-cloud/hybridrag/internal/domain/document"
	"github.com/kailas-cloud/hybridrag/internal/domain/resolution"
	"github.com/kailas-cloud/hybridrag/internal/domain/result"
	domusage "github.com/kailas-cloud/hybridrag/internal/domain/usage"
	"github.com/kailas-cloud/hybridrag/internal/metrics"
	healthuc "github.com/kailas-cloud/hybridrag/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/hybridrag/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/hybridrag/internal/usecase/usage"
	"github.com/kailas-cloud/hybridrag/internal/version"
)

// ExampleQuery is advertised by GET /.
const ExampleQuery = "What does the author affectionately call the => syntax?"

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the retrieval HTTP API.
type Server struct {
	retrieval     *retrievaluc.Service
	usage         *usageuc.Service
	health        *healthuc.Service
	adHocK        int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	retrieval *retrievaluc.Service,
	usage *usageuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		retrieval: retrieval,
		usage:     usage,
		health:    health,
		adHocK:    domain.DefaultAdHocK,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNoRuleMatch, http.StatusBadRequest, ErrorCodeNoRuleMatch),
		sentinelHandler(domain.ErrEmptyCorpus, http.StatusBadRequest, ErrorCodeEmptyCorpus),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded,
			http.StatusPaymentRequired, ErrorCodeEmbeddingQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderTimeout,
			http.StatusGatewayTimeout, ErrorCodeEmbeddingProviderTimeout),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorCodeEmbeddingProviderError),
	}
	return s
}

// WithAdHocK sets the default result count for caller-supplied corpora.
func (s *Server) WithAdHocK(k int) *Server {
	if k > 0 {
		s.adHocK = k
	}
	return s
}

// Info handles GET /.
func (s *Server) Info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Message:   "hybridrag API is running",
		Version:   version.Version,
		Endpoints: []string{"/search?q=", "/similarity", "/retrieve", "/execute?q=", "/usage", "/health"},
		Example:   "/search?q=" + ExampleQuery,
	})
}

// Search handles GET /search against the knowledge base.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var q string
	if err := runtime.BindQueryParameter("form", true, true, "q", r.URL.Query(), &q); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter q: "+err.Error())
		return
	}
	var k *int
	if err := runtime.BindQueryParameter("form", true, false, "k", r.URL.Query(), &k); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter k: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	outcome, err := s.retrieval.Retrieve(ctx, q, s.retrieval.Corpus(), derefInt(k, s.retrieval.DefaultK()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	var resp SearchResponse
	switch outcome.Kind() {
	case retrievaluc.KindFunctionCall:
		call, err := functionCallToDTO(outcome.Call())
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		resp.FunctionCall = &call
	default:
		resp = searchResponse(outcome.Matches())
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, resp)
}

// Similarity handles POST /similarity: ad-hoc ranking without rules.
func (s *Server) Similarity(w http.ResponseWriter, r *http.Request) {
	var req SimilarityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Docs) == 0 || strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "Docs and query cannot be empty.")
		return
	}

	c, err := corpus.FromContents(req.Docs)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	matches, err := s.retrieval.Rank(ctx, req.Query, c, derefInt(req.K, s.adHocK))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	contents := make([]string, len(matches))
	for i, m := range matches {
		contents[i] = m.Content()
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, SimilarityResponse{Matches: contents})
}

// Retrieve handles POST /retrieve: rules first, then ranking of the supplied
// corpus or, when none is given, the knowledge base.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	c := s.retrieval.Corpus()
	k := derefInt(req.K, s.retrieval.DefaultK())
	if req.Corpus != nil {
		var err error
		if c, err = corpusFromDTO(req.Corpus); err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
			return
		}
		k = derefInt(req.K, s.adHocK)
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	outcome, err := s.retrieval.Retrieve(ctx, req.Query, c, k)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := RetrieveResponse{
		Strategy: string(outcome.Strategy()),
		Rule:     outcome.Rule(),
	}
	switch outcome.Kind() {
	case retrievaluc.KindFunctionCall:
		call, err := functionCallToDTO(outcome.Call())
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		resp.FunctionCall = &call
	default:
		resp.Matches = matchesToDTO(outcome.Matches())
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, resp)
}

// Execute handles GET /execute: function templates only.
func (s *Server) Execute(w http.ResponseWriter, r *http.Request) {
	var q string
	if err := runtime.BindQueryParameter("form", true, true, "q", r.URL.Query(), &q); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter q: "+err.Error())
		return
	}

	call, err := s.retrieval.Dispatch(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := functionCallToDTO(call)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	var period *string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &period); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter period: "+err.Error())
		return
	}
	p := domusage.PeriodMonth
	if period != nil {
		p = domusage.Period(*period)
	}

	report, err := s.usage.GetReport(r.Context(), p)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	b := report.Budget()
	resp := UsageResponse{
		Period:   string(report.Period()),
		Provider: report.Provider(),
		Budget: BudgetStatus{
			TokensLimit:     b.TokensLimit(),
			TokensUsed:      b.TokensUsed(),
			TokensRemaining: b.TokensRemaining(),
			IsExhausted:     b.IsExhausted(),
		},
	}

	if report.PeriodStart() > 0 {
		start := time.UnixMilli(report.PeriodStart()).UTC()
		end := time.UnixMilli(report.PeriodEnd()).UTC()
		resp.PeriodStartAt = &start
		resp.PeriodEndAt = &end
	}

	if b.ResetsAt() > 0 {
		resetsAt := time.UnixMilli(b.ResetsAt()).UTC()
		resp.Budget.ResetsAt = &resetsAt
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set(metrics.EmbeddingTokensHeader, strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Invalid-input errors carry validation details and are returned as is.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrNoRuleMatch) {
		return "Query did not match any known function pattern."
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrEmptyCorpus,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingProviderTimeout,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func searchResponse(matches []result.Result) SearchResponse {
	if len(matches) == 0 {
		return SearchResponse{}
	}
	answers := make([]string, len(matches))
	sources := make([]string, 0, len(matches))
	for i, m := range matches {
		answers[i] = m.Content()
		if m.Source() != "" {
			sources = append(sources, m.Source())
		}
	}
	resp := SearchResponse{Answer: strings.Join(answers, "\n\n")}
	if len(sources) > 0 {
		src := strings.Join(sources, "; ")
		resp.Sources = &src
	}
	return resp
}

func matchesToDTO(matches []result.Result) []MatchDTO {
	out := make([]MatchDTO, len(matches))
	for i, m := range matches {
		out[i] = MatchDTO{Content: m.Content(), Source: m.Source(), Score: m.Score()}
	}
	return out
}

func functionCallToDTO(call resolution.Call) (FunctionCallDTO, error) {
	args, err := call.ArgumentsJSON()
	if err != nil {
		return FunctionCallDTO{}, fmt.Errorf("encode %s arguments: %w", call.Name(), err)
	}
	return FunctionCallDTO{Name: call.Name(), Arguments: args}, nil
}

func corpusFromDTO(items []DocumentDTO) (corpus.Corpus, error) {
	docs := make([]document.Document, len(items))
	for i, item := range items {
		d, err := document.New(item.Content, item.SourceLabel)
		if err != nil {
			return corpus.Corpus{}, fmt.Errorf("corpus[%d]: %w", i, err)
		}
		docs[i] = d
	}
	c, err := corpus.New(docs)
	if err != nil {
		return corpus.Corpus{}, fmt.Errorf("build corpus: %w", err)
	}
	return c, nil
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
