package chi

import "time"

// ErrorCode is the machine-readable error kind in ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest               ErrorCode = "bad_request"
	ErrorCodeValidationFailed         ErrorCode = "validation_failed"
	ErrorCodeEmptyCorpus              ErrorCode = "empty_corpus"
	ErrorCodeNoRuleMatch              ErrorCode = "no_rule_match"
	ErrorCodeUnauthorized             ErrorCode = "unauthorized"
	ErrorCodeEmbeddingQuotaExceeded   ErrorCode = "embedding_quota_exceeded"
	ErrorCodeEmbeddingProviderError   ErrorCode = "embedding_provider_error"
	ErrorCodeEmbeddingProviderTimeout ErrorCode = "embedding_provider_timeout"
	ErrorCodeInternalError            ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// InfoResponse is returned by GET /.
type InfoResponse struct {
	Message   string   `json:"message"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
	Example   string   `json:"example"`
}

// SearchResponse is returned by GET /search.
type SearchResponse struct {
	Answer       string           `json:"answer"`
	Sources      *string          `json:"sources"`
	FunctionCall *FunctionCallDTO `json:"function_call,omitempty"`
}

// SimilarityRequest is the body of POST /similarity.
type SimilarityRequest struct {
	Docs  []string `json:"docs"`
	Query string   `json:"query"`
	K     *int     `json:"k,omitempty"`
}

// SimilarityResponse lists matching document texts, best first.
type SimilarityResponse struct {
	Matches []string `json:"matches"`
}

// DocumentDTO is a caller-supplied corpus entry.
type DocumentDTO struct {
	Content     string `json:"content"`
	SourceLabel string `json:"source_label"`
}

// RetrieveRequest is the body of POST /retrieve. A nil corpus selects the knowledge base.
type RetrieveRequest struct {
	Query  string        `json:"query"`
	Corpus []DocumentDTO `json:"corpus,omitempty"`
	K      *int          `json:"k,omitempty"`
}

// MatchDTO is one ranked document.
type MatchDTO struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
}

// FunctionCallDTO is a resolved function call. Arguments is a JSON object string.
type FunctionCallDTO struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// RetrieveResponse carries either Matches or FunctionCall.
type RetrieveResponse struct {
	Strategy     string           `json:"strategy"`
	Rule         string           `json:"rule,omitempty"`
	Matches      []MatchDTO       `json:"matches,omitempty"`
	FunctionCall *FunctionCallDTO `json:"function_call,omitempty"`
}

// BudgetStatus is the token budget section of UsageResponse.
type BudgetStatus struct {
	TokensLimit     int64      `json:"tokens_limit"`
	TokensUsed      int64      `json:"tokens_used"`
	TokensRemaining int64      `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

// UsageResponse is returned by GET /usage.
type UsageResponse struct {
	Period        string       `json:"period"`
	Provider      string       `json:"provider"`
	PeriodStartAt *time.Time   `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time   `json:"period_end_at,omitempty"`
	Budget        BudgetStatus `json:"budget"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
