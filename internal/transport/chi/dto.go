package chi

import (
	"math"

	domanswer "github.com/kailas-cloud/faqdex/internal/domain/answer"
	"github.com/kailas-cloud/faqdex/internal/domain/search/result"
	batchuc "github.com/kailas-cloud/faqdex/internal/usecase/batch"
	healthuc "github.com/kailas-cloud/faqdex/internal/usecase/health"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodeValidationFailed   ErrorCode = "validation_failed"
	ErrorCodeNotFound           ErrorCode = "not_found"
	ErrorCodeServiceUnavailable ErrorCode = "service_unavailable"
	ErrorCodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// SearchResultItem is one retrieved FAQ entry.
type SearchResultItem struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Category string  `json:"category"`
	Source   string  `json:"source"`
	Distance float64 `json:"distance"`
}

// SearchResponse is the body of GET /search.
type SearchResponse struct {
	Query   string             `json:"query"`
	Count   int                `json:"count"`
	Results []SearchResultItem `json:"results"`
}

// BatchSearchRequest is the body of POST /search/batch.
type BatchSearchRequest struct {
	Queries  []string `json:"queries" validate:"required,min=1"`
	TopK     *int     `json:"top_k,omitempty" validate:"omitempty,min=1"`
	Category string   `json:"category,omitempty" validate:"max=128"`
	Source   string   `json:"source,omitempty" validate:"max=128"`
}

// BatchSearchItem is the outcome of one query in a batch.
type BatchSearchItem struct {
	SearchResponse
	Error string `json:"error,omitempty"`
}

// BatchSearchResponse is the body of POST /search/batch.
type BatchSearchResponse struct {
	Items []BatchSearchItem `json:"items"`
}

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Query     string `json:"query" validate:"required"`
	TopK      *int   `json:"top_k,omitempty" validate:"omitempty,min=1"`
	Role      string `json:"role,omitempty" validate:"max=200"`
	MaxTokens int    `json:"max_tokens,omitempty" validate:"omitempty,min=1,max=4096"`
	Category  string `json:"category,omitempty" validate:"max=128"`
	Source    string `json:"source,omitempty" validate:"max=128"`
}

// Citation is a source question with its relevance.
type Citation struct {
	Question          string `json:"question"`
	SimilarityPercent int    `json:"similarity_percent"`
}

// AskResponse is the body of POST /ask.
type AskResponse struct {
	Query   string     `json:"query"`
	Answer  string     `json:"answer"`
	Sources []Citation `json:"sources"`
	Error   string     `json:"error,omitempty"`
}

// CategoriesResponse is the body of GET /categories.
type CategoriesResponse struct {
	Count      int      `json:"count"`
	Categories []string `json:"categories"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string            `json:"status"`
	Collection string            `json:"collection"`
	Documents  int               `json:"documents"`
	Checks     map[string]string `json:"checks"`
}

// RootResponse is the body of GET /.
type RootResponse struct {
	Message   string   `json:"message"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

func searchResultToDTO(r result.Result) SearchResultItem {
	return SearchResultItem{
		Question: r.Question(),
		Answer:   r.Answer(),
		Category: r.Category(),
		Source:   r.Source(),
		Distance: roundDistance(r.Distance()),
	}
}

func searchResponseToDTO(query string, results []result.Result) SearchResponse {
	resp := result.NewResponse(query, results)
	items := make([]SearchResultItem, resp.Count())
	for i, r := range resp.Results() {
		items[i] = searchResultToDTO(r)
	}
	return SearchResponse{Query: resp.Query(), Count: resp.Count(), Results: items}
}

func batchItemToDTO(it batchuc.Item) BatchSearchItem {
	out := BatchSearchItem{SearchResponse: searchResponseToDTO(it.Query, it.Results)}
	if it.Err != nil {
		out.Error = safeDomainMessage(it.Err)
	}
	return out
}

func envelopeToDTO(e domanswer.Envelope) AskResponse {
	sources := make([]Citation, len(e.Sources()))
	for i, c := range e.Sources() {
		sources[i] = Citation{Question: c.Question(), SimilarityPercent: c.SimilarityPercent()}
	}
	return AskResponse{Query: e.Query(), Answer: e.Text(), Sources: sources, Error: e.Err()}
}

func healthToDTO(r healthuc.Report) HealthResponse {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return HealthResponse{
		Status:     string(r.Status),
		Collection: r.Collection,
		Documents:  r.Documents,
		Checks:     checks,
	}
}

// roundDistance keeps three decimals for the wire.
func roundDistance(d float64) float64 {
	return math.Round(d*1000) / 1000
}
