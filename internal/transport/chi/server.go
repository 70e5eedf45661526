package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/logger"
	"github.com/kailas-cloud/faqdex/internal/version"
	answeruc "github.com/kailas-cloud/faqdex/internal/usecase/answer"
	batchuc "github.com/kailas-cloud/faqdex/internal/usecase/batch"
	healthuc "github.com/kailas-cloud/faqdex/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/faqdex/internal/usecase/retrieval"
)

// DefaultTopK is used when a request omits top_k.
const DefaultTopK = 3

const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the FAQ search and answer API.
type Server struct {
	retrieval     *retrievaluc.Service
	answers       *answeruc.Pipeline
	batch         *batchuc.Service
	health        *healthuc.Service
	defaultTopK   int
	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	retrieval *retrievaluc.Service,
	answers *answeruc.Pipeline,
	batch *batchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		retrieval:   retrieval,
		answers:     answers,
		batch:       batch,
		health:      health,
		defaultTopK: DefaultTopK,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrNotInitialized, http.StatusServiceUnavailable, ErrorCodeServiceUnavailable),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
	}
	return s
}

// WithDefaultTopK sets the top_k used when a request omits it.
func (s *Server) WithDefaultTopK(n int) *Server {
	if n > 0 {
		s.defaultTopK = n
	}
	return s
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Message: "FAQ Search API Alive",
		Version: version.Version,
		Endpoints: []string{
			"GET /health", "GET /categories", "GET /search",
			"POST /search/batch", "POST /ask", "GET /metrics",
		},
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Degraded {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthToDTO(report))
}

// Categories handles GET /categories.
func (s *Server) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.retrieval.Categories(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if len(cats) == 0 {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "No documents found in the collection.")
		return
	}
	writeJSON(w, http.StatusOK, CategoriesResponse{Count: len(cats), Categories: cats})
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	topK := s.defaultTopK
	if err := runtime.BindQueryParameter("form", true, false, "top_k", params, &topK); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "top_k must be an integer")
		return
	}

	query := params.Get("query")
	opts := retrievaluc.SearchOptions{Category: params.Get("category"), Source: params.Get("source")}

	if err := s.retrieval.Validate(query, topK); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if msg := s.unknownCategory(r, opts.Category); msg != "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, msg)
		return
	}

	results, err := s.retrieval.Search(r.Context(), query, topK, opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponseToDTO(query, results))
}

// SearchBatch handles POST /search/batch.
func (s *Server) SearchBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchSearchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	topK := s.defaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}
	if topK > s.retrieval.MaxTopK() {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			fmt.Sprintf("top_k must be between 1 and %d", s.retrieval.MaxTopK()))
		return
	}

	items, err := s.batch.SearchAll(r.Context(), req.Queries, topK,
		retrievaluc.SearchOptions{Category: req.Category, Source: req.Source})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := BatchSearchResponse{Items: make([]BatchSearchItem, len(items))}
	for i, it := range items {
		resp.Items[i] = batchItemToDTO(it)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Ask handles POST /ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	topK := s.defaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	env, err := s.answers.Ask(r.Context(), req.Query, topK,
		answeruc.AskOptions{Role: req.Role, MaxTokens: req.MaxTokens},
		retrievaluc.SearchOptions{Category: req.Category, Source: req.Source},
	)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelopeToDTO(env))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// unknownCategory returns a client message when category is set but not indexed.
// A failed lookup skips the check; the search itself degrades on index errors.
func (s *Server) unknownCategory(r *http.Request, category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return ""
	}
	valid, err := s.retrieval.Categories(r.Context())
	if err != nil {
		logger.FromContextOr(r.Context(), s.logger).Warn("Category lookup failed", zap.Error(err))
		return ""
	}
	if slices.Contains(valid, category) {
		return ""
	}
	return "Invalid category. Please select from the following categories: " + strings.Join(valid, ", ")
}

// decodeBody parses and validates a JSON body. It writes the error response and returns false on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Code:    ErrorCodeValidationFailed,
				Message: "request validation failed",
				Fields:  validationFields(verrs),
			})
			return false
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return false
	}
	return true
}

func validationFields(errs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(errs))
	for _, e := range errs {
		name := e.Field()
		switch e.Tag() {
		case "required":
			fields[name] = name + " is required"
		case "min":
			fields[name] = fmt.Sprintf("%s must be at least %s", name, e.Param())
		case "max":
			fields[name] = fmt.Sprintf("%s must be at most %s", name, e.Param())
		default:
			fields[name] = fmt.Sprintf("%s failed on %q", name, e.Tag())
		}
	}
	return fields
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

// safeDomainMessage returns a client-safe message. Invalid-argument errors
// describe the caller's own input and are returned in full.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidArgument) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNotInitialized,
		domain.ErrNotFound,
		domain.ErrIndexQueryFailed,
		domain.ErrCompletionUnavailable,
		domain.ErrCompletionFailed,
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

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
