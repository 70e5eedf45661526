package result

import "github.com/kailas-cloud/faqdex/internal/domain/faq"

// Result is a single retrieved FAQ entry.
type Result struct {
	question string
	answer   string
	category string
	source   string
	distance float64
}

// New creates a retrieval result. Blank category and source become faq.Unknown,
// negative distances are clamped to zero.
func New(question, answer, category, source string, distance float64) Result {
	if category == "" {
		category = faq.Unknown
	}
	if source == "" {
		source = faq.Unknown
	}
	return Result{
		question: question, answer: answer,
		category: category, source: source,
		distance: max(0, distance),
	}
}

// Question returns the matched question.
func (r Result) Question() string { return r.question }

// Answer returns the stored answer.
func (r Result) Answer() string { return r.answer }

// Category returns the category label.
func (r Result) Category() string { return r.category }

// Source returns the provenance label.
func (r Result) Source() string { return r.source }

// Distance returns the index distance; smaller is more similar.
func (r Result) Distance() float64 { return r.distance }

// Response is the search payload echoed to callers.
type Response struct {
	query   string
	results []Result
}

// NewResponse wraps results for query.
func NewResponse(query string, results []Result) Response {
	if results == nil {
		results = []Result{}
	}
	return Response{query: query, results: results}
}

// Query returns the echoed query.
func (r Response) Query() string { return r.query }

// Count returns the number of results.
func (r Response) Count() int { return len(r.results) }

// Results returns the ordered results, most similar first.
func (r Response) Results() []Result { return r.results }
