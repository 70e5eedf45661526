package db

import "github.com/kailas-cloud/faqdex/internal/domain/search/filter"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filters      *filter.Expression // nil means no pre-filter
	Vector       []float32
	K            int
	ReturnFields []string
	RawScores    bool // Score carries the cosine distance instead of similarity
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64 // NaN when the backend returned no usable score
	Fields map[string]string
}

const (
	// VectorScoreField is the pseudo-field carrying the KNN distance in FT.SEARCH replies.
	VectorScoreField = "__vector_score"
	// VectorField is the hash field holding the packed FLOAT32 vector.
	VectorField = "__vector"
	// VectorAlias is the schema alias queried by KNN clauses.
	VectorAlias = "vector"
)
