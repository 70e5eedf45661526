package faqdex

import "context"

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer generates an answer from a system and a user prompt.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// Entry is a question/answer pair to index. A blank ID is derived from the question.
type Entry struct {
	ID       string
	Question string
	Answer   string
	Category string
	Source   string
}

// Result is a single retrieved FAQ entry, most similar first.
// Distance is the cosine distance; smaller is more similar.
type Result struct {
	Question string
	Answer   string
	Category string
	Source   string
	Distance float64
}

// SearchOptions narrows retrieval to exact category and source labels.
type SearchOptions struct {
	Category string
	Source   string
}

// AskOptions configures answer generation.
type AskOptions struct {
	SearchOptions
	// Role replaces the assistant persona in the system prompt.
	Role      string
	MaxTokens int
}

// Citation names a source question and its similarity in percent.
type Citation struct {
	Question          string
	SimilarityPercent int
}

// Answer is the outcome of Ask. A non-empty Error means Text explains the failure.
type Answer struct {
	Query   string
	Text    string
	Sources []Citation
	Error   string
}

// IngestResult reports the outcome for one entry.
type IngestResult struct {
	ID  string
	Err error
}
