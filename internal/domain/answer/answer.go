package answer

import "math"

// NoInformation is the fixed answer returned when retrieval found nothing.
const NoInformation = "No relevant information found in the FAQ database."

// Citation is a source question paired with its relevance.
type Citation struct {
	question          string
	similarityPercent int
}

// NewCitation creates a citation from a result distance.
func NewCitation(question string, distance float64) Citation {
	return Citation{question: question, similarityPercent: SimilarityPercent(distance)}
}

// Question returns the cited question.
func (c Citation) Question() string { return c.question }

// SimilarityPercent returns the relevance in percent, 0..100.
func (c Citation) SimilarityPercent() int { return c.similarityPercent }

// SimilarityPercent converts a distance into max(0, round((1-d)*100)).
// Distances above 1 occur for dissimilar vectors.
func SimilarityPercent(distance float64) int {
	if math.IsNaN(distance) {
		return 0
	}
	return int(max(0, math.Round((1-distance)*100)))
}

// Envelope is the outcome of the answer pipeline.
// A populated Err means Text is an explanation, not a generated answer.
type Envelope struct {
	query   string
	text    string
	sources []Citation
	err     string
}

// NewAnswered wraps a generated answer.
func NewAnswered(query, text string, sources []Citation) Envelope {
	return Envelope{query: query, text: text, sources: nonNil(sources)}
}

// NewEmpty is the short-circuit envelope for zero retrieved results.
func NewEmpty(query string) Envelope {
	return Envelope{query: query, text: NoInformation, sources: []Citation{}}
}

// NewFailed wraps a pipeline failure. Sources computed before the failure are kept.
func NewFailed(query, explanation string, err error, sources []Citation) Envelope {
	msg := explanation
	if err != nil {
		msg = err.Error()
	}
	return Envelope{query: query, text: explanation, sources: nonNil(sources), err: msg}
}

// Query returns the echoed query.
func (e Envelope) Query() string { return e.query }

// Text returns the answer or the failure explanation.
func (e Envelope) Text() string { return e.text }

// Sources returns the citations in retrieval order.
func (e Envelope) Sources() []Citation { return e.sources }

// Err returns the failure description, empty on success.
func (e Envelope) Err() string { return e.err }

// Failed reports whether the envelope carries an error.
func (e Envelope) Failed() bool { return e.err != "" }

func nonNil(c []Citation) []Citation {
	if c == nil {
		return []Citation{}
	}
	return c
}
