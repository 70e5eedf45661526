package answer

import (
	"context"

	domanswer "github.com/kailas-cloud/faqdex/internal/domain/answer"
	"github.com/kailas-cloud/faqdex/internal/usecase/retrieval"
)

// Pipeline runs retrieval followed by answer synthesis.
type Pipeline struct {
	retriever Retriever
	answers   *Service
}

// NewPipeline creates a Pipeline.
func NewPipeline(retriever Retriever, answers *Service) *Pipeline {
	return &Pipeline{retriever: retriever, answers: answers}
}

// Ask retrieves up to topK entries for query and answers from them.
// Only invalid input or a missing index is returned as an error.
func (p *Pipeline) Ask(
	ctx context.Context, query string, topK int, opts AskOptions, search retrieval.SearchOptions,
) (domanswer.Envelope, error) {
	results, err := p.retriever.Search(ctx, query, topK, search)
	if err != nil {
		return domanswer.Envelope{}, err
	}
	return p.answers.Ask(ctx, query, results, opts), nil
}
