package evaluate

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/usecase/retrieval"
)

// Outcome is the top-1 evaluation of one case.
type Outcome struct {
	Case
	TopQuestion   string
	TopCategory   string
	Distance      float64
	Similarity    float64
	CategoryMatch bool
	Err           error
}

// Report summarizes an evaluation run.
type Report struct {
	Outcomes         []Outcome
	AvgSimilarity    float64
	CategoryAccuracy float64
}

// Service measures retrieval quality against labelled queries.
type Service struct {
	search Searcher
	logger *zap.Logger
}

// New creates an evaluation service.
func New(search Searcher, logger *zap.Logger) *Service {
	return &Service{search: search, logger: logger}
}

// Run searches every case for its top-1 hit.
// A case with no hit or a failed search counts as similarity 0 and no match.
func (s *Service) Run(ctx context.Context, cases []Case) Report {
	outcomes := make([]Outcome, 0, len(cases))
	var simSum float64
	matches := 0

	for _, c := range cases {
		o := Outcome{Case: c}
		results, err := s.search.Search(ctx, c.Query, 1, retrieval.SearchOptions{})
		switch {
		case err != nil:
			o.Err = err
		case len(results) > 0:
			top := results[0]
			o.TopQuestion = top.Question()
			o.TopCategory = top.Category()
			o.Distance = top.Distance()
			o.Similarity = max(0, 1-top.Distance())
			o.CategoryMatch = strings.EqualFold(top.Category(), c.ExpectedCategory)
		}

		simSum += o.Similarity
		if o.CategoryMatch {
			matches++
		}
		s.logger.Info("Evaluated query",
			zap.String("query", c.Query),
			zap.String("expected_category", c.ExpectedCategory),
			zap.String("top_category", o.TopCategory),
			zap.Float64("distance", o.Distance),
			zap.Float64("similarity", o.Similarity),
			zap.Bool("category_match", o.CategoryMatch),
			zap.Error(o.Err),
		)
		outcomes = append(outcomes, o)
	}

	r := Report{Outcomes: outcomes}
	if n := len(outcomes); n > 0 {
		r.AvgSimilarity = simSum / float64(n)
		r.CategoryAccuracy = float64(matches) / float64(n)
	}
	return r
}
