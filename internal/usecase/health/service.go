package health

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Status is the aggregated health of the service.
type Status string

const (
	Healthy Status = "ok"
	// Empty means search works but the index holds nothing to find.
	Empty    Status = "warning — collection is empty"
	Degraded Status = "degraded"
)

// CheckResult is the outcome of one component check.
type CheckResult string

const (
	CheckOK           CheckResult = "ok"
	CheckError        CheckResult = "error"
	CheckUnconfigured CheckResult = "unconfigured"
)

// Component names used as Report.Checks keys.
const (
	ComponentDatabase   = "database"
	ComponentIndex      = "index"
	ComponentEmbedding  = "embedding"
	ComponentCompletion = "completion"
)

// Report aggregates health check results.
type Report struct {
	Status     Status
	Collection string
	Documents  int
	Checks     map[string]CheckResult
}

// Service probes the components the FAQ pipeline depends on.
type Service struct {
	db         DBPinger
	docs       DocumentCounter
	completion CompletionChecker
	embedding  EmbeddingChecker
	collection string
}

// New creates a Service. completion may be nil.
func New(db DBPinger, docs DocumentCounter, completion CompletionChecker, collection string) *Service {
	return &Service{db: db, docs: docs, completion: completion, collection: collection}
}

// WithEmbedding enables an active probe of the embedding provider.
func (s *Service) WithEmbedding(e EmbeddingChecker) *Service {
	s.embedding = e
	return s
}

// Check probes every component concurrently. A missing completion provider
// reports "unconfigured" without degrading the status; retrieval still works.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		checks = map[string]CheckResult{}
		docs   int
	)
	record := func(component string, err error) {
		mu.Lock()
		defer mu.Unlock()
		checks[component] = CheckOK
		if err != nil {
			checks[component] = CheckError
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		record(ComponentDatabase, s.db.Ping(ctx))
		return nil
	})
	g.Go(func() error {
		n, err := s.docs.Count(ctx)
		record(ComponentIndex, err)
		if err == nil {
			docs = n
		}
		return nil
	})
	if s.embedding != nil {
		g.Go(func() error {
			record(ComponentEmbedding, s.embedding.HealthCheck(ctx))
			return nil
		})
	}
	_ = g.Wait()

	checks[ComponentCompletion] = CheckUnconfigured
	if s.completion != nil && s.completion.Configured() {
		checks[ComponentCompletion] = CheckOK
	}

	return Report{
		Status:     aggregate(checks, docs),
		Collection: s.collection,
		Documents:  docs,
		Checks:     checks,
	}
}

func aggregate(checks map[string]CheckResult, docs int) Status {
	for _, r := range checks {
		if r == CheckError {
			return Degraded
		}
	}
	if docs == 0 {
		return Empty
	}
	return Healthy
}
