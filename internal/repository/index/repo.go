package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/faqdex/internal/db"
	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/faq"
	"github.com/kailas-cloud/faqdex/internal/domain/search/filter"
	"github.com/kailas-cloud/faqdex/internal/domain/search/result"
)

// Stored field names.
const (
	fieldQuestion = "question"
	fieldID       = "id"
)

var returnFields = []string{
	fieldQuestion, result.MetaAnswer, result.MetaCategory, result.MetaSource,
}

// store is the consumer interface for the similarity index (ISP).
type store interface {
	EnsureIndex(ctx context.Context, def *db.IndexDefinition) (bool, error)
	UpsertPoints(ctx context.Context, index string, points []db.Point) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	Count(ctx context.Context, index, prefix string) (int, error)
	TagValues(ctx context.Context, index, prefix, field string) ([]string, error)
}

// Config names the index and shapes its vector field.
type Config struct {
	Name        string
	KeyPrefix   string
	Dimensions  int
	M           int
	EFConstruct int
}

// Repo is the FAQ similarity index: text in, nearest entries out.
// Questions are embedded and matched; answers travel as metadata.
type Repo struct {
	store    store
	embedder domain.Embedder
	queries  domain.Embedder
	cfg      Config
}

// New creates an index repository. embedder vectorizes both stored questions and queries
// unless WithQueryEmbedder overrides the latter.
func New(s store, embedder domain.Embedder, cfg Config) *Repo {
	return &Repo{store: s, embedder: embedder, queries: embedder, cfg: cfg}
}

// WithQueryEmbedder sets a separate embedder for incoming queries.
func (r *Repo) WithQueryEmbedder(e domain.Embedder) *Repo {
	if e != nil {
		r.queries = e
	}
	return r
}

// Name returns the index (collection) name.
func (r *Repo) Name() string { return r.cfg.Name }

// Definition returns the index schema: exact-match tags for filtering and one cosine vector field.
func (r *Repo) Definition() (*db.IndexDefinition, error) {
	def, err := db.NewIndex(r.cfg.Name).
		Prefix(r.cfg.KeyPrefix).
		Tags(result.MetaCategory, result.MetaSource).
		Vector(db.VectorField, db.VectorAlias, db.VectorSpec{
			Dim:         r.cfg.Dimensions,
			Distance:    db.DistanceCosine,
			M:           r.cfg.M,
			EFConstruct: r.cfg.EFConstruct,
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("index definition: %w", err)
	}
	return def, nil
}

// EnsureIndex creates the index if missing and reports whether it did.
func (r *Repo) EnsureIndex(ctx context.Context) (bool, error) {
	def, err := r.Definition()
	if err != nil {
		return false, err
	}
	created, err := r.store.EnsureIndex(ctx, def)
	if err != nil {
		return false, fmt.Errorf("ensure index %s: %w", r.cfg.Name, err)
	}
	return created, nil
}

// Upsert embeds the entry's question and stores it with its metadata.
func (r *Repo) Upsert(ctx context.Context, e faq.Entry) error {
	emb, err := r.embedder.Embed(ctx, e.Question())
	if err != nil {
		return fmt.Errorf("embed %s: %w", e.ID(), err)
	}
	if r.cfg.Dimensions > 0 && len(emb.Embedding) != r.cfg.Dimensions {
		return fmt.Errorf("embed %s: got %d dimensions, index expects %d",
			e.ID(), len(emb.Embedding), r.cfg.Dimensions)
	}

	point := db.Point{
		Key:    r.cfg.KeyPrefix + e.ID(),
		Vector: emb.Embedding,
		Fields: map[string]string{
			fieldID:             e.ID(),
			fieldQuestion:       e.Question(),
			result.MetaAnswer:   e.Answer(),
			result.MetaCategory: e.Category(),
			result.MetaSource:   e.Source(),
		},
	}
	if err := r.store.UpsertPoints(ctx, r.cfg.Name, []db.Point{point}); err != nil {
		return fmt.Errorf("upsert %s: %w", e.ID(), err)
	}
	return nil
}

// Query returns up to n nearest entries to text, ordered by ascending cosine distance.
// A missing index yields empty candidates.
func (r *Repo) Query(ctx context.Context, text string, n int, f *filter.Expression) (result.Candidates, error) {
	emb, err := r.queries.Embed(ctx, text)
	if err != nil {
		return result.Candidates{}, fmt.Errorf("embed query: %w", err)
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.cfg.Name,
		Filters:      f,
		Vector:       emb.Embedding,
		K:            n,
		ReturnFields: returnFields,
		RawScores:    true,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return result.Candidates{}, nil
		}
		return result.Candidates{}, fmt.Errorf("search %s: %w", r.cfg.Name, err)
	}

	return toCandidates(sr), nil
}

// Count returns the number of stored entries; a missing index counts as empty.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.Count(ctx, r.cfg.Name, r.cfg.KeyPrefix)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("count %s: %w", r.cfg.Name, err)
	}
	return n, nil
}

// Categories returns the sorted distinct category labels.
func (r *Repo) Categories(ctx context.Context) ([]string, error) {
	values, err := r.store.TagValues(ctx, r.cfg.Name, r.cfg.KeyPrefix, result.MetaCategory)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("categories %s: %w", r.cfg.Name, err)
	}
	return values, nil
}

func toCandidates(sr *db.SearchResult) result.Candidates {
	if sr == nil || len(sr.Entries) == 0 {
		return result.Candidates{}
	}

	c := result.Candidates{
		Documents: make([]string, 0, len(sr.Entries)),
		Metadatas: make([]map[string]string, 0, len(sr.Entries)),
		Distances: make([]float64, 0, len(sr.Entries)),
	}
	for _, e := range sr.Entries {
		meta := make(map[string]string, 3)
		for _, k := range []string{result.MetaAnswer, result.MetaCategory, result.MetaSource} {
			if v, ok := e.Fields[k]; ok {
				meta[k] = v
			}
		}
		c.Documents = append(c.Documents, e.Fields[fieldQuestion])
		c.Metadatas = append(c.Metadatas, meta)
		c.Distances = append(c.Distances, e.Score)
	}
	return c
}
