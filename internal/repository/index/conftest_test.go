package index

import (
	"context"
	"testing"

	"github.com/kailas-cloud/faqdex/internal/db"
	"github.com/kailas-cloud/faqdex/internal/domain"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	ensureIndexFn  func(ctx context.Context, def *db.IndexDefinition) (bool, error)
	upsertPointsFn func(ctx context.Context, index string, points []db.Point) error
	searchKNNFn    func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	countFn        func(ctx context.Context, index, prefix string) (int, error)
	tagValuesFn    func(ctx context.Context, index, prefix, field string) ([]string, error)
}

func (m *mockStore) EnsureIndex(ctx context.Context, def *db.IndexDefinition) (bool, error) {
	if m.ensureIndexFn != nil {
		return m.ensureIndexFn(ctx, def)
	}
	return true, nil
}

func (m *mockStore) UpsertPoints(ctx context.Context, index string, points []db.Point) error {
	if m.upsertPointsFn != nil {
		return m.upsertPointsFn(ctx, index, points)
	}
	return nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) Count(ctx context.Context, index, prefix string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, index, prefix)
	}
	return 0, nil
}

func (m *mockStore) TagValues(ctx context.Context, index, prefix, field string) ([]string, error) {
	if m.tagValuesFn != nil {
		return m.tagValuesFn(ctx, index, prefix, field)
	}
	return nil, nil
}

type mockEmbedder struct {
	vector []float32
	err    error
	texts  []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vector}, nil
}

func testConfig() Config {
	return Config{Name: "faq", KeyPrefix: "faq:doc:", Dimensions: 4, M: 16, EFConstruct: 200}
}

func newTestRepo(t *testing.T) (*Repo, *mockStore, *mockEmbedder) {
	t.Helper()
	ms := &mockStore{}
	me := &mockEmbedder{vector: []float32{0.1, 0.2, 0.3, 0.4}}
	return New(ms, me, testConfig()), ms, me
}
