package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/search/result"
)

func meta(answer, category, source string) map[string]string {
	m := map[string]string{}
	if answer != "" {
		m[result.MetaAnswer] = answer
	}
	if category != "" {
		m[result.MetaCategory] = category
	}
	if source != "" {
		m[result.MetaSource] = source
	}
	return m
}

func TestSearch_Validation(t *testing.T) {
	idx := &mockIndex{count: 10}
	s := New(idx, zap.NewNop())

	tests := []struct {
		name  string
		query string
		topK  int
	}{
		{"empty query", "", 3},
		{"whitespace query", "   \t", 3},
		{"zero topK", "hello", 0},
		{"negative topK", "hello", -1},
		{"topK above max", "hello", 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Search(context.Background(), tt.query, tt.topK, SearchOptions{})
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
	if idx.queryCalls != 0 || idx.countCalls != 0 {
		t.Errorf("index must not be called on invalid input (query=%d count=%d)", idx.queryCalls, idx.countCalls)
	}
}

func TestSearch_InvalidFilterValue(t *testing.T) {
	idx := &mockIndex{count: 10}
	_, err := New(idx, zap.NewNop()).Search(context.Background(), "q", 3, SearchOptions{Category: "bad\x00value"})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if idx.countCalls != 0 {
		t.Error("index must not be called")
	}
}

func TestSearch_NoIndex(t *testing.T) {
	_, err := New(nil, zap.NewNop()).Search(context.Background(), "q", 3, SearchOptions{})
	if !errors.Is(err, domain.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestSearch_TypedNilIndex(t *testing.T) {
	var idx *mockIndex
	svc := New(idx, zap.NewNop())

	if _, err := svc.Search(context.Background(), "q", 3, SearchOptions{}); !errors.Is(err, domain.ErrNotInitialized) {
		t.Fatalf("Search: expected ErrNotInitialized, got %v", err)
	}
	if _, err := svc.Count(context.Background()); !errors.Is(err, domain.ErrNotInitialized) {
		t.Fatalf("Count: expected ErrNotInitialized, got %v", err)
	}
}

func TestSearch_UninitializedDependencySurfaces(t *testing.T) {
	notReady := fmt.Errorf("embed query: %w", domain.ErrNotInitialized)
	for _, idx := range []*mockIndex{
		{count: 3, queryErr: notReady},
		{countErr: notReady},
	} {
		results, err := New(idx, zap.NewNop()).Search(context.Background(), "q", 3, SearchOptions{})
		if !errors.Is(err, domain.ErrNotInitialized) {
			t.Fatalf("expected ErrNotInitialized, got %v", err)
		}
		if results != nil {
			t.Errorf("expected nil results, got %v", results)
		}
	}
}

func TestSearch_SkipsMalformedCandidate(t *testing.T) {
	idx := &mockIndex{
		count: 5,
		cands: result.Candidates{
			Documents: []string{"q1", "q2", "q3", "q4", "q5"},
			Metadatas: []map[string]string{
				meta("a1", "Konto", "web"),
				meta("a2", "", ""),
				meta("", "Konto", "web"), // missing answer
				meta("a4", "Versand", "web"),
				meta("a5", "Zahlung", ""),
			},
			Distances: []float64{0.1, 0.2, 0.3, 0.4, 0.5},
		},
	}

	results, err := New(idx, zap.NewNop()).Search(context.Background(), "query", 5, SearchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	wantOrder := []string{"q1", "q2", "q4", "q5"}
	for i, r := range results {
		if r.Question() != wantOrder[i] {
			t.Errorf("results[%d] = %q, want %q", i, r.Question(), wantOrder[i])
		}
		if r.Distance() < 0 {
			t.Errorf("negative distance %v", r.Distance())
		}
	}
	if results[1].Category() != "unknown" || results[1].Source() != "unknown" {
		t.Errorf("expected unknown defaults, got %q/%q", results[1].Category(), results[1].Source())
	}
}

func TestSearch_MismatchedSequences(t *testing.T) {
	idx := &mockIndex{
		count: 3,
		cands: result.Candidates{
			Documents: []string{"q1", "q2", "q3"},
			Metadatas: []map[string]string{meta("a1", "", ""), meta("a2", "", "")},
			Distances: []float64{0.1, 0.2, math.NaN()},
		},
	}
	results, err := New(idx, zap.NewNop()).Search(context.Background(), "query", 3, SearchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestSearch_NaNDistanceSkipped(t *testing.T) {
	idx := &mockIndex{
		count: 2,
		cands: result.Candidates{
			Documents: []string{"q1", "q2"},
			Metadatas: []map[string]string{meta("a1", "", ""), meta("a2", "", "")},
			Distances: []float64{math.NaN(), -0.000001},
		},
	}
	results, _ := New(idx, zap.NewNop()).Search(context.Background(), "query", 2, SearchOptions{})
	if len(results) != 1 || results[0].Question() != "q2" {
		t.Fatalf("unexpected results %v", results)
	}
	if results[0].Distance() != 0 {
		t.Errorf("noise distance should clamp to 0, got %v", results[0].Distance())
	}
}

func TestSearch_ClampsToIndexSize(t *testing.T) {
	idx := &mockIndex{count: 2}
	if _, err := New(idx, zap.NewNop()).Search(context.Background(), "q", 5, SearchOptions{}); err != nil {
		t.Fatal(err)
	}
	if idx.lastN != 2 {
		t.Errorf("expected n clamped to 2, got %d", idx.lastN)
	}
}

func TestSearch_EmptyIndexSkipsQuery(t *testing.T) {
	idx := &mockIndex{count: 0}
	results, err := New(idx, zap.NewNop()).Search(context.Background(), "q", 3, SearchOptions{})
	if err != nil || len(results) != 0 || results == nil {
		t.Fatalf("got %v, %v", results, err)
	}
	if idx.queryCalls != 0 {
		t.Error("query must not run on an empty index")
	}
}

func TestSearch_IndexFailureDegradesToEmpty(t *testing.T) {
	for _, idx := range []*mockIndex{
		{count: 3, queryErr: errors.New("connection refused")},
		{countErr: errors.New("connection refused")},
	} {
		results, err := New(idx, zap.NewNop()).Search(context.Background(), "q", 3, SearchOptions{})
		if err != nil {
			t.Fatalf("index failure must not surface as error: %v", err)
		}
		if results == nil || len(results) != 0 {
			t.Fatalf("expected empty non-nil results, got %v", results)
		}
	}
}

func TestSearch_PassesFilter(t *testing.T) {
	idx := &mockIndex{count: 3}
	s := New(idx, zap.NewNop())

	if _, err := s.Search(context.Background(), "q", 3, SearchOptions{}); err != nil {
		t.Fatal(err)
	}
	if idx.lastFilter != nil {
		t.Error("expected no filter")
	}

	if _, err := s.Search(context.Background(), "q", 3, SearchOptions{Category: "Konto", Source: "web"}); err != nil {
		t.Fatal(err)
	}
	if idx.lastFilter == nil || len(idx.lastFilter.Must()) != 2 {
		t.Fatalf("expected two-condition filter, got %+v", idx.lastFilter)
	}
}

func TestSearch_PasswordRoundTrip(t *testing.T) {
	idx := &memIndex{}
	idx.add("Wie ändere ich mein Passwort?", "Unter Einstellungen > Sicherheit.", "Konto", "faq")
	idx.add("Wie lange dauert der Versand?", "2-3 Werktage.", "Versand", "faq")
	idx.add("Welche Zahlungsmethoden gibt es?", "Kreditkarte und PayPal.", "Zahlung", "faq")

	s := New(idx, zap.NewNop())
	results, err := s.Search(context.Background(), "Wie ändere ich mein Passwort", 1, SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Category() != "Konto" {
		t.Fatalf("expected Konto entry, got %+v", results)
	}

	filtered, err := s.Search(context.Background(), "Wie ändere ich mein Passwort", 3, SearchOptions{Category: "Versand"})
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 1 || filtered[0].Category() != "Versand" {
		t.Fatalf("filter must restrict results, got %+v", filtered)
	}
}

func TestRespond_CountMatchesResults(t *testing.T) {
	idx := &memIndex{}
	idx.add("a b", "x", "c", "s")
	idx.add("c d", "y", "c", "s")

	resp, err := New(idx, zap.NewNop()).Respond(context.Background(), "a", 3, SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Count() != len(resp.Results()) || resp.Count() != 2 {
		t.Errorf("count=%d len=%d", resp.Count(), len(resp.Results()))
	}
	if resp.Query() != "a" {
		t.Errorf("query = %q", resp.Query())
	}
}

func TestCategoriesAndCount(t *testing.T) {
	idx := &mockIndex{count: 4, categories: []string{"Konto", "Versand"}}
	s := New(idx, zap.NewNop())

	n, err := s.Count(context.Background())
	if err != nil || n != 4 {
		t.Fatalf("Count = %d, %v", n, err)
	}
	cats, err := s.Categories(context.Background())
	if err != nil || len(cats) != 2 {
		t.Fatalf("Categories = %v, %v", cats, err)
	}

	idx.countErr = errors.New("down")
	if _, err := s.Count(context.Background()); !errors.Is(err, domain.ErrIndexQueryFailed) {
		t.Errorf("expected ErrIndexQueryFailed, got %v", err)
	}

	if _, err := New(nil, zap.NewNop()).Categories(context.Background()); !errors.Is(err, domain.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestWithMaxTopK(t *testing.T) {
	s := New(&mockIndex{count: 50}, zap.NewNop()).WithMaxTopK(20)
	if err := s.Validate("q", 20); err != nil {
		t.Errorf("topK 20 should be allowed: %v", err)
	}
	if s.MaxTopK() != 20 {
		t.Errorf("MaxTopK() = %d", s.MaxTopK())
	}
	s.WithMaxTopK(0)
	if s.MaxTopK() != 20 {
		t.Error("non-positive max must be ignored")
	}
}
