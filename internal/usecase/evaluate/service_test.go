package evaluate

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain/search/result"
	"github.com/kailas-cloud/faqdex/internal/usecase/retrieval"
)

type mockSearcher struct {
	byQuery map[string][]result.Result
	topKs   []int
}

func (m *mockSearcher) Search(_ context.Context, query string, topK int, _ retrieval.SearchOptions) ([]result.Result, error) {
	m.topKs = append(m.topKs, topK)
	if query == "broken" {
		return nil, errors.New("index down")
	}
	return m.byQuery[query], nil
}

func TestRun_Summary(t *testing.T) {
	m := &mockSearcher{byQuery: map[string][]result.Result{
		"Passwort vergessen": {result.New("Wie kann ich mein Passwort zurücksetzen?", "a", "konto", "faq", 0.2)},
		"Was kostet das?":    {result.New("Wie kündige ich?", "a", "abo", "faq", 0.4)},
	}}
	cases := []Case{
		{Query: "Passwort vergessen", ExpectedCategory: "Konto"},
		{Query: "Was kostet das?", ExpectedCategory: "preis"},
		{Query: "nothing", ExpectedCategory: "support"},
		{Query: "broken", ExpectedCategory: "support"},
	}

	r := New(m, zap.NewNop()).Run(context.Background(), cases)

	if len(r.Outcomes) != 4 {
		t.Fatalf("expected 4 outcomes, got %d", len(r.Outcomes))
	}
	for _, k := range m.topKs {
		if k != 1 {
			t.Errorf("expected top-1 searches, got topK %d", k)
		}
	}
	if !r.Outcomes[0].CategoryMatch || r.Outcomes[1].CategoryMatch {
		t.Errorf("matches = %v, %v", r.Outcomes[0].CategoryMatch, r.Outcomes[1].CategoryMatch)
	}
	if r.Outcomes[3].Err == nil || r.Outcomes[3].Similarity != 0 {
		t.Errorf("failed search outcome = %+v", r.Outcomes[3])
	}
	if math.Abs(r.AvgSimilarity-(0.8+0.6)/4) > 1e-9 {
		t.Errorf("AvgSimilarity = %v", r.AvgSimilarity)
	}
	if r.CategoryAccuracy != 0.25 {
		t.Errorf("CategoryAccuracy = %v", r.CategoryAccuracy)
	}
}

func TestRun_Empty(t *testing.T) {
	r := New(&mockSearcher{}, zap.NewNop()).Run(context.Background(), nil)
	if r.AvgSimilarity != 0 || r.CategoryAccuracy != 0 || len(r.Outcomes) != 0 {
		t.Errorf("report = %+v", r)
	}
}

func TestDecodeCases(t *testing.T) {
	cases, err := DecodeCases(strings.NewReader(`
queries:
  - query: Passwort vergessen
    expected_category: konto
  - query: Abo pausieren
    expected_category: abo
`))
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != 2 || cases[1].ExpectedCategory != "abo" {
		t.Errorf("cases = %+v", cases)
	}

	if _, err := DecodeCases(strings.NewReader("queries:\n  - query: x\n")); err == nil {
		t.Error("expected error for missing expected_category")
	}
}
