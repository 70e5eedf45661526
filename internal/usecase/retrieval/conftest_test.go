package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/kailas-cloud/faqdex/internal/domain/search/filter"
	"github.com/kailas-cloud/faqdex/internal/domain/search/result"
)

// mockIndex returns canned candidates and records calls.
type mockIndex struct {
	cands      result.Candidates
	count      int
	queryErr   error
	countErr   error
	categories []string

	queryCalls int
	countCalls int
	lastN      int
	lastFilter *filter.Expression
}

func (m *mockIndex) Query(_ context.Context, _ string, n int, f *filter.Expression) (result.Candidates, error) {
	m.queryCalls++
	m.lastN = n
	m.lastFilter = f
	return m.cands, m.queryErr
}

func (m *mockIndex) Count(_ context.Context) (int, error) {
	m.countCalls++
	return m.count, m.countErr
}

func (m *mockIndex) Categories(_ context.Context) ([]string, error) {
	return m.categories, m.countErr
}

type memEntry struct {
	question string
	fields   map[string]string
}

// memIndex is an in-memory index ranking by word overlap with the question.
type memIndex struct {
	entries []memEntry
}

func (m *memIndex) add(question, answer, category, source string) {
	m.entries = append(m.entries, memEntry{
		question: question,
		fields: map[string]string{
			result.MetaAnswer: answer, result.MetaCategory: category, result.MetaSource: source,
		},
	})
}

func (m *memIndex) Query(_ context.Context, text string, n int, f *filter.Expression) (result.Candidates, error) {
	type scored struct {
		e memEntry
		d float64
	}
	var hits []scored
	for _, e := range m.entries {
		if f != nil && !f.Matches(e.fields) {
			continue
		}
		hits = append(hits, scored{e, overlapDistance(text, e.question)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].d < hits[j].d })
	if len(hits) > n {
		hits = hits[:n]
	}

	var c result.Candidates
	for _, h := range hits {
		c.Documents = append(c.Documents, h.e.question)
		c.Metadatas = append(c.Metadatas, h.e.fields)
		c.Distances = append(c.Distances, h.d)
	}
	return c, nil
}

func (m *memIndex) Count(_ context.Context) (int, error) { return len(m.entries), nil }

func (m *memIndex) Categories(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, e := range m.entries {
		if c := e.fields[result.MetaCategory]; !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out, nil
}

// overlapDistance is 1 - Jaccard similarity of lower-cased word sets.
func overlapDistance(a, b string) float64 {
	wa, wb := words(a), words(b)
	inter := 0
	for w := range wa {
		if wb[w] {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	if union == 0 {
		return 1
	}
	return 1 - float64(inter)/float64(union)
}

func words(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(strings.Trim(s, "?!."))) {
		out[strings.Trim(w, "?!.,")] = true
	}
	return out
}
