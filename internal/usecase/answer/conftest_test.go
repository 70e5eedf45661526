package answer

import (
	"context"
	"time"

	"github.com/kailas-cloud/faqdex/internal/domain/search/result"
	"github.com/kailas-cloud/faqdex/internal/usecase/retrieval"
)

type completeCall struct {
	system    string
	user      string
	maxTokens int
	deadline  time.Time
}

type mockCompleter struct {
	configured bool
	text       string
	err        error
	panicWith  any
	calls      []completeCall
}

func (m *mockCompleter) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	dl, _ := ctx.Deadline()
	m.calls = append(m.calls, completeCall{system: system, user: user, maxTokens: maxTokens, deadline: dl})
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	return m.text, m.err
}

func (m *mockCompleter) Configured() bool { return m.configured }

type mockRetriever struct {
	results []result.Result
	err     error
	calls   int
}

func (m *mockRetriever) Search(_ context.Context, _ string, _ int, _ retrieval.SearchOptions) ([]result.Result, error) {
	m.calls++
	return m.results, m.err
}
