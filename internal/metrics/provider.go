package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "faqdex"

// Provider call kinds.
const (
	KindEmbedding  = "embedding"
	KindCompletion = "completion"
)

// Provider call outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeEmpty = "empty_response"
)

// Metrics for calls to embedding and text completion providers.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Provider calls by kind and outcome",
		},
		[]string{"kind", "provider", "model", "outcome"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Provider call latency in seconds, successful calls only",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30},
		},
		[]string{"kind", "provider", "model"},
	)

	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_tokens_total",
			Help:      "Tokens reported by providers",
		},
		[]string{"kind", "provider", "model", "type"}, // "prompt" / "completion"
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache lookups by outcome",
		},
		[]string{"result"}, // "hit" / "miss" / "stale"
	)
)

// ProviderCall labels one provider request for metrics.
type ProviderCall struct {
	Kind     string
	Provider string
	Model    string
	start    time.Time
}

// StartProviderCall begins timing a provider request.
func StartProviderCall(kind, provider, model string) ProviderCall {
	return ProviderCall{Kind: kind, Provider: provider, Model: model, start: time.Now()}
}

// Done counts the call under outcome. Latency is observed for OutcomeOK only.
func (c ProviderCall) Done(outcome string) {
	ProviderRequestsTotal.WithLabelValues(c.Kind, c.Provider, c.Model, outcome).Inc()
	if outcome == OutcomeOK {
		ProviderRequestDuration.WithLabelValues(c.Kind, c.Provider, c.Model).Observe(time.Since(c.start).Seconds())
	}
}

// Tokens adds provider-reported token usage. Zero counts are skipped.
func (c ProviderCall) Tokens(prompt, completion int) {
	if prompt > 0 {
		ProviderTokensTotal.WithLabelValues(c.Kind, c.Provider, c.Model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		ProviderTokensTotal.WithLabelValues(c.Kind, c.Provider, c.Model, "completion").Add(float64(completion))
	}
}

var registerProviders sync.Once

// RegisterProviderMetrics registers provider and cache metrics with the default registry.
// Safe to call more than once.
func RegisterProviderMetrics() {
	registerProviders.Do(func() {
		prometheus.MustRegister(ProviderRequestsTotal, ProviderRequestDuration, ProviderTokensTotal, EmbeddingCacheTotal)
	})
}
