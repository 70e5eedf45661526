package metrics

import "github.com/prometheus/client_golang/prometheus"

// EvalCollectors are the gauges an evaluation run pushes to a Pushgateway.
// They live on their own registry so a push never carries server metrics.
type EvalCollectors struct {
	Registry         *prometheus.Registry
	AvgSimilarity    prometheus.Gauge
	CategoryAccuracy prometheus.Gauge
	Queries          prometheus.Gauge
	QuerySimilarity  *prometheus.GaugeVec
}

// NewEvalCollectors creates and registers evaluation gauges on a fresh registry.
func NewEvalCollectors() *EvalCollectors {
	c := &EvalCollectors{
		Registry: prometheus.NewRegistry(),
		AvgSimilarity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "eval_avg_similarity",
			Help:      "Mean top-1 similarity over the evaluation queries (0..1)",
		}),
		CategoryAccuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "eval_category_accuracy",
			Help:      "Share of evaluation queries whose top-1 category matched (0..1)",
		}),
		Queries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "eval_queries",
			Help:      "Number of evaluation queries in the run",
		}),
		QuerySimilarity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "eval_query_similarity",
			Help:      "Top-1 similarity per evaluation query",
		}, []string{"query", "expected_category"}),
	}
	c.Registry.MustRegister(c.AvgSimilarity, c.CategoryAccuracy, c.Queries, c.QuerySimilarity)
	return c
}
