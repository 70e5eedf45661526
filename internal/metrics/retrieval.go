package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval pipeline metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total retrieval searches by outcome",
		},
		[]string{"outcome"}, // "ok" / "empty" / "index_error"
	)

	MalformedRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_records_total",
			Help:      "Index records skipped because required fields were missing",
		},
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answer envelopes by outcome",
		},
		[]string{"outcome"}, // "answered" / "empty" / "unavailable" / "failed"
	)
)

var registerRetrieval sync.Once

// RegisterRetrievalMetrics registers retrieval and answer metrics with the default registry.
func RegisterRetrievalMetrics() {
	registerRetrieval.Do(func() {
		prometheus.MustRegister(SearchesTotal, MalformedRecordsTotal, AnswersTotal)
	})
}
