package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval Prometheus metrics.
var (
	RetrievalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_total",
			Help:      "Retrievals by winning strategy and final stage",
		},
		[]string{"strategy", "stage"}, // strategy: rule|embedding|none, stage: resolved|failed
	)

	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "End-to-end retrieval duration in seconds",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"strategy"},
	)

	RuleHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_hits_total",
			Help:      "Shortcut rule hits by rule name",
		},
		[]string{"rule"},
	)

	RetrievalCorpusSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_corpus_documents",
			Help:      "Number of documents scored per embedding retrieval",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2048},
		},
	)
)

var registerRetrievalOnce sync.Once

// RegisterRetrievalMetrics registers retrieval metrics. Safe to call more than once.
func RegisterRetrievalMetrics() {
	registerRetrievalOnce.Do(func() {
		prometheus.MustRegister(RetrievalsTotal)
		prometheus.MustRegister(RetrievalDuration)
		prometheus.MustRegister(RuleHitsTotal)
		prometheus.MustRegister(RetrievalCorpusSize)
	})
}
