package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the query pipeline.
type Metrics struct {
	QueriesTotal      *prometheus.CounterVec
	QueryDuration     *prometheus.HistogramVec
	TokensUsed        *prometheus.CounterVec
	RetrievalFailures *prometheus.CounterVec
	Contradictions    *prometheus.CounterVec
}

// New registers and returns pipeline metrics on the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests use a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finvault",
			Name:      "queries_total",
			Help:      "Total queries answered, by retrieval mode and reasoning tier.",
		}, []string{"mode", "tier"}),

		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "finvault",
			Name:      "query_duration_seconds",
			Help:      "End-to-end query latency.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 180},
		}, []string{"tier"}),

		TokensUsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finvault",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed, by tier.",
		}, []string{"tier"}),

		RetrievalFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finvault",
			Name:      "retrieval_failures_total",
			Help:      "Degraded retrieval stages, by evidence source.",
		}, []string{"source"}),

		Contradictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finvault",
			Name:      "contradiction_checks_total",
			Help:      "Contradiction detector outcomes.",
		}, []string{"verdict"}),
	}
}
