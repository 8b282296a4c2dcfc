package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const DefaultNamespace = "graphwalk"

// Metrics holds the collectors of one engine. Each engine gets its own
// registry so that several engines can live in one process.
type Metrics struct {
	Registry *prometheus.Registry

	// Traversals counts finished traversals, labeled by kind (dfs, bfs,
	// shortest) and outcome (ok, error).
	Traversals *prometheus.CounterVec

	// Scanned counts edges read plus vertices fetched from the store.
	Scanned prometheus.Counter

	// Filtered counts candidates rejected by filters and pruning.
	Filtered prometheus.Counter

	// Pushed counts filter conjuncts evaluated during path construction.
	Pushed prometheus.Counter

	QueryDuration *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Traversals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traversals_total",
			Help:      "Total traversals by kind and outcome",
		}, []string{"kind", "outcome"}),
		Scanned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scanned_documents_total",
			Help:      "Edges and vertices read from the store",
		}),
		Filtered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filtered_candidates_total",
			Help:      "Candidates rejected by filter conditions",
		}),
		Pushed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pushed_conditions_total",
			Help:      "Filter conditions evaluated during path construction",
		}),
		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
		}, []string{"kind"}),
	}
}

// ObserveTraversal records the counters of one finished traversal.
func (m *Metrics) ObserveTraversal(kind string, scanned, filtered int64, seconds float64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Traversals.WithLabelValues(kind, outcome).Inc()
	m.Scanned.Add(float64(scanned))
	m.Filtered.Add(float64(filtered))
	m.QueryDuration.WithLabelValues(kind).Observe(seconds)
}
