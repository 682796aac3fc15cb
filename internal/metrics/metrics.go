// Package metrics exposes Prometheus counters for the ingestion and scoring
// core. The serving layer that scrapes them is an external collaborator; this
// package only registers and updates the instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "jobscout"

// Manager holds all Prometheus instruments for the core.
type Manager struct {
	// Ingestion metrics
	postingsFetched   *prometheus.CounterVec
	postingsDuplicate *prometheus.CounterVec
	postingsPersisted prometheus.Counter
	postingsMalformed *prometheus.CounterVec
	adapterErrors     *prometheus.CounterVec

	// Quota metrics
	quotaRejections    *prometheus.CounterVec
	circuitTransitions *prometheus.CounterVec

	// Scoring metrics
	scoringLatency prometheus.Histogram
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
}

// New registers all instruments with the given registerer and returns the
// manager. Passing nil registers with the default registry.
func New(reg prometheus.Registerer) *Manager {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Manager{
		postingsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postings_fetched_total",
			Help:      "Postings returned by source adapters, before dedup.",
		}, []string{"source"}),
		postingsDuplicate: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postings_duplicate_total",
			Help:      "Postings dropped as duplicates, by dedup stage.",
		}, []string{"stage"}),
		postingsPersisted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postings_persisted_total",
			Help:      "Net-new postings written to storage.",
		}),
		postingsMalformed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postings_malformed_total",
			Help:      "Raw records dropped for missing required fields.",
		}, []string{"source"}),
		adapterErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_errors_total",
			Help:      "Fetch errors per source adapter.",
		}, []string{"source"}),
		quotaRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_rejections_total",
			Help:      "Requests rejected before any network call, by reason.",
		}, []string{"source", "reason"}),
		circuitTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_transitions_total",
			Help:      "Circuit state transitions per source.",
		}, []string{"source", "to"}),
		scoringLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scoring_latency_seconds",
			Help:      "Latency of scoring one user against one posting batch.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendation_cache_hits_total",
			Help:      "Recommendation cache hits.",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendation_cache_misses_total",
			Help:      "Recommendation cache misses.",
		}),
	}
}

// PostingsFetched records postings returned by one adapter.
func (m *Manager) PostingsFetched(source string, n int) {
	m.postingsFetched.WithLabelValues(source).Add(float64(n))
}

// PostingsDuplicate records duplicates removed at a dedup stage ("batch" or "store").
func (m *Manager) PostingsDuplicate(stage string, n int) {
	m.postingsDuplicate.WithLabelValues(stage).Add(float64(n))
}

// PostingsPersisted records net-new postings written to storage.
func (m *Manager) PostingsPersisted(n int) {
	m.postingsPersisted.Add(float64(n))
}

// PostingMalformed records one dropped malformed record.
func (m *Manager) PostingMalformed(source string) {
	m.postingsMalformed.WithLabelValues(source).Inc()
}

// AdapterError records one adapter fetch failure.
func (m *Manager) AdapterError(source string) {
	m.adapterErrors.WithLabelValues(source).Inc()
}

// QuotaRejected records a request rejected by the quota manager.
func (m *Manager) QuotaRejected(source, reason string) {
	m.quotaRejections.WithLabelValues(source, reason).Inc()
}

// CircuitTransition records a circuit state change.
func (m *Manager) CircuitTransition(source, to string) {
	m.circuitTransitions.WithLabelValues(source, to).Inc()
}

// ObserveScoringLatency records the duration of one scoring pass in seconds.
func (m *Manager) ObserveScoringLatency(seconds float64) {
	m.scoringLatency.Observe(seconds)
}

// CacheHit records a recommendation cache hit.
func (m *Manager) CacheHit() { m.cacheHits.Inc() }

// CacheMiss records a recommendation cache miss.
func (m *Manager) CacheMiss() { m.cacheMisses.Inc() }
