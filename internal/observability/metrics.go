package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the paper discovery service.
// Metrics are organized by subsystem: searches, providers, recommendations,
// library operations, and LLM calls. All counters and histograms are
// registered via promauto with the default Prometheus registry.
type Metrics struct {
	// SearchesTotal counts paper searches, labeled by provider.
	SearchesTotal *prometheus.CounterVec

	// SearchesFailed counts failed paper searches, labeled by provider.
	SearchesFailed *prometheus.CounterVec

	// SearchDuration observes search duration in seconds, labeled by provider.
	SearchDuration *prometheus.HistogramVec

	// PapersPerSearch observes the number of papers returned per search, labeled by provider.
	PapersPerSearch *prometheus.HistogramVec

	// PapersUpserted counts papers written to the local store.
	PapersUpserted prometheus.Counter

	// ProviderRequestsTotal counts HTTP requests to providers, labeled by provider and endpoint.
	ProviderRequestsTotal *prometheus.CounterVec

	// ProviderRequestsFailed counts failed provider requests, labeled by provider, endpoint, and error type.
	ProviderRequestsFailed *prometheus.CounterVec

	// ProviderRateLimited counts rate-limit responses from providers, labeled by provider.
	ProviderRateLimited *prometheus.CounterVec

	// RecommendationsServed counts aggregate recommendation requests that returned results.
	RecommendationsServed prometheus.Counter

	// RecommendationsEmpty counts aggregate recommendation requests with an empty interest set.
	RecommendationsEmpty prometheus.Counter

	// RecommendationsDegraded counts aggregate requests where every seed fetch failed.
	RecommendationsDegraded prometheus.Counter

	// RecommendationSeeds observes the number of source papers consulted per aggregate request.
	RecommendationSeeds prometheus.Histogram

	// RecommendationDuration observes end-to-end aggregate request duration in seconds.
	RecommendationDuration prometheus.Histogram

	// FavoritesTotal counts favorite mutations, labeled by action (added, removed).
	FavoritesTotal *prometheus.CounterVec

	// RatingsTotal counts rating submissions, labeled by value (like, dislike).
	RatingsTotal *prometheus.CounterVec

	// HistoryRecorded counts history entries written.
	HistoryRecorded prometheus.Counter

	// LLMRequestsTotal counts LLM requests, labeled by operation and model.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestsFailed counts failed LLM requests, labeled by operation, model, and error type.
	LLMRequestsFailed *prometheus.CounterVec

	// LLMRequestDuration observes LLM request duration in seconds, labeled by operation and model.
	LLMRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is prepended to every metric name.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SearchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of paper searches by provider",
		}, []string{"provider"}),
		SearchesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of failed paper searches by provider",
		}, []string{"provider"}),
		SearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of paper searches in seconds by provider",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider"}),
		PapersPerSearch: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "papers_per_search",
			Help:      "Number of papers returned per search by provider",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}, []string{"provider"}),
		PapersUpserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_upserted_total",
			Help:      "Total number of papers written to the local store",
		}),

		ProviderRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of requests to bibliographic providers",
		}, []string{"provider", "endpoint"}),
		ProviderRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_failed_total",
			Help:      "Total number of failed requests to bibliographic providers",
		}, []string{"provider", "endpoint", "error_type"}),
		ProviderRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_rate_limited_total",
			Help:      "Total number of rate limit responses from providers",
		}, []string{"provider"}),

		RecommendationsServed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_served_total",
			Help:      "Total number of aggregate recommendation requests served",
		}),
		RecommendationsEmpty: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_empty_total",
			Help:      "Total number of recommendation requests with an empty interest set",
		}),
		RecommendationsDegraded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_degraded_total",
			Help:      "Total number of recommendation requests where all seed fetches failed",
		}),
		RecommendationSeeds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_seeds",
			Help:      "Number of source papers consulted per aggregate request",
			Buckets:   []float64{0, 1, 2, 3},
		}),
		RecommendationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_duration_seconds",
			Help:      "Duration of aggregate recommendation requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),

		FavoritesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "favorites_total",
			Help:      "Total number of favorite mutations by action",
		}, []string{"action"}),
		RatingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratings_total",
			Help:      "Total number of rating submissions by value",
		}, []string{"value"}),
		HistoryRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_recorded_total",
			Help:      "Total number of history entries recorded",
		}),

		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests by operation",
		}, []string{"operation", "model"}),
		LLMRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_failed_total",
			Help:      "Total number of failed LLM requests by operation",
		}, []string{"operation", "model", "error_type"}),
		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of LLM requests in seconds by operation",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"operation", "model"}),
	}
}

// RecordSearch records a completed search with its result count and duration.
func (m *Metrics) RecordSearch(provider string, papers int, durationSeconds float64) {
	m.SearchesTotal.WithLabelValues(provider).Inc()
	m.SearchDuration.WithLabelValues(provider).Observe(durationSeconds)
	m.PapersPerSearch.WithLabelValues(provider).Observe(float64(papers))
}

// RecordSearchFailed records a failed search.
func (m *Metrics) RecordSearchFailed(provider string, durationSeconds float64) {
	m.SearchesTotal.WithLabelValues(provider).Inc()
	m.SearchesFailed.WithLabelValues(provider).Inc()
	m.SearchDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// RecordPapersUpserted records papers written to the local store.
func (m *Metrics) RecordPapersUpserted(count int) {
	m.PapersUpserted.Add(float64(count))
}

// RecordProviderRequest records a request to a bibliographic provider.
func (m *Metrics) RecordProviderRequest(provider, endpoint string) {
	m.ProviderRequestsTotal.WithLabelValues(provider, endpoint).Inc()
}

// RecordProviderRequestFailed records a failed provider request.
func (m *Metrics) RecordProviderRequestFailed(provider, endpoint, errorType string) {
	m.ProviderRequestsFailed.WithLabelValues(provider, endpoint, errorType).Inc()
}

// RecordProviderRateLimited records a rate limit response from a provider.
func (m *Metrics) RecordProviderRateLimited(provider string) {
	m.ProviderRateLimited.WithLabelValues(provider).Inc()
}

// RecordRecommendation records a served aggregate recommendation request.
func (m *Metrics) RecordRecommendation(seeds int, durationSeconds float64, degraded bool) {
	m.RecommendationsServed.Inc()
	m.RecommendationSeeds.Observe(float64(seeds))
	m.RecommendationDuration.Observe(durationSeconds)
	if degraded {
		m.RecommendationsDegraded.Inc()
	}
}

// RecordRecommendationEmpty records a recommendation request with no interest set.
func (m *Metrics) RecordRecommendationEmpty() {
	m.RecommendationsEmpty.Inc()
}

// RecordFavorite records a favorite mutation (added or removed).
func (m *Metrics) RecordFavorite(action string) {
	m.FavoritesTotal.WithLabelValues(action).Inc()
}

// RecordRating records a rating submission (like or dislike).
func (m *Metrics) RecordRating(value string) {
	m.RatingsTotal.WithLabelValues(value).Inc()
}

// RecordHistory records a history entry write.
func (m *Metrics) RecordHistory() {
	m.HistoryRecorded.Inc()
}

// RecordLLMRequest records a completed LLM request.
func (m *Metrics) RecordLLMRequest(operation, model string, durationSeconds float64) {
	m.LLMRequestsTotal.WithLabelValues(operation, model).Inc()
	m.LLMRequestDuration.WithLabelValues(operation, model).Observe(durationSeconds)
}

// RecordLLMRequestFailed records a failed LLM request.
func (m *Metrics) RecordLLMRequestFailed(operation, model, errorType string) {
	m.LLMRequestsFailed.WithLabelValues(operation, model, errorType).Inc()
}
