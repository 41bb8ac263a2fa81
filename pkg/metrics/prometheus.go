// Package metrics provides Prometheus metrics for the CREMA recommendation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus metric for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Recommendation metrics
	recommendationRequests  *prometheus.CounterVec
	recommendationFallbacks *prometheus.CounterVec
	scoringDuration         prometheus.Histogram

	// Rating metrics
	ratingUpserts    *prometheus.CounterVec
	ratingRejected   prometheus.Counter

	// Weather upstream metrics
	weatherFetches *prometheus.CounterVec

	// Operational gauges
	catalogSize prometheus.Gauge
	reviewCount prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "crema",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.recommendationRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "recommendation_requests_total",
			Help:      "Total recommendation requests by mode (context or history)",
		},
		[]string{"mode"},
	)

	m.recommendationFallbacks = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "recommendation_fallbacks_total",
			Help:      "Total fallback substitutions by trigger reason",
		},
		[]string{"reason"},
	)

	m.scoringDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_duration_milliseconds",
		Help:      "Histogram of candidate scoring and ranking duration",
		Buckets:   m.histogramBuckets,
	})

	m.ratingUpserts = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "rating_upserts_total",
			Help:      "Total accepted rating upserts, split by new vs superseded",
		},
		[]string{"kind"},
	)

	m.ratingRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_rejected_total",
		Help:      "Total rating events rejected by validation",
	})

	m.weatherFetches = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "weather_fetches_total",
			Help:      "Upstream weather fetches by result (ok, cached, unavailable, error)",
		},
		[]string{"result"},
	)

	m.catalogSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_size",
		Help:      "Number of items in the catalog",
	})

	m.reviewCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "review_count",
		Help:      "Number of live rating events",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by endpoint, method, and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_total",
			Help:      "Errors by component and type",
		},
		[]string{"component", "error_type"},
	)
}

// RecordRecommendation counts one recommendation request for a mode.
func RecordRecommendation(mode string) {
	globalManager.recommendationRequests.WithLabelValues(mode).Inc()
}

// RecordFallback counts one fallback substitution with its trigger reason.
func RecordFallback(reason string) {
	globalManager.recommendationFallbacks.WithLabelValues(reason).Inc()
}

// RecordScoringDuration records one scoring-and-ranking pass.
func RecordScoringDuration(ms float64) {
	globalManager.scoringDuration.Observe(ms)
}

// RecordRatingUpsert counts an accepted upsert.
func RecordRatingUpsert(isNew bool) {
	kind := "superseded"
	if isNew {
		kind = "new"
	}
	globalManager.ratingUpserts.WithLabelValues(kind).Inc()
}

// RecordRatingRejected counts a validation rejection.
func RecordRatingRejected() {
	globalManager.ratingRejected.Inc()
}

// RecordWeatherFetch counts one upstream weather lookup by outcome.
func RecordWeatherFetch(result string) {
	globalManager.weatherFetches.WithLabelValues(result).Inc()
}

// UpdateCatalogSize sets the catalog size gauge.
func UpdateCatalogSize(size int) {
	globalManager.catalogSize.Set(float64(size))
}

// UpdateReviewCount sets the live review count gauge.
func UpdateReviewCount(count int) {
	globalManager.reviewCount.Set(float64(count))
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom registry for the metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
