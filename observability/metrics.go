package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Screening metrics
	ScreenRequestsTotal  prometheus.Counter
	ScreenDuration       *prometheus.HistogramVec
	ScreenMatches        prometheus.Histogram
	ScreenTruncations    prometheus.Counter
	SymbolsScreenedTotal *prometheus.CounterVec

	// Condition evaluation metrics
	ConditionChecksTotal *prometheus.CounterVec
	DegradedNearChecks   prometheus.Counter

	// External provider metrics
	ProviderRequestsTotal *prometheus.CounterVec
	ProviderErrorsTotal   *prometheus.CounterVec
	ProviderDuration      *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryTotal    *prometheus.CounterVec
	DBErrorsTotal   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// matchBuckets are histogram buckets for per-run match counts
var matchBuckets = []float64{0, 1, 2, 5, 10, 15, 20, 25}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		ScreenRequestsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "market_screener",
				Subsystem: "screen",
				Name:      "requests_total",
				Help:      "Total number of screening requests",
			},
		),
		ScreenDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "market_screener",
				Subsystem: "screen",
				Name:      "duration_seconds",
				Help:      "Duration of a full screening run in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"status"},
		),
		ScreenMatches: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "market_screener",
				Subsystem: "screen",
				Name:      "matches",
				Help:      "Number of instruments matching all conditions per run",
				Buckets:   matchBuckets,
			},
		),
		ScreenTruncations: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "market_screener",
				Subsystem: "screen",
				Name:      "truncations_total",
				Help:      "Total number of runs whose universe was truncated to the cap",
			},
		),
		SymbolsScreenedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "market_screener",
				Subsystem: "screen",
				Name:      "symbols_total",
				Help:      "Total number of symbols processed, by outcome",
			},
			[]string{"outcome"},
		),
		ConditionChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "market_screener",
				Subsystem: "conditions",
				Name:      "checks_total",
				Help:      "Total number of condition evaluations, by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		DegradedNearChecks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "market_screener",
				Subsystem: "conditions",
				Name:      "degraded_near_checks_total",
				Help:      "Near conditions that passed because no 52-week data was available",
			},
		),
		ProviderRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "market_screener",
				Subsystem: "provider",
				Name:      "requests_total",
				Help:      "Total number of market data provider requests",
			},
			[]string{"operation"},
		),
		ProviderErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "market_screener",
				Subsystem: "provider",
				Name:      "errors_total",
				Help:      "Total number of market data provider errors",
			},
			[]string{"operation", "error_type"},
		),
		ProviderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "market_screener",
				Subsystem: "provider",
				Name:      "duration_seconds",
				Help:      "Duration of market data provider calls in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"operation"},
		),
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "market_screener",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "Duration of database queries in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"operation", "table"},
		),
		DBQueryTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "market_screener",
				Subsystem: "db",
				Name:      "queries_total",
				Help:      "Total number of database queries",
			},
			[]string{"operation", "table"},
		),
		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "market_screener",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "Total number of database errors",
			},
			[]string{"operation", "table"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "market_screener",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "market_screener",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "market_screener",
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   prometheus.ExponentialBuckets(128, 4, 8),
			},
			[]string{"method", "path"},
		),
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "market_screener",
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "market_screener",
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// RecordScreenRequest records a screening request
func (m *Metrics) RecordScreenRequest() {
	m.ScreenRequestsTotal.Inc()
}

// RecordScreenDuration records the duration of a full screening run
func (m *Metrics) RecordScreenDuration(status string, duration time.Duration) {
	m.ScreenDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordScreenMatches records the match count of a completed run
func (m *Metrics) RecordScreenMatches(count int) {
	m.ScreenMatches.Observe(float64(count))
}

// RecordTruncation records a universe truncation
func (m *Metrics) RecordTruncation() {
	m.ScreenTruncations.Inc()
}

// RecordSymbol records the outcome of processing one symbol (ok, failed, no_data)
func (m *Metrics) RecordSymbol(outcome string) {
	m.SymbolsScreenedTotal.WithLabelValues(outcome).Inc()
}

// RecordConditionCheck records one condition evaluation
func (m *Metrics) RecordConditionCheck(operation string, passed bool) {
	outcome := "fail"
	if passed {
		outcome = "pass"
	}
	m.ConditionChecksTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordDegradedNearCheck records a near condition that passed for lack of data
func (m *Metrics) RecordDegradedNearCheck() {
	m.DegradedNearChecks.Inc()
}

// RecordProviderRequest records a market data provider request
func (m *Metrics) RecordProviderRequest(operation string) {
	m.ProviderRequestsTotal.WithLabelValues(operation).Inc()
}

// RecordProviderError records a market data provider error
func (m *Metrics) RecordProviderError(operation, errorType string) {
	m.ProviderErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordProviderDuration records the duration of a provider call
func (m *Metrics) RecordProviderDuration(operation string, duration time.Duration) {
	m.ProviderDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDBQuery records a database query
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration) {
	m.DBQueryTotal.WithLabelValues(operation, table).Inc()
	m.DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordDBError records a database error
func (m *Metrics) RecordDBError(operation, table string) {
	m.DBErrorsTotal.WithLabelValues(operation, table).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveScreen records the screening run duration and status
func (t *Timer) ObserveScreen(status string) {
	t.metrics.RecordScreenDuration(status, time.Since(t.start))
}

// ObserveProvider records the provider call duration
func (t *Timer) ObserveProvider(operation string) {
	t.metrics.RecordProviderDuration(operation, time.Since(t.start))
}

// ObserveDB records the database query duration
func (t *Timer) ObserveDB(operation, table string) {
	t.metrics.RecordDBQuery(operation, table, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
