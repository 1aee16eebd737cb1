// Package metrics provides Prometheus metrics for the refbox scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus metric exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Business metrics.
	submissionsTotal     *prometheus.CounterVec
	wrongAttempts        prometheus.Counter
	completions          prometheus.Counter
	duplicateSubmissions prometheus.Counter
	scoringDuration      prometheus.Histogram

	// Session metrics.
	activeSessions  prometheus.Gauge
	sessionsStarted prometheus.Counter
	sessionsStopped prometheus.Counter
	sessionResets   prometheus.Counter

	// Participation metrics.
	registeredTeams prometheus.Gauge

	// Audit trail metrics.
	auditQueueSize prometheus.Gauge
	auditDropped   prometheus.Counter

	// HTTP metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager on a custom registry, so that the default Go and
// process collectors stay out of /healthz.
var (
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton metrics registry
	globalManager  *Manager                   //nolint:gochecknoglobals // singleton metrics manager
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers all metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "refbox",
		subsystem:        "scoring",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initialize()
	return m
}

func (m *Manager) initialize() {
	factory := promauto.With(m.registry)

	m.submissionsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_total",
		Help:      "Submissions processed, labeled by verdict.",
	}, []string{"verdict"})

	m.wrongAttempts = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "wrong_attempts_total",
		Help:      "Wrong attempts recorded in team ledgers.",
	})

	m.completions = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "completions_total",
		Help:      "First-correct completions frozen in team ledgers.",
	})

	m.duplicateSubmissions = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_submissions_total",
		Help:      "Submissions rejected by the idempotency cache.",
	})

	m.scoringDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_duration_ms",
		Help:      "Wall time of the scoring pipeline in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.activeSessions = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_sessions",
		Help:      "Question sessions currently accepting submissions.",
	})

	m.sessionsStarted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_started_total",
		Help:      "Question sessions started.",
	})

	m.sessionsStopped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_stopped_total",
		Help:      "Question sessions stopped by an admin.",
	})

	m.sessionResets = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "session_resets_total",
		Help:      "Global session resets.",
	})

	m.registeredTeams = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "registered_teams",
		Help:      "Teams currently registered.",
	})

	m.auditQueueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_queue_size",
		Help:      "Entries waiting in the audit trail queue.",
	})

	m.auditDropped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_dropped_total",
		Help:      "Audit records dropped due to backpressure.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests, labeled by endpoint, method, and status.",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// Package-level helpers over the global manager.

// RecordSubmission counts one processed submission for the given verdict
// ("full", "partial", "incorrect", "already_completed").
func RecordSubmission(verdict string) {
	globalManager.submissionsTotal.WithLabelValues(verdict).Inc()
}

// RecordWrongAttempt counts one wrong attempt recorded in a ledger.
func RecordWrongAttempt() {
	globalManager.wrongAttempts.Inc()
}

// RecordCompletion counts one frozen first-correct completion.
func RecordCompletion() {
	globalManager.completions.Inc()
}

// RecordDuplicateSubmission counts one idempotency-cache hit.
func RecordDuplicateSubmission() {
	globalManager.duplicateSubmissions.Inc()
}

// RecordScoringDuration records the scoring pipeline wall time in ms.
func RecordScoringDuration(ms float64) {
	globalManager.scoringDuration.Observe(ms)
}

// UpdateActiveSessions sets the number of currently active sessions.
func UpdateActiveSessions(n int) {
	globalManager.activeSessions.Set(float64(n))
}

// RecordSessionStarted counts one StartQuestion.
func RecordSessionStarted() {
	globalManager.sessionsStarted.Inc()
}

// RecordSessionStopped counts one StopQuestion.
func RecordSessionStopped() {
	globalManager.sessionsStopped.Inc()
}

// RecordSessionReset counts one global reset.
func RecordSessionReset() {
	globalManager.sessionResets.Inc()
}

// UpdateRegisteredTeams sets the number of registered teams.
func UpdateRegisteredTeams(n int) {
	globalManager.registeredTeams.Set(float64(n))
}

// UpdateAuditQueueSize sets the audit queue depth.
func UpdateAuditQueueSize(n int) {
	globalManager.auditQueueSize.Set(float64(n))
}

// RecordAuditDropped counts one audit record lost to backpressure.
func RecordAuditDropped() {
	globalManager.auditDropped.Inc()
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records one HTTP request duration in ms.
func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

// GetRegistry exposes the custom registry for the /healthz handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
