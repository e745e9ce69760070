package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Assignment outcomes recorded per processed period.
const (
	OutcomeAssigned   = "assigned"
	OutcomeUnassigned = "unassigned"
	OutcomeFailed     = "failed"
)

// MetricsService owns the Prometheus registry for HTTP traffic and the substitution workflow.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	assignments     *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	evaluation      prometheus.Histogram
	notifications   *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec

	requestCount  uint64
	assignedCount uint64
	periodCount   uint64
}

// MetricsSnapshot is a compact JSON view of the counters.
type MetricsSnapshot struct {
	RequestsTotal    uint64    `json:"requestsTotal"`
	PeriodsProcessed uint64    `json:"periodsProcessed"`
	PeriodsAssigned  uint64    `json:"periodsAssigned"`
	CoverageRatio    float64   `json:"coverageRatio"`
	Goroutines       int       `json:"goroutines"`
	GeneratedAt      time.Time `json:"generatedAt"`
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "substitution_assignments_total",
		Help: "Uncovered periods processed, by outcome",
	}, []string{"outcome"})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "substitution_transitions_total",
		Help: "Substitution lifecycle transitions, by action",
	}, []string{"action"})

	evaluation := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "substitution_candidate_evaluation_seconds",
		Help:    "Time spent gathering and ranking candidates for one period",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_dispatched_total",
		Help: "Notification dispatch attempts, by result",
	}, []string{"result"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_config_cache_lookups_total",
		Help: "Assignment configuration cache lookups, by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, assignments, transitions, evaluation, notifications, cacheLookups, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		assignments:     assignments,
		transitions:     transitions,
		evaluation:      evaluation,
		notifications:   notifications,
		cacheLookups:    cacheLookups,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// RecordAssignment counts one processed period.
func (m *MetricsService) RecordAssignment(outcome string) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(outcome).Inc()
	if outcome == OutcomeFailed {
		return
	}
	atomic.AddUint64(&m.periodCount, 1)
	if outcome == OutcomeAssigned {
		atomic.AddUint64(&m.assignedCount, 1)
	}
}

// RecordTransition counts a lifecycle action.
func (m *MetricsService) RecordTransition(action string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action).Inc()
}

// ObserveEvaluation records how long one candidate ranking took.
func (m *MetricsService) ObserveEvaluation(duration time.Duration) {
	if m == nil {
		return
	}
	m.evaluation.Observe(duration.Seconds())
}

// RecordNotification counts a notification dispatch result.
func (m *MetricsService) RecordNotification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

// RecordCacheLookup counts a configuration cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	periods := atomic.LoadUint64(&m.periodCount)
	assigned := atomic.LoadUint64(&m.assignedCount)
	var ratio float64
	if periods > 0 {
		ratio = float64(assigned) / float64(periods)
	}
	return MetricsSnapshot{
		RequestsTotal:    atomic.LoadUint64(&m.requestCount),
		PeriodsProcessed: periods,
		PeriodsAssigned:  assigned,
		CoverageRatio:    ratio,
		Goroutines:       runtime.NumGoroutine(),
		GeneratedAt:      time.Now().UTC(),
	}
}
