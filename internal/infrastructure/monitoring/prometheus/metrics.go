// Package prometheus registers and serves the service's operational metrics.
// Everything hangs off one Metrics value created at startup and injected
// where instrumentation happens.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dealflow"

var (
	httpDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	queryDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// Metrics holds every collector the service records into.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP layer.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPActiveRequests  prometheus.Gauge

	// Pipeline domain.
	DealStatusChangesTotal *prometheus.CounterVec
	FollowUpsLoggedTotal   prometheus.Counter

	// Agenda triage.
	TriageRunsTotal    prometheus.Counter
	TriageRunDuration  prometheus.Histogram
	TriageTaskCount    *prometheus.GaugeVec
	TriageValueAtRisk  prometheus.Gauge
	NotificationsTotal *prometheus.CounterVec

	// Assistant.
	AssistantRequestsTotal  *prometheus.CounterVec
	AssistantFallbacksTotal *prometheus.CounterVec
	AssistantDuration       prometheus.Histogram

	// Infrastructure.
	DBQueryDuration  *prometheus.HistogramVec
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	EventsPublished  *prometheus.CounterVec
	EventPublishErrs *prometheus.CounterVec
}

// NewMetrics builds a Metrics value backed by its own registry, with process
// and Go runtime collectors attached.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: namespace}),
		prometheus.NewGoCollector(),
	)

	m := &Metrics{registry: reg}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_duration_seconds",
		Help: "HTTP request latency.", Buckets: httpDurationBuckets,
	}, []string{"method", "route"})

	m.HTTPActiveRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "http_active_requests",
		Help: "In-flight HTTP requests.",
	})

	m.DealStatusChangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "deal_status_changes_total",
		Help: "Deal status transitions by target status.",
	}, []string{"target"})

	m.FollowUpsLoggedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "follow_ups_logged_total",
		Help: "Follow-up contacts logged.",
	})

	m.TriageRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "triage_runs_total",
		Help: "Agenda triage computations.",
	})

	m.TriageRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "triage_run_duration_seconds",
		Help: "Agenda triage computation latency.", Buckets: queryDurationBuckets,
	})

	m.TriageTaskCount = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "triage_task_count",
		Help: "Tasks in the last computed triage, by bucket.",
	}, []string{"bucket"})

	m.TriageValueAtRisk = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "triage_value_at_risk",
		Help: "Pipeline value attached to overdue and today tasks.",
	})

	m.NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "notifications_generated_total",
		Help: "Notifications generated by kind.",
	}, []string{"kind"})

	m.AssistantRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "assistant_requests_total",
		Help: "AI assistant requests by use case and outcome.",
	}, []string{"use_case", "outcome"})

	m.AssistantFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "assistant_fallbacks_total",
		Help: "Canned-default fallbacks served by use case.",
	}, []string{"use_case"})

	m.AssistantDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "assistant_request_duration_seconds",
		Help: "AI assistant round-trip latency.", Buckets: httpDurationBuckets,
	})

	m.DBQueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "db_query_duration_seconds",
		Help: "Database query latency by repository operation.", Buckets: queryDurationBuckets,
	}, []string{"operation"})

	m.CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "cache_hits_total",
		Help: "Redis cache hits by key class.",
	}, []string{"class"})

	m.CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "cache_misses_total",
		Help: "Redis cache misses by key class.",
	}, []string{"class"})

	m.EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "events_published_total",
		Help: "Domain events published to Kafka by topic.",
	}, []string{"topic"})

	m.EventPublishErrs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "event_publish_errors_total",
		Help: "Failed Kafka publishes by topic.",
	}, []string{"topic"})

	reg.MustRegister(
		m.HTTPRequestsTotal, m.HTTPRequestDuration, m.HTTPActiveRequests,
		m.DealStatusChangesTotal, m.FollowUpsLoggedTotal,
		m.TriageRunsTotal, m.TriageRunDuration, m.TriageTaskCount,
		m.TriageValueAtRisk, m.NotificationsTotal,
		m.AssistantRequestsTotal, m.AssistantFallbacksTotal, m.AssistantDuration,
		m.DBQueryDuration, m.CacheHitsTotal, m.CacheMissesTotal,
		m.EventsPublished, m.EventPublishErrs,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveHTTP records one finished HTTP request.
func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveTriage records one triage run and its bucket sizes.
func (m *Metrics) ObserveTriage(elapsed time.Duration, overdue, today, upcoming int, valueAtRisk float64) {
	m.TriageRunsTotal.Inc()
	m.TriageRunDuration.Observe(elapsed.Seconds())
	m.TriageTaskCount.WithLabelValues("overdue").Set(float64(overdue))
	m.TriageTaskCount.WithLabelValues("today").Set(float64(today))
	m.TriageTaskCount.WithLabelValues("upcoming").Set(float64(upcoming))
	m.TriageValueAtRisk.Set(valueAtRisk)
}
