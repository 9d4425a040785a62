package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Repository metrics
	RepositoryOps       *prometheus.CounterVec
	RepositoryOpLatency *prometheus.HistogramVec

	// Selection and health metrics
	HealthStatus        prometheus.Gauge
	ActiveBackend       *prometheus.GaugeVec
	FallbackTransitions prometheus.Counter
	PrimaryReachable    prometheus.Gauge

	// Audit metrics
	AuditEventsLogged   *prometheus.CounterVec
	AuditLogFailures    prometheus.Counter
	AuditMirrorFailures prometheus.Counter

	// Rights metrics
	ErasedRecords prometheus.Counter
	ExportsServed prometheus.Counter

	EndpointLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics against the given registerer. Tests pass a
// fresh registry so repeated construction cannot collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RepositoryOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tutela_repository_operations_total",
			Help: "Total repository operations, labeled by operation class and result",
		}, []string{"operation", "result"}),
		RepositoryOpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tutela_repository_operation_latency_seconds",
			Help:    "Latency of repository operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		HealthStatus: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tutela_health_status",
			Help: "Persistence health classification: 0 healthy, 1 degraded, 2 unhealthy",
		}),
		ActiveBackend: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tutela_active_backend",
			Help: "Bound repository backend, 1 for the active one",
		}, []string{"backend"}),
		FallbackTransitions: factory.NewCounter(prometheus.CounterOpts{
			Name: "tutela_fallback_transitions_total",
			Help: "Total backend downgrades performed by the selector",
		}),
		PrimaryReachable: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tutela_primary_reachable",
			Help: "Last observation of the primary backend probe, 1 when reachable",
		}),
		AuditEventsLogged: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tutela_audit_events_total",
			Help: "Total audit events appended, labeled by action",
		}, []string{"action"}),
		AuditLogFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "tutela_audit_log_failures_total",
			Help: "Total audit appends that failed after the triggering operation succeeded",
		}),
		AuditMirrorFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "tutela_audit_mirror_failures_total",
			Help: "Total audit events the Kafka mirror failed to publish",
		}),
		ErasedRecords: factory.NewCounter(prometheus.CounterOpts{
			Name: "tutela_erased_records_total",
			Help: "Total consent records removed by erasure requests",
		}),
		ExportsServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "tutela_exports_served_total",
			Help: "Total user data exports generated",
		}),
		EndpointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tutela_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// ObserveRepositoryOp records one repository call outcome.
func (m *Metrics) ObserveRepositoryOp(operation string, success bool, durationSeconds float64) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.RepositoryOps.WithLabelValues(operation, result).Inc()
	m.RepositoryOpLatency.WithLabelValues(operation).Observe(durationSeconds)
}

// SetHealthStatus mirrors the monitor classification for alerting.
func (m *Metrics) SetHealthStatus(v float64) {
	m.HealthStatus.Set(v)
}

// SetActiveBackend marks exactly one backend as bound.
func (m *Metrics) SetActiveBackend(backend string) {
	for _, b := range []string{"primary", "secondary", "fallback"} {
		v := 0.0
		if b == backend {
			v = 1.0
		}
		m.ActiveBackend.WithLabelValues(b).Set(v)
	}
}

// IncrementFallbackTransitions counts one selector downgrade.
func (m *Metrics) IncrementFallbackTransitions() {
	m.FallbackTransitions.Inc()
}

// SetPrimaryReachable records the latest probe observation.
func (m *Metrics) SetPrimaryReachable(reachable bool) {
	if reachable {
		m.PrimaryReachable.Set(1)
		return
	}
	m.PrimaryReachable.Set(0)
}

// IncrementAuditEvents increments the audit event counter with action label
func (m *Metrics) IncrementAuditEvents(action string) {
	m.AuditEventsLogged.WithLabelValues(action).Inc()
}

// IncrementAuditLogFailures counts one non-fatal audit append failure.
func (m *Metrics) IncrementAuditLogFailures() {
	m.AuditLogFailures.Inc()
}

// IncrementAuditMirrorFailures counts one failed mirror publish.
func (m *Metrics) IncrementAuditMirrorFailures() {
	m.AuditMirrorFailures.Inc()
}

// AddErasedRecords counts records removed by an erasure request.
func (m *Metrics) AddErasedRecords(count int) {
	m.ErasedRecords.Add(float64(count))
}

// IncrementExportsServed counts one generated user data export.
func (m *Metrics) IncrementExportsServed() {
	m.ExportsServed.Inc()
}

// ObserveEndpointLatency records the latency for a given endpoint
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
