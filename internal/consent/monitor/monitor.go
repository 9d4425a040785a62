// Package monitor wraps the bound repository with per-operation health
// accounting.
//
// Every repository call is delegated through the active binding under a
// bounded timeout and a trace span. Outcomes are tallied per operation
// class; the tallies drive the tri-state classification served by the
// health endpoint and mirrored on the health gauge.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"tutela/internal/consent/models"
	"tutela/internal/consent/store"
	"tutela/internal/platform/metrics"
	"tutela/internal/platform/tracer"
	"tutela/internal/sentinel"
)

// Operation classes. Each repository method maps to exactly one class; the
// class names appear verbatim in traces, Prometheus labels, and the health
// endpoint payload.
const (
	ClassConsentSaves       = "consent_saves"
	ClassConsentReads       = "consent_reads"
	ClassConsentWithdrawals = "consent_withdrawals"
	ClassConsentLists       = "consent_lists"
	ClassAuditLogs          = "audit_logs"
	ClassAuditReads         = "audit_reads"
	ClassExports            = "exports"
	ClassErasures           = "erasures"
	ClassActivityReads      = "activity_reads"
	ClassActivityWrites     = "activity_writes"
)

// Classes lists every operation class in the order the health endpoint
// reports them.
var Classes = []string{
	ClassConsentSaves,
	ClassConsentReads,
	ClassConsentWithdrawals,
	ClassConsentLists,
	ClassAuditLogs,
	ClassAuditReads,
	ClassExports,
	ClassErasures,
	ClassActivityReads,
	ClassActivityWrites,
}

// Status is the tri-state health classification.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// gaugeValue maps a classification onto the health gauge.
func (s Status) gaugeValue() float64 {
	switch s {
	case StatusDegraded:
		return 1
	case StatusUnhealthy:
		return 2
	default:
		return 0
	}
}

// ClassCounts is the running outcome tally for one operation class.
type ClassCounts struct {
	Successes int64 `json:"successes"`
	Failures  int64 `json:"failures"`
	Total     int64 `json:"total"`
}

// Snapshot is the health classification at one point in time, shaped for
// the health endpoint.
type Snapshot struct {
	Status        Status                 `json:"status"`
	ActiveBackend store.Backend          `json:"active_backend"`
	Metrics       map[string]ClassCounts `json:"metrics"`
}

// Binding is the slice of the selector binding the monitor needs.
type Binding interface {
	Repository() store.Repository
	Backend() store.Backend
	Close() error
}

var _ Binding = (*store.Binding)(nil)

// tally is a lock-free success/failure pair. Increments race only with
// reads, never with each other, so totals are exact.
type tally struct {
	successes atomic.Int64
	failures  atomic.Int64
}

const defaultOpTimeout = 5 * time.Second

// Monitor decorates the bound repository with timeouts, tracing, and
// outcome accounting. It implements store.Repository and is safe for
// concurrent use.
type Monitor struct {
	binding   Binding
	opTimeout time.Duration
	tracer    tracer.Tracer
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tallies   map[string]*tally
}

var _ store.Repository = (*Monitor)(nil)

// Option adjusts monitor construction.
type Option func(*Monitor)

// WithOpTimeout bounds every delegated repository call.
func WithOpTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.opTimeout = d
		}
	}
}

// WithTracer sets the tracer spans are started on.
func WithTracer(t tracer.Tracer) Option {
	return func(m *Monitor) {
		if t != nil {
			m.tracer = t
		}
	}
}

// New wraps the binding. The tally map is fixed at construction; lookups
// after that are lock-free.
func New(binding Binding, logger *slog.Logger, met *metrics.Metrics, opts ...Option) *Monitor {
	m := &Monitor{
		binding:   binding,
		opTimeout: defaultOpTimeout,
		tracer:    tracer.NewNoop(),
		metrics:   met,
		logger:    logger,
		tallies:   make(map[string]*tally, len(Classes)),
	}
	for _, class := range Classes {
		m.tallies[class] = &tally{}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// begin bounds the call and opens its span. The returned done func records
// the outcome and must be called exactly once.
func (m *Monitor) begin(ctx context.Context, class string, attrs ...tracer.Attribute) (context.Context, func(error)) {
	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	spanAttrs := append([]tracer.Attribute{
		tracer.String(tracer.AttrBackend, string(m.binding.Backend())),
		tracer.String(tracer.AttrOperation, class),
	}, attrs...)
	ctx, span := m.tracer.Start(ctx, "repository."+class, spanAttrs...)
	start := time.Now()
	return ctx, func(err error) {
		m.record(ctx, class, err, time.Since(start))
		span.End(err)
		cancel()
	}
}

// record tallies one outcome. A missing entity or a serializable write
// conflict is a correct answer from a working backend, so those sentinels
// count as successes; timeouts and cancellations count as failures like any
// other backend fault.
func (m *Monitor) record(ctx context.Context, class string, err error, elapsed time.Duration) {
	success := err == nil ||
		errors.Is(err, sentinel.ErrNotFound) ||
		errors.Is(err, sentinel.ErrConflict)
	t := m.tallies[class]
	if success {
		t.successes.Add(1)
	} else {
		t.failures.Add(1)
		m.logger.WarnContext(ctx, "repository operation failed",
			"operation", class, "backend", m.binding.Backend(), "error", err)
	}
	m.metrics.ObserveRepositoryOp(class, success, elapsed.Seconds())
}

// SaveConsent delegates to the bound repository.
func (m *Monitor) SaveConsent(ctx context.Context, record *models.ConsentRecord) (*models.ConsentRecord, error) {
	ctx, done := m.begin(ctx, ClassConsentSaves,
		tracer.String(tracer.AttrSubject, tracer.HashSubjectID(record.UserID)))
	saved, err := m.binding.Repository().SaveConsent(ctx, record)
	done(err)
	return saved, err
}

// GetConsent delegates to the bound repository.
func (m *Monitor) GetConsent(ctx context.Context, userID, consentType string) (*models.ConsentRecord, error) {
	ctx, done := m.begin(ctx, ClassConsentReads,
		tracer.String(tracer.AttrSubject, tracer.HashSubjectID(userID)))
	record, err := m.binding.Repository().GetConsent(ctx, userID, consentType)
	done(err)
	return record, err
}

// WithdrawConsent delegates to the bound repository.
func (m *Monitor) WithdrawConsent(ctx context.Context, userID, consentType string, at time.Time) (*models.ConsentRecord, error) {
	ctx, done := m.begin(ctx, ClassConsentWithdrawals,
		tracer.String(tracer.AttrSubject, tracer.HashSubjectID(userID)))
	record, err := m.binding.Repository().WithdrawConsent(ctx, userID, consentType, at)
	done(err)
	return record, err
}

// ListConsents delegates to the bound repository.
func (m *Monitor) ListConsents(ctx context.Context, userID string) ([]*models.ConsentRecord, error) {
	ctx, done := m.begin(ctx, ClassConsentLists,
		tracer.String(tracer.AttrSubject, tracer.HashSubjectID(userID)))
	records, err := m.binding.Repository().ListConsents(ctx, userID)
	done(err)
	return records, err
}

// LogAuditEvent delegates to the bound repository.
func (m *Monitor) LogAuditEvent(ctx context.Context, event models.AuditEvent) error {
	attrs := make([]tracer.Attribute, 0, 1)
	if event.UserID != "" {
		attrs = append(attrs, tracer.String(tracer.AttrSubject, tracer.HashSubjectID(event.UserID)))
	}
	ctx, done := m.begin(ctx, ClassAuditLogs, attrs...)
	err := m.binding.Repository().LogAuditEvent(ctx, event)
	done(err)
	return err
}

// ListAuditEvents delegates to the bound repository.
func (m *Monitor) ListAuditEvents(ctx context.Context, userID string) ([]models.AuditEvent, error) {
	attrs := make([]tracer.Attribute, 0, 1)
	if userID != "" {
		attrs = append(attrs, tracer.String(tracer.AttrSubject, tracer.HashSubjectID(userID)))
	}
	ctx, done := m.begin(ctx, ClassAuditReads, attrs...)
	events, err := m.binding.Repository().ListAuditEvents(ctx, userID)
	done(err)
	return events, err
}

// ListProcessingActivities delegates to the bound repository.
func (m *Monitor) ListProcessingActivities(ctx context.Context) ([]models.ProcessingActivity, error) {
	ctx, done := m.begin(ctx, ClassActivityReads)
	activities, err := m.binding.Repository().ListProcessingActivities(ctx)
	done(err)
	return activities, err
}

// ReplaceProcessingActivities delegates to the bound repository.
func (m *Monitor) ReplaceProcessingActivities(ctx context.Context, activities []models.ProcessingActivity) error {
	ctx, done := m.begin(ctx, ClassActivityWrites,
		tracer.Int64(tracer.AttrRecords, int64(len(activities))))
	err := m.binding.Repository().ReplaceProcessingActivities(ctx, activities)
	done(err)
	return err
}

// ExportUserData delegates to the bound repository.
func (m *Monitor) ExportUserData(ctx context.Context, userID string) (*models.UserDataExport, error) {
	ctx, done := m.begin(ctx, ClassExports,
		tracer.String(tracer.AttrSubject, tracer.HashSubjectID(userID)))
	export, err := m.binding.Repository().ExportUserData(ctx, userID)
	done(err)
	return export, err
}

// EraseUserData delegates to the bound repository.
func (m *Monitor) EraseUserData(ctx context.Context, userID string) (int, error) {
	ctx, done := m.begin(ctx, ClassErasures,
		tracer.String(tracer.AttrSubject, tracer.HashSubjectID(userID)))
	removed, err := m.binding.Repository().EraseUserData(ctx, userID)
	done(err)
	return removed, err
}

// Backend reports the tier currently bound.
func (m *Monitor) Backend() store.Backend {
	return m.binding.Backend()
}

// Ping probes the bound repository. Pings belong to no operation class and
// are not tallied.
func (m *Monitor) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()
	return m.binding.Repository().Ping(ctx)
}

// Close closes the binding, including any repositories retired by an
// administrative reconnect.
func (m *Monitor) Close() error {
	return m.binding.Close()
}

// Snapshot classifies current health from the backend tier and the overall
// failure rate across all operation classes, and mirrors the result on the
// health gauge. A class with no observations contributes nothing to the
// rate; with no traffic at all the rate is zero.
func (m *Monitor) Snapshot() Snapshot {
	counts := make(map[string]ClassCounts, len(Classes))
	var successes, failures int64
	for _, class := range Classes {
		t := m.tallies[class]
		s, f := t.successes.Load(), t.failures.Load()
		counts[class] = ClassCounts{Successes: s, Failures: f, Total: s + f}
		successes += s
		failures += f
	}

	var rate float64
	if total := successes + failures; total > 0 {
		rate = float64(failures) / float64(total)
	}

	status := classify(m.binding.Backend(), rate)
	m.metrics.SetHealthStatus(status.gaugeValue())
	return Snapshot{
		Status:        status,
		ActiveBackend: m.binding.Backend(),
		Metrics:       counts,
	}
}

// classify applies the tier and failure-rate rules in severity order. The
// volatile tier is unhealthy regardless of its error rate; a non-primary
// durable tier caps the classification at degraded.
func classify(backend store.Backend, failureRate float64) Status {
	switch {
	case backend == store.BackendFallback || failureRate >= 0.50:
		return StatusUnhealthy
	case backend == store.BackendSecondary || failureRate >= 0.10:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}
