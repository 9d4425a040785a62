// Package service implements the consent lifecycle and the data subject
// rights operations over the bound repository.
//
// Every mutating operation appends an audit event after the mutation
// succeeds. Audit appends are non-fatal: a failed append is logged and
// counted, never surfaced to the caller.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"tutela/internal/consent/models"
	"tutela/internal/ids"
	"tutela/internal/platform/device"
	"tutela/internal/platform/metrics"
	"tutela/internal/sentinel"
	dErrors "tutela/pkg/domain-errors"
	"tutela/pkg/requestcontext"
)

// Store is the slice of the repository contract the service drives. The
// monitor-wrapped binding satisfies it.
//
// Error contract: GetConsent and WithdrawConsent return sentinel.ErrNotFound
// for absent pairs; every other failure is a backend fault.
type Store interface {
	SaveConsent(ctx context.Context, record *models.ConsentRecord) (*models.ConsentRecord, error)
	GetConsent(ctx context.Context, userID, consentType string) (*models.ConsentRecord, error)
	WithdrawConsent(ctx context.Context, userID, consentType string, at time.Time) (*models.ConsentRecord, error)
	ListConsents(ctx context.Context, userID string) ([]*models.ConsentRecord, error)
	LogAuditEvent(ctx context.Context, event models.AuditEvent) error
	ListAuditEvents(ctx context.Context, userID string) ([]models.AuditEvent, error)
	ListProcessingActivities(ctx context.Context) ([]models.ProcessingActivity, error)
	ExportUserData(ctx context.Context, userID string) (*models.UserDataExport, error)
	EraseUserData(ctx context.Context, userID string) (int, error)
}

// Mirror receives a copy of every audit event. Publishing is best effort;
// the stored trail is the record of fact, the mirror is operational.
type Mirror interface {
	Publish(ctx context.Context, event models.AuditEvent) error
}

// SaveRequest carries one consent decision from the transport layer.
type SaveRequest struct {
	UserID      string
	ConsentType string
	Granted     bool
	Purpose     string
	Metadata    map[string]string
}

// Decision is the answer served to processing gates: whether this category
// of processing may proceed for this subject right now.
type Decision struct {
	UserID      string `json:"user_id"`
	ConsentType string `json:"consent_type"`
	Granted     bool   `json:"granted"`
}

// ErasureReceipt confirms an executed erasure request.
type ErasureReceipt struct {
	RequestRef     string    `json:"request_ref"`
	UserID         string    `json:"user_id"`
	RecordsRemoved int       `json:"records_removed"`
	ErasedAt       time.Time `json:"erased_at"`
}

type Option func(*Service)

// WithAuditMirror streams a copy of every audit event to an external sink.
func WithAuditMirror(m Mirror) Option {
	return func(s *Service) {
		s.mirror = m
	}
}

// WithClock overrides the time source. Tests pin it.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// Service owns no storage state; it orchestrates the bound repository and
// keeps the audit trail honest.
type Service struct {
	store   Store
	mirror  Mirror
	metrics *metrics.Metrics
	logger  *slog.Logger
	clock   func() time.Time
}

func New(store Store, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	svc := &Service{
		store:   store,
		logger:  logger,
		metrics: m,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Save records a consent decision for a (user, type) pair. A denial is a
// decision too: granted=false is stored and audited exactly like a grant.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*models.ConsentRecord, error) {
	record := &models.ConsentRecord{
		ID:          ids.NewConsentID(),
		UserID:      req.UserID,
		ConsentType: req.ConsentType,
		Granted:     req.Granted,
		Purpose:     req.Purpose,
		OriginIP:    requestcontext.ClientIP(ctx),
		Metadata:    req.Metadata,
		Timestamp:   s.clock().UTC(),
	}
	record.Normalize()
	if err := record.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.store.SaveConsent(ctx, record)
	if err != nil {
		return nil, backendError(err, "saving consent")
	}

	details := map[string]string{
		models.DetailConsentID:   saved.ID,
		models.DetailConsentType: saved.ConsentType,
		models.DetailGranted:     strconv.FormatBool(saved.Granted),
	}
	if record.OriginIP != "" {
		details[models.DetailOrigin] = record.OriginIP
	}
	if ua := requestcontext.UserAgent(ctx); ua != "" {
		details[models.DetailClient] = device.ClientSummary(ua)
	}
	s.audit(ctx, models.AuditActionConsentGranted, saved.UserID, details)
	return saved, nil
}

func (s *Service) Get(ctx context.Context, userID, consentType string) (*models.ConsentRecord, error) {
	userID, consentType, err := subjectPair(userID, consentType)
	if err != nil {
		return nil, err
	}
	record, err := s.store.GetConsent(ctx, userID, consentType)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "consent record not found")
		}
		return nil, backendError(err, "reading consent")
	}
	return record, nil
}

// Check answers whether processing may proceed. An absent record is an
// answer, not an error: no consent means no permission.
func (s *Service) Check(ctx context.Context, userID, consentType string) (*Decision, error) {
	userID, consentType, err := subjectPair(userID, consentType)
	if err != nil {
		return nil, err
	}
	decision := &Decision{UserID: userID, ConsentType: consentType}
	record, err := s.store.GetConsent(ctx, userID, consentType)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return decision, nil
		}
		return nil, backendError(err, "reading consent")
	}
	decision.Granted = record.EffectivelyActive()
	return decision, nil
}

// Withdraw marks the pair withdrawn. Withdrawing an absent or already
// withdrawn pair is a no-op: it returns (nil, nil) and leaves no audit trace.
func (s *Service) Withdraw(ctx context.Context, userID, consentType string) (*models.ConsentRecord, error) {
	userID, consentType, err := subjectPair(userID, consentType)
	if err != nil {
		return nil, err
	}
	withdrawn, err := s.store.WithdrawConsent(ctx, userID, consentType, s.clock().UTC())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, backendError(err, "withdrawing consent")
	}
	s.audit(ctx, models.AuditActionConsentWithdrawn, userID, map[string]string{
		models.DetailConsentID:   withdrawn.ID,
		models.DetailConsentType: consentType,
	})
	return withdrawn, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]*models.ConsentRecord, error) {
	userID, err := subjectID(userID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListConsents(ctx, userID)
	if err != nil {
		return nil, backendError(err, "listing consents")
	}
	return records, nil
}

// Access serves a subject access request (Art. 15): everything stored about
// the subject, stamped with a request reference.
func (s *Service) Access(ctx context.Context, userID string) (*models.UserDataExport, error) {
	userID, err := subjectID(userID)
	if err != nil {
		return nil, err
	}
	export, err := s.store.ExportUserData(ctx, userID)
	if err != nil {
		return nil, backendError(err, "exporting subject data")
	}
	export.RequestRef = ids.NewRequestRef()
	export.GeneratedAt = s.clock().UTC()
	s.audit(ctx, models.AuditActionAccessRequested, userID, map[string]string{
		models.DetailRequestRef: export.RequestRef,
	})
	s.metrics.IncrementExportsServed()
	return export, nil
}

// Erase executes an erasure request (Art. 17): every consent record for the
// subject is removed. The audit trail is exempt and receives the erasure
// event after the deletion, so the trail records an erasure it survived.
func (s *Service) Erase(ctx context.Context, userID string) (*ErasureReceipt, error) {
	userID, err := subjectID(userID)
	if err != nil {
		return nil, err
	}
	removed, err := s.store.EraseUserData(ctx, userID)
	if err != nil {
		return nil, backendError(err, "erasing subject data")
	}

	receipt := &ErasureReceipt{
		RequestRef:     ids.NewRequestRef(),
		UserID:         userID,
		RecordsRemoved: removed,
		ErasedAt:       s.clock().UTC(),
	}
	s.audit(ctx, models.AuditActionErasureRequested, userID, map[string]string{
		models.DetailRequestRef:     receipt.RequestRef,
		models.DetailRecordsRemoved: strconv.Itoa(removed),
	})
	s.metrics.AddErasedRecords(removed)
	return receipt, nil
}

// Rectify applies a field-level correction (Art. 16) to the stored record.
// Grant state and timestamps are history, not rectifiable; the patch may
// touch the purpose text and metadata entries only.
func (s *Service) Rectify(ctx context.Context, userID, consentType string, patch models.Rectification) (*models.ConsentRecord, error) {
	userID, consentType, err := subjectPair(userID, consentType)
	if err != nil {
		return nil, err
	}
	if patch.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "rectification patch is empty")
	}
	if patch.Purpose != nil {
		trimmed := strings.TrimSpace(*patch.Purpose)
		patch.Purpose = &trimmed
	}

	existing, err := s.store.GetConsent(ctx, userID, consentType)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "no consent record to rectify")
		}
		return nil, backendError(err, "reading consent")
	}

	updated := existing.Clone()
	diff := patch.Apply(updated)
	if len(diff) == 0 {
		// Stored record already matches the patch.
		return existing, nil
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.store.SaveConsent(ctx, updated)
	if err != nil {
		return nil, backendError(err, "storing rectified consent")
	}
	if existing.WithdrawnAt != nil {
		// Save clears the withdrawal mark; re-stamp it with the original time.
		saved, err = s.store.WithdrawConsent(ctx, userID, consentType, *existing.WithdrawnAt)
		if err != nil {
			return nil, backendError(err, "restoring withdrawal mark")
		}
	}

	details := map[string]string{
		models.DetailConsentID:   saved.ID,
		models.DetailConsentType: consentType,
	}
	for k, v := range diff {
		details[k] = v
	}
	s.audit(ctx, models.AuditActionRectificationRequested, userID, details)
	return saved, nil
}

// Portability serves a portability request (Art. 20). The native structured
// format is JSON; any other format belongs to an external converter and is
// rejected here.
func (s *Service) Portability(ctx context.Context, userID, format string) (*models.UserDataExport, error) {
	userID, err := subjectID(userID)
	if err != nil {
		return nil, err
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "json"
	}
	if format != "json" {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("unsupported export format %q, supported formats: json", format))
	}

	export, err := s.store.ExportUserData(ctx, userID)
	if err != nil {
		return nil, backendError(err, "exporting subject data")
	}
	export.RequestRef = ids.NewRequestRef()
	export.GeneratedAt = s.clock().UTC()
	s.audit(ctx, models.AuditActionPortabilityRequested, userID, map[string]string{
		models.DetailRequestRef: export.RequestRef,
		models.DetailFormat:     format,
	})
	s.metrics.IncrementExportsServed()
	return export, nil
}

func (s *Service) ProcessingActivities(ctx context.Context) ([]models.ProcessingActivity, error) {
	activities, err := s.store.ListProcessingActivities(ctx)
	if err != nil {
		return nil, backendError(err, "listing processing activities")
	}
	return activities, nil
}

// AuditTrail returns the trail for one subject, or the whole trail when
// userID is empty.
func (s *Service) AuditTrail(ctx context.Context, userID string) ([]models.AuditEvent, error) {
	events, err := s.store.ListAuditEvents(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, backendError(err, "reading audit trail")
	}
	return events, nil
}

// audit appends one trail event and mirrors it. Failures are counted and
// logged, never returned: losing an audit entry must not fail the operation
// that produced it.
func (s *Service) audit(ctx context.Context, action, userID string, details map[string]string) {
	event := models.NewAuditEvent(action, userID, details)
	event.Timestamp = s.clock().UTC()
	if err := s.store.LogAuditEvent(ctx, event); err != nil {
		s.metrics.IncrementAuditLogFailures()
		s.logger.ErrorContext(ctx, "audit append failed",
			"action", action,
			"error", dErrors.Wrap(err, dErrors.CodeAuditLogFailure, "appending audit event"))
	} else {
		s.metrics.IncrementAuditEvents(action)
	}
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Publish(ctx, event); err != nil {
		s.metrics.IncrementAuditMirrorFailures()
		s.logger.WarnContext(ctx, "audit mirror publish failed",
			"action", action, "error", err)
	}
}

func subjectID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	return userID, nil
}

func subjectPair(userID, consentType string) (string, string, error) {
	userID, err := subjectID(userID)
	if err != nil {
		return "", "", err
	}
	consentType = models.NormalizeConsentType(consentType)
	if consentType == "" {
		return "", "", dErrors.New(dErrors.CodeValidation, "consent_type is required")
	}
	return userID, consentType, nil
}

// backendError classifies a backend failure for callers. The error names
// the operation, never the backend; backend identity is the monitor's.
// Commit conflicts keep their own code so racing writers see a retryable
// conflict instead of a backend outage, and an expired request deadline
// is the caller's timeout, not a backend fault.
func backendError(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, msg)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	}
}
