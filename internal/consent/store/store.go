package store

import (
	"context"
	"time"

	"tutela/internal/consent/models"
)

// Backend identifies the persistence tier a Repository writes to.
type Backend string

const (
	BackendPrimary   Backend = "primary"   // relational store, PostgreSQL
	BackendSecondary Backend = "secondary" // embedded document store, Badger
	BackendFallback  Backend = "fallback"  // volatile in-process store
)

// Durable reports whether records written to this backend survive a restart.
func (b Backend) Durable() bool {
	return b == BackendPrimary || b == BackendSecondary
}

// Repository is the persistence contract shared by all three backends.
// Exactly one repository is bound per process; reads and writes are never
// split across backends.
type Repository interface {
	// SaveConsent upserts the record identified by (UserID, ConsentType) and
	// returns the stored state. A save over an existing pair replaces the
	// decision in place and clears WithdrawnAt; it never creates a second row.
	SaveConsent(ctx context.Context, record *models.ConsentRecord) (*models.ConsentRecord, error)

	// GetConsent returns the record for the pair, or sentinel.ErrNotFound.
	GetConsent(ctx context.Context, userID, consentType string) (*models.ConsentRecord, error)

	// WithdrawConsent stamps WithdrawnAt on an active record and returns the
	// updated state. Granted keeps the original decision. Absent or
	// already-withdrawn pairs return sentinel.ErrNotFound.
	WithdrawConsent(ctx context.Context, userID, consentType string, at time.Time) (*models.ConsentRecord, error)

	// ListConsents returns every consent record stored for the user.
	ListConsents(ctx context.Context, userID string) ([]*models.ConsentRecord, error)

	// LogAuditEvent appends one entry to the audit trail. The backend assigns
	// the event ID; entries are never updated or removed.
	LogAuditEvent(ctx context.Context, event models.AuditEvent) error

	// ListAuditEvents returns trail entries for the user in append order.
	// An empty userID returns the whole trail.
	ListAuditEvents(ctx context.Context, userID string) ([]models.AuditEvent, error)

	// ListProcessingActivities returns the stored Art. 30 register.
	ListProcessingActivities(ctx context.Context) ([]models.ProcessingActivity, error)

	// ReplaceProcessingActivities swaps the register wholesale. The register
	// is operator configuration; there is no per-entry mutation.
	ReplaceProcessingActivities(ctx context.Context, activities []models.ProcessingActivity) error

	// ExportUserData aggregates consents, audit trail, and the register for
	// one subject.
	ExportUserData(ctx context.Context, userID string) (*models.UserDataExport, error)

	// EraseUserData hard-deletes every consent record for the user and
	// returns the removed count. The audit trail is exempt from erasure.
	EraseUserData(ctx context.Context, userID string) (int, error)

	// Backend names the tier this repository persists to.
	Backend() Backend

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
