package dto

import "tutela/internal/consent/models"

// ConsentsResponse wraps the consent records held for one data subject.
type ConsentsResponse struct {
	Consents []*models.ConsentRecord `json:"consents"`
}

// WithdrawResponse reports the outcome of a withdrawal request. Withdrawn is
// false when no consent was on file; withdrawing a consent that was never
// given is a no-op, not an error.
type WithdrawResponse struct {
	Withdrawn bool                  `json:"withdrawn"`
	Record    *models.ConsentRecord `json:"record,omitempty"`
	Message   string                `json:"message,omitempty"`
}

// ActivitiesResponse wraps the processing activity register.
type ActivitiesResponse struct {
	Activities []models.ProcessingActivity `json:"activities"`
}

// AuditTrailResponse wraps the audit events matching a trail query.
type AuditTrailResponse struct {
	Events []models.AuditEvent `json:"events"`
}
