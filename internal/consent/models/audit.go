package models

import "time"

// Audit event actions describe what operation occurred.
const (
	AuditActionConsentGranted         = "consent_granted"         // Subject granted consent for a category
	AuditActionConsentWithdrawn       = "consent_withdrawn"       // Subject withdrew a previously stored consent
	AuditActionAccessRequested        = "access_requested"        // Art. 15 subject access request served
	AuditActionErasureRequested       = "erasure_requested"       // Art. 17 erasure executed; event survives the erasure
	AuditActionRectificationRequested = "rectification_requested" // Art. 16 field-level correction applied
	AuditActionPortabilityRequested   = "portability_requested"   // Art. 20 portable export served
	AuditActionRepositoryFallback     = "repository_fallback"     // Selector downgraded the bound backend
)

// Detail keys common across audit events.
const (
	DetailConsentID      = "consent_id"
	DetailConsentType    = "consent_type"
	DetailGranted        = "granted"
	DetailOrigin         = "origin_ip"
	DetailClient         = "client"
	DetailRequestRef     = "request_ref"
	DetailRecordsRemoved = "records_removed"
	DetailFormat         = "format"
	DetailFrom           = "from"
	DetailTo             = "to"
)

// AuditEvent is one entry in the append-only compliance trail.
//
// The trail supports no update or delete. IDs are assigned by the bound
// backend and are only meaningful within it; ordering is guaranteed per
// process, not across processes.
type AuditEvent struct {
	ID        int64             `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	UserID    string            `json:"user_id,omitempty"` // empty for process-level events such as repository_fallback
	Details   map[string]string `json:"details,omitempty"`
}

// NewAuditEvent builds an unsaved event. The backend assigns ID; Timestamp
// is set by the caller's clock so tests stay deterministic.
func NewAuditEvent(action, userID string, details map[string]string) AuditEvent {
	return AuditEvent{
		Action:  action,
		UserID:  userID,
		Details: details,
	}
}

// Clone returns a deep copy.
func (e AuditEvent) Clone() AuditEvent {
	out := e
	if e.Details != nil {
		out.Details = make(map[string]string, len(e.Details))
		for k, v := range e.Details {
			out.Details[k] = v
		}
	}
	return out
}
