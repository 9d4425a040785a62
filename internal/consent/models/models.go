package models

import (
	"strings"
	"time"

	dErrors "tutela/pkg/domain-errors"
	limits "tutela/pkg/platform/validation"
)

// ConsentRecord captures a data subject's decision for a category of processing.
//
// # Identity Invariant
//
// Exactly one logical record exists per (UserID, ConsentType). A new grant for
// an existing pair updates that record in place; it never creates a duplicate.
// Withdrawal sets WithdrawnAt and leaves Granted historically accurate: the
// boolean records the grant decision, WithdrawnAt records current effect.
// A re-grant is a new decision and clears WithdrawnAt.
//
// Records are never physically deleted except by erasure, which removes every
// record for a UserID.
type ConsentRecord struct {
	ID          string            `json:"consent_id"`
	UserID      string            `json:"user_id"`
	ConsentType string            `json:"consent_type"`
	Granted     bool              `json:"granted"`
	Purpose     string            `json:"purpose"`
	OriginIP    string            `json:"origin_ip,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	WithdrawnAt *time.Time        `json:"withdrawn_at"`
}

// NormalizeConsentType lowercases and trims a consent type so "Marketing"
// and "marketing " address the same logical record.
func NormalizeConsentType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// Normalize applies canonical forms before validation or storage.
func (c *ConsentRecord) Normalize() {
	if c == nil {
		return
	}
	c.UserID = strings.TrimSpace(c.UserID)
	c.ConsentType = NormalizeConsentType(c.ConsentType)
	c.Purpose = strings.TrimSpace(c.Purpose)
}

// Validate checks domain invariants. Violations never reach a backend.
// Records built in-process face the same length caps the HTTP surface
// enforces on request fields.
func (c *ConsentRecord) Validate() error {
	if c == nil {
		return dErrors.New(dErrors.CodeValidation, "consent record required")
	}
	if c.UserID == "" {
		return dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	if c.ConsentType == "" {
		return dErrors.New(dErrors.CodeValidation, "consent_type is required")
	}
	if c.Purpose == "" {
		return dErrors.New(dErrors.CodeValidation, "purpose is required")
	}
	if err := limits.CheckStringLength("user_id", c.UserID, limits.MaxUserIDLength); err != nil {
		return err
	}
	if err := limits.CheckStringLength("consent_type", c.ConsentType, limits.MaxConsentTypeLength); err != nil {
		return err
	}
	if err := limits.CheckStringLength("purpose", c.Purpose, limits.MaxPurposeLength); err != nil {
		return err
	}
	return limits.CheckMetadata("metadata", c.Metadata)
}

// EffectivelyActive reports whether the consent currently permits processing:
// granted and not withdrawn. This is the only status downstream decisions
// may rely on.
func (c *ConsentRecord) EffectivelyActive() bool {
	return c != nil && c.Granted && c.WithdrawnAt == nil
}

// Status represents the lifecycle state of a consent record.
type Status string

const (
	StatusActive    Status = "active"
	StatusWithdrawn Status = "withdrawn"
	StatusDenied    Status = "denied"
)

// Status returns the display state: active, withdrawn, or denied.
func (c *ConsentRecord) Status() Status {
	switch {
	case c.WithdrawnAt != nil:
		return StatusWithdrawn
	case c.Granted:
		return StatusActive
	default:
		return StatusDenied
	}
}

// Clone returns a deep copy. Stores hand out clones so callers cannot mutate
// shared state.
func (c *ConsentRecord) Clone() *ConsentRecord {
	if c == nil {
		return nil
	}
	out := *c
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	if c.WithdrawnAt != nil {
		t := *c.WithdrawnAt
		out.WithdrawnAt = &t
	}
	return &out
}
