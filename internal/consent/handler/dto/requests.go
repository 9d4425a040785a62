// Package dto carries the request and response shapes of the consent HTTP
// surface. Requests validate wire-level structure here; domain invariants
// stay in models.
package dto

import (
	"tutela/internal/consent/models"
	"tutela/internal/consent/service"
	limits "tutela/pkg/platform/validation"
	s "tutela/pkg/string"
	"tutela/pkg/validation"
)

// SaveConsentRequest records one consent decision for a data subject.
// Granted carries no validate tag: false is a recorded denial, not a
// missing field.
type SaveConsentRequest struct {
	UserID      string            `json:"user_id" validate:"required,notblank,max=128"`
	ConsentType string            `json:"consent_type" validate:"required,notblank,max=64"`
	Granted     bool              `json:"granted"`
	Purpose     string            `json:"purpose" validate:"required,notblank,max=256"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Sanitize trims surrounding whitespace from string fields.
func (r *SaveConsentRequest) Sanitize() {
	s.TrimStrings(&r.UserID, &r.ConsentType, &r.Purpose)
}

// Validate checks that the request is well-formed.
func (r *SaveConsentRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	return limits.CheckMetadata("metadata", r.Metadata)
}

// ToSaveRequest converts the validated request into a service save request.
func (r *SaveConsentRequest) ToSaveRequest() service.SaveRequest {
	return service.SaveRequest{
		UserID:      r.UserID,
		ConsentType: r.ConsentType,
		Granted:     r.Granted,
		Purpose:     r.Purpose,
		Metadata:    r.Metadata,
	}
}

// WithdrawConsentRequest names the consent to withdraw.
type WithdrawConsentRequest struct {
	UserID      string `json:"user_id" validate:"required,notblank,max=128"`
	ConsentType string `json:"consent_type" validate:"required,notblank,max=64"`
}

// Sanitize trims surrounding whitespace from string fields.
func (r *WithdrawConsentRequest) Sanitize() {
	s.TrimStrings(&r.UserID, &r.ConsentType)
}

// Validate checks that the request is well-formed.
func (r *WithdrawConsentRequest) Validate() error {
	return validation.Validate(r)
}

// ErasureRequest names the data subject whose data must be erased.
type ErasureRequest struct {
	UserID string `json:"user_id" validate:"required,notblank,max=128"`
}

// Sanitize trims surrounding whitespace from string fields.
func (r *ErasureRequest) Sanitize() {
	s.TrimStrings(&r.UserID)
}

// Validate checks that the request is well-formed.
func (r *ErasureRequest) Validate() error {
	return validation.Validate(r)
}

// RectificationRequest corrects fields of a stored consent record. At least
// one of Purpose or Metadata must be present; that check belongs to the
// service, which owns patch semantics.
type RectificationRequest struct {
	UserID      string            `json:"user_id" validate:"required,notblank,max=128"`
	ConsentType string            `json:"consent_type" validate:"required,notblank,max=64"`
	Purpose     *string           `json:"purpose,omitempty" validate:"omitempty,max=256"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Sanitize trims surrounding whitespace from string fields.
func (r *RectificationRequest) Sanitize() {
	s.TrimStrings(&r.UserID, &r.ConsentType)
}

// Validate checks that the request is well-formed.
func (r *RectificationRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	return limits.CheckMetadata("metadata", r.Metadata)
}

// ToPatch converts the request into a rectification patch.
func (r *RectificationRequest) ToPatch() models.Rectification {
	return models.Rectification{
		Purpose:  r.Purpose,
		Metadata: r.Metadata,
	}
}
