package models

import (
	"strings"
	"time"

	dErrors "tutela/pkg/domain-errors"
	s "tutela/pkg/string"
)

// ProcessingActivity is one entry in the record of processing activities
// (GDPR Art. 30). The register is operator-managed configuration: read-mostly,
// replaced wholesale when the register file changes.
type ProcessingActivity struct {
	ID               string    `json:"id" yaml:"id"`
	Name             string    `json:"name" yaml:"name"`
	Purpose          string    `json:"purpose" yaml:"purpose"`
	LegalBasis       string    `json:"legal_basis" yaml:"legal_basis"`
	DataCategories   []string  `json:"data_categories" yaml:"data_categories"`
	Recipients       []string  `json:"recipients" yaml:"recipients"`
	RetentionPeriod  string    `json:"retention_period" yaml:"retention_period"`
	SecurityMeasures []string  `json:"security_measures" yaml:"security_measures"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
}

// Clone returns a deep copy.
func (a ProcessingActivity) Clone() ProcessingActivity {
	out := a
	out.DataCategories = append([]string(nil), a.DataCategories...)
	out.Recipients = append([]string(nil), a.Recipients...)
	out.SecurityMeasures = append([]string(nil), a.SecurityMeasures...)
	return out
}

// Normalize trims whitespace the register file may carry. Hand-edited YAML
// entries routinely pick up stray spaces around values and list items.
func (a *ProcessingActivity) Normalize() {
	s.TrimStrings(&a.ID, &a.Name, &a.Purpose, &a.LegalBasis, &a.RetentionPeriod)
	s.TrimSlice(a.DataCategories)
	s.TrimSlice(a.Recipients)
	s.TrimSlice(a.SecurityMeasures)
}

// Validate checks that a register entry is complete enough to publish.
func (a *ProcessingActivity) Validate() error {
	if a == nil {
		return dErrors.New(dErrors.CodeValidation, "processing activity required")
	}
	for field, value := range map[string]string{
		"id":               a.ID,
		"name":             a.Name,
		"purpose":          a.Purpose,
		"legal_basis":      a.LegalBasis,
		"retention_period": a.RetentionPeriod,
	} {
		if strings.TrimSpace(value) == "" {
			return dErrors.New(dErrors.CodeValidation, "processing activity "+field+" is required")
		}
	}
	return nil
}
