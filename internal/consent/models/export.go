package models

import "time"

// UserDataExport aggregates everything stored about one data subject: the
// payload served for access (Art. 15) and portability (Art. 20) requests.
type UserDataExport struct {
	RequestRef           string               `json:"request_ref,omitempty"`
	UserID               string               `json:"user_id"`
	GeneratedAt          time.Time            `json:"generated_at"`
	Consents             []*ConsentRecord     `json:"consents"`
	AuditTrail           []AuditEvent         `json:"audit_trail"`
	ProcessingActivities []ProcessingActivity `json:"processing_activities"`
}

// Rectification is a field-level correction (Art. 16) to a stored consent
// record. Grant state, timestamps, and origin IP are historical facts and can
// only change through new grant or withdrawal operations; correctable fields
// are the purpose text and metadata entries.
type Rectification struct {
	Purpose  *string           `json:"purpose,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IsZero reports whether the patch would change nothing by construction.
func (r Rectification) IsZero() bool {
	return r.Purpose == nil && len(r.Metadata) == 0
}

// Apply mutates the record and returns a field-level diff for the audit
// trail. Unchanged fields produce no diff entries.
func (r Rectification) Apply(record *ConsentRecord) map[string]string {
	diff := make(map[string]string)
	if r.Purpose != nil {
		next := *r.Purpose
		if next != record.Purpose {
			diff["purpose_previous"] = record.Purpose
			diff["purpose"] = next
			record.Purpose = next
		}
	}
	for key, next := range r.Metadata {
		prev, existed := record.Metadata[key]
		if existed && prev == next {
			continue
		}
		if record.Metadata == nil {
			record.Metadata = make(map[string]string)
		}
		if existed {
			diff["metadata."+key+"_previous"] = prev
		}
		diff["metadata."+key] = next
		record.Metadata[key] = next
	}
	return diff
}
