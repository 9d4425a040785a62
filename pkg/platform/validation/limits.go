package validation

import (
	"fmt"

	dErrors "tutela/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize caps a request body at 64 KB. The largest legal payload,
	// a consent record with full metadata, stays well under it.
	MaxBodySize = 64 * 1024
)

// String element length limits
const (
	// MaxUserIDLength is the maximum length of a data subject identifier.
	MaxUserIDLength = 128

	// MaxConsentTypeLength is the maximum length of a consent type.
	MaxConsentTypeLength = 64

	// MaxPurposeLength is the maximum length of a processing purpose.
	MaxPurposeLength = 256

	// MaxMetadataKeyLength is the maximum length of a metadata key.
	MaxMetadataKeyLength = 64

	// MaxMetadataValueLength is the maximum length of a metadata value.
	MaxMetadataValueLength = 512
)

// Collection limits
const (
	// MaxMetadataEntries is the maximum number of metadata entries per consent record.
	MaxMetadataEntries = 32
)

// CheckSliceCount validates that a slice does not exceed the maximum count.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckMetadata validates entry count and per-entry key/value lengths of a
// metadata map.
func CheckMetadata(fieldName string, metadata map[string]string) error {
	if err := CheckSliceCount(fieldName+" entries", len(metadata), MaxMetadataEntries); err != nil {
		return err
	}
	for k, v := range metadata {
		if err := CheckStringLength(fieldName+" key", k, MaxMetadataKeyLength); err != nil {
			return err
		}
		if err := CheckStringLength(fieldName+" value", v, MaxMetadataValueLength); err != nil {
			return err
		}
	}
	return nil
}
