// Package tracer is the span abstraction the repository monitor emits
// through.
//
// The monitor and the stores under it depend on this narrow interface
// instead of OpenTelemetry types. Tests run on the noop implementation
// while production wires NewOTel in, and repository code never sees the
// difference. Subject identifiers go into spans only as truncated hashes,
// never in the clear.
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span is one traced repository operation in flight.
type Span interface {
	// End closes the span. A non-nil error marks the span failed.
	// Call it exactly once, normally deferred at the wrap site.
	End(err error)

	// SetAttributes attaches key-value pairs after the span has started.
	SetAttributes(attrs ...Attribute)

	// AddEvent marks a point in time inside the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer opens spans. Implementations must tolerate concurrent Start calls.
type Tracer interface {
	// Start opens a span under name and hands back a context carrying it.
	// Child operations take the returned context; the caller owns the End
	// call.
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair carried on a span.
type Attribute struct {
	Key   string
	Value any
}

// String makes a string attribute.
func String(key, value string) Attribute { return Attribute{key, value} }

// Bool makes a boolean attribute.
func Bool(key string, value bool) Attribute { return Attribute{key, value} }

// Int64 makes an int64 attribute.
func Int64(key string, value int64) Attribute { return Attribute{key, value} }

// Float64 makes a float64 attribute.
func Float64(key string, value float64) Attribute { return Attribute{key, value} }

// Duration makes an attribute holding the duration in whole milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{key, value.Milliseconds()}
}

// HashSubjectID maps a data subject ID to a short stable token for span
// attributes. Eight bytes of SHA-256 keep traces correlatable without
// writing the raw identifier anywhere a trace backend retains.
func HashSubjectID(userID string) string {
	if userID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:8])
}

// Keys the monitor sets on repository spans.
const (
	AttrBackend   = "repository.backend"
	AttrOperation = "repository.operation"
	AttrSubject   = "subject_hash"
	AttrRecords   = "records"
)
