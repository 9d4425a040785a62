package ids

import (
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a lexicographically sortable identifier.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewConsentID returns a consent record identifier, "consent_" + UUID.
func NewConsentID() string {
	return "consent_" + uuid.New().String()
}

// NewRequestRef returns a data subject request reference, "dsr_" + ULID.
// References sort by issue time, which keeps export listings stable.
func NewRequestRef() string {
	return "dsr_" + strings.ToLower(New())
}
