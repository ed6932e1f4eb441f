package id

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func Generate() string {
	return uuid.New().String()
}

func IsValidUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// NewReference returns a time-ordered, globally unique reference such as
// "dep-01J9Z3W8Q4K6M2X7V5T1R0N8B3".
func NewReference(prefix string) string {
	return prefix + "-" + newULID().String()
}

// NewTrackingNumber returns an uppercase tracking code prefixed with TRK.
func NewTrackingNumber() string {
	return "TRK" + strings.ToUpper(newULID().String())
}

func newULID() ulid.ULID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), entropy)
}
