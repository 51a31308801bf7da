// Package ids provides ID primitives (ULID) used to correlate client requests.
package ids

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewULID returns a new ULID string (26 chars).
// ULIDs are lexicographically sortable, so request logs order naturally.
func NewULID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewRequestID returns a ULID for the X-Request-ID header.
// It never fails: on entropy errors it falls back to ulid.Make (monotonic entropy).
func NewRequestID(now time.Time) string {
	id, err := NewULID(now)
	if err == nil {
		return id
	}
	return ulid.Make().String()
}
