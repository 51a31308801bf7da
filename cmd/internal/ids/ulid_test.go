package ids

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestNewULID_ParsesAndKeepsTimestamp(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := NewULID(now)
	if err != nil {
		t.Fatalf("NewULID: %v", err)
	}
	if len(id) != 26 {
		t.Fatalf("expected 26 chars, got %d (%q)", len(id), id)
	}

	parsed, err := ulid.Parse(id)
	if err != nil {
		t.Fatalf("ulid.Parse(%q): %v", id, err)
	}
	if got := ulid.Time(parsed.Time()); !got.Equal(now) {
		t.Fatalf("timestamp mismatch: got %v want %v", got, now)
	}
}

func TestNewRequestID_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 64)
	now := time.Now()
	for i := 0; i < 64; i++ {
		id := NewRequestID(now)
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate request id %q", id)
		}
		seen[id] = struct{}{}
	}
}
