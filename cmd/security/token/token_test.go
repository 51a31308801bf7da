package token

import (
	"errors"
	"strings"
	"testing"
)

func TestFingerprint_StableAndShort(t *testing.T) {
	t.Setenv(HMACEnvKey, "")

	a := Fingerprint("access-token-A1")
	b := Fingerprint("access-token-A1")
	if a != b {
		t.Fatalf("fingerprint not stable: %q vs %q", a, b)
	}
	if len(a) != FingerprintLen {
		t.Fatalf("len=%d want %d", len(a), FingerprintLen)
	}
	if strings.Contains("access-token-A1", a) {
		t.Fatalf("fingerprint leaks token material: %q", a)
	}
	if a != HashSHA256Hex("access-token-A1")[:FingerprintLen] {
		t.Fatalf("expected sha256 prefix without HMAC key")
	}
}

func TestFingerprint_Empty(t *testing.T) {
	if got := Fingerprint("   "); got != "-" {
		t.Fatalf("Fingerprint(blank)=%q want -", got)
	}
}

func TestFingerprint_HMACChangesDigest(t *testing.T) {
	t.Setenv(HMACEnvKey, "")
	plain := Fingerprint("R1")

	t.Setenv(HMACEnvKey, strings.Repeat("k", 32))
	keyed := Fingerprint("R1")
	if keyed == plain {
		t.Fatalf("expected keyed fingerprint to differ from plain sha256")
	}
	if keyed != HashHMACSHA256Hex("R1", []byte(strings.Repeat("k", 32)))[:FingerprintLen] {
		t.Fatalf("keyed fingerprint mismatch")
	}
}

func TestHMACKeyFromEnv(t *testing.T) {
	t.Setenv(HMACEnvKey, "")
	if _, err := HMACKeyFromEnv(32); !errors.Is(err, ErrHMACKeyMissing) {
		t.Fatalf("expected ErrHMACKeyMissing, got %v", err)
	}

	t.Setenv(HMACEnvKey, "short")
	if _, err := HMACKeyFromEnv(32); !errors.Is(err, ErrHMACKeyTooShort) {
		t.Fatalf("expected ErrHMACKeyTooShort, got %v", err)
	}

	t.Setenv(HMACEnvKey, strings.Repeat("x", 40))
	key, err := HMACKeyFromEnv(32)
	if err != nil || len(key) != 40 {
		t.Fatalf("unexpected key=%d err=%v", len(key), err)
	}
}
