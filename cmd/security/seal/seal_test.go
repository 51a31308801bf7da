package seal

import (
	"bytes"
	"errors"
	"testing"
)

// testParams keeps KDF cost low so the suite stays fast.
func testParams() Argon2idParams {
	return Argon2idParams{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16}
}

func TestSealOpen_RoundTrip(t *testing.T) {
	t.Parallel()

	s, err := NewPassphraseSealer("correct horse", testParams())
	if err != nil {
		t.Fatalf("NewPassphraseSealer: %v", err)
	}

	plain := []byte(`{"access":"A1","refresh":"R1"}`)
	blob, err := s.Seal(plain)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Contains(blob, []byte("R1")) {
		t.Fatalf("sealed blob leaks plaintext")
	}

	got, err := s.Open(blob)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("Open()=%q want %q", got, plain)
	}
}

func TestSeal_FreshSaltAndNonce(t *testing.T) {
	t.Parallel()

	s, _ := NewPassphraseSealer("pw", testParams())
	a, _ := s.Seal([]byte("same"))
	b, _ := s.Seal([]byte("same"))
	if bytes.Equal(a, b) {
		t.Fatalf("expected distinct blobs for identical plaintext")
	}
}

func TestOpen_WrongPassphrase(t *testing.T) {
	t.Parallel()

	s1, _ := NewPassphraseSealer("one", testParams())
	s2, _ := NewPassphraseSealer("two", testParams())

	blob, err := s1.Seal([]byte("secret"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := s2.Open(blob); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
}

func TestOpen_RejectsMalformed(t *testing.T) {
	t.Parallel()

	s, _ := NewPassphraseSealer("pw", testParams())

	cases := map[string][]byte{
		"empty":     nil,
		"bad magic": []byte("nope-nope-nope-nope"),
		"truncated": append(append([]byte{}, magic...), 0, 0),
	}
	for name, blob := range cases {
		if _, err := s.Open(blob); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: expected ErrMalformed, got %v", name, err)
		}
	}
}

func TestOpen_RefusesOversizedParams(t *testing.T) {
	t.Parallel()

	s, _ := NewPassphraseSealer("pw", testParams())
	blob, _ := s.Seal([]byte("x"))

	// Inflate the recorded memory cost far beyond the local limits.
	tampered := append([]byte{}, blob...)
	tampered[4], tampered[5], tampered[6], tampered[7] = 0x7f, 0xff, 0xff, 0xff
	if _, err := s.Open(tampered); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestNewPassphraseSealer_Empty(t *testing.T) {
	t.Parallel()

	if _, err := NewPassphraseSealer("", testParams()); !errors.Is(err, ErrEmptyPassphrase) {
		t.Fatalf("expected ErrEmptyPassphrase, got %v", err)
	}
}

func TestParamsFromEnv(t *testing.T) {
	t.Setenv("HELPDESK_SEAL_MEMORY_KIB", "16384")
	t.Setenv("HELPDESK_SEAL_ITERATIONS", "3")
	t.Setenv("HELPDESK_SEAL_PARALLELISM", "2")

	p, err := ParamsFromEnv()
	if err != nil {
		t.Fatalf("ParamsFromEnv: %v", err)
	}
	if p.MemoryKiB != 16384 || p.Iterations != 3 || p.Parallelism != 2 {
		t.Fatalf("unexpected params: %+v", p)
	}

	t.Setenv("HELPDESK_SEAL_ITERATIONS", "0")
	if _, err := ParamsFromEnv(); err == nil {
		t.Fatalf("expected error for out-of-range iterations")
	}
}
