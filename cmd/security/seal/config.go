package seal

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Argon2idParams controls Argon2id key-derivation cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
}

// DefaultParams returns a baseline suitable for an interactive CLI:
// one derivation per session read or write.
func DefaultParams() Argon2idParams {
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Argon2idParams{
		MemoryKiB:   64 * 1024, // 64 MiB
		Iterations:  2,
		Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above; safe conversion.
		SaltLength:  16,
	}
}

// ParamsFromEnv loads KDF parameters from environment variables.
//
// Env surface:
// - HELPDESK_SEAL_MEMORY_KIB
// - HELPDESK_SEAL_ITERATIONS
// - HELPDESK_SEAL_PARALLELISM
func ParamsFromEnv() (Argon2idParams, error) {
	p := DefaultParams()

	if v, ok := os.LookupEnv("HELPDESK_SEAL_MEMORY_KIB"); ok {
		u, err := atou32(v, 8*1024, 1024*1024) // 8 MiB .. 1 GiB
		if err != nil {
			return Argon2idParams{}, fmt.Errorf("HELPDESK_SEAL_MEMORY_KIB: %w", err)
		}
		p.MemoryKiB = u
	}

	if v, ok := os.LookupEnv("HELPDESK_SEAL_ITERATIONS"); ok {
		u, err := atou32(v, 1, 20)
		if err != nil {
			return Argon2idParams{}, fmt.Errorf("HELPDESK_SEAL_ITERATIONS: %w", err)
		}
		p.Iterations = u
	}

	if v, ok := os.LookupEnv("HELPDESK_SEAL_PARALLELISM"); ok {
		u, err := atou32(v, 1, 64)
		if err != nil {
			return Argon2idParams{}, fmt.Errorf("HELPDESK_SEAL_PARALLELISM: %w", err)
		}
		par, err := u32ToU8(u)
		if err != nil {
			return Argon2idParams{}, fmt.Errorf("HELPDESK_SEAL_PARALLELISM: %w", err)
		}
		p.Parallelism = par
	}

	return p, nil
}

func atou32(s string, minVal, maxVal uint32) (uint32, error) {
	s = strings.TrimSpace(s)
	u64, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an unsigned integer")
	}

	u := uint32(u64)
	if u < minVal || u > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return u, nil
}

func u32ToU8(u uint32) (uint8, error) {
	if u > math.MaxUint8 {
		return 0, fmt.Errorf("out of range [0..%d]", math.MaxUint8)
	}
	return uint8(u), nil
}

func withinReasonableBounds(got Argon2idParams, limits Argon2idParams) bool {
	// Blobs sealed under older/smaller settings open fine; wildly larger ones are refused.
	if got.MemoryKiB == 0 || got.MemoryKiB > limits.MemoryKiB*2 {
		return false
	}
	if got.Iterations == 0 || got.Iterations > limits.Iterations*2 {
		return false
	}
	if got.Parallelism == 0 || got.Parallelism > limits.Parallelism*2 {
		return false
	}
	if got.SaltLength < 8 || got.SaltLength > 64 {
		return false
	}
	return true
}
