package app

import (
	"errors"
	"fmt"

	"helpdesk/cmd/security/token"
)

// ValidateSecurityConfig enforces the session-at-rest policy at startup.
//
// Fail fast: a misconfigured store must not quietly fall back to plaintext tokens on disk.
func ValidateSecurityConfig(cfg Config) error {
	switch cfg.SessionStore {
	case StoreFile, StoreMemory, StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("config: HELPDESK_SESSION_STORE=%q (want file, memory, postgres or redis)", cfg.SessionStore)
	}

	if cfg.SessionStore == StorePostgres && cfg.DatabaseURL == "" {
		return errors.New("config: HELPDESK_SESSION_STORE=postgres but HELPDESK_DATABASE_URL is missing")
	}

	if cfg.RequireSealedSession {
		switch cfg.SessionStore {
		case StoreMemory:
		case StoreFile:
			if cfg.SessionPassphrase == "" {
				return errors.New("security policy: HELPDESK_REQUIRE_SEALED_SESSION=true but HELPDESK_SESSION_PASSPHRASE is missing")
			}
		default:
			return fmt.Errorf("security policy: HELPDESK_REQUIRE_SEALED_SESSION=true is not supported by the %s store", cfg.SessionStore)
		}
	}

	// A configured fingerprint key must be usable; an absent one means plain SHA-256 fingerprints.
	if _, err := token.HMACKeyFromEnv(32); err != nil && !errors.Is(err, token.ErrHMACKeyMissing) {
		if errors.Is(err, token.ErrHMACKeyTooShort) {
			return fmt.Errorf("security policy: %s is too short (min 32 bytes)", token.HMACEnvKey)
		}
		return err
	}

	return nil
}
