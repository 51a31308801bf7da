// Package token provides token fingerprinting for the helpdesk client.
//
// Access and refresh tokens are opaque secrets and must never reach logs.
// Fingerprint derives a short, stable, non-reversible tag so that log lines
// can still be correlated across a refresh or a replay.
//
// Environment:
//   - HELPDESK_TOKEN_HMAC_KEY: when set, fingerprints are HMAC-SHA256 keyed,
//     so they cannot be confirmed offline against a leaked token.
//     Otherwise plain SHA-256 is used.
package token
