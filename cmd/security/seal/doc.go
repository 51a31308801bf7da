// Package seal encrypts small secrets at rest under a passphrase.
//
// It derives a key with Argon2id and seals with XChaCha20-Poly1305. The
// sealed blob is self-describing (KDF parameters + salt + nonce) so that
// blobs written under older settings still open after the defaults change.
//
// Security notes:
//   - Sealed blobs are treated as untrusted input during Open; KDF parameters
//     that exceed reasonable bounds are refused before any key derivation.
//   - The passphrase is never stored.
package seal
