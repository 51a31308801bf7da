package seal

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// magic prefixes every blob; it is also bound into the AEAD as additional data.
var magic = []byte("hds1")

// header: magic | memKiB u32 | iterations u32 | parallelism u8 | saltLen u8
const headerLen = 4 + 4 + 4 + 1 + 1

// PassphraseSealer seals and opens blobs under a passphrase.
type PassphraseSealer struct {
	passphrase []byte
	params     Argon2idParams
}

// NewPassphraseSealer builds a sealer with the given KDF parameters.
func NewPassphraseSealer(passphrase string, params Argon2idParams) (*PassphraseSealer, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	if params.SaltLength == 0 {
		params.SaltLength = DefaultParams().SaltLength
	}
	if !withinReasonableBounds(params, params) {
		return nil, fmt.Errorf("seal: invalid argon2id params %+v", params)
	}
	return &PassphraseSealer{passphrase: []byte(passphrase), params: params}, nil
}

// Seal encrypts plain with a fresh salt and nonce.
func (s *PassphraseSealer) Seal(plain []byte) ([]byte, error) {
	salt := make([]byte, s.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}

	aead, err := chacha20poly1305.NewX(s.derive(salt, s.params))
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(headerLen + len(salt) + len(nonce) + len(plain) + aead.Overhead())
	buf.Write(magic)
	_ = binary.Write(&buf, binary.BigEndian, s.params.MemoryKiB)
	_ = binary.Write(&buf, binary.BigEndian, s.params.Iterations)
	buf.WriteByte(s.params.Parallelism)
	buf.WriteByte(byte(len(salt)))
	buf.Write(salt)
	buf.Write(nonce)

	return aead.Seal(buf.Bytes(), nonce, plain, magic), nil
}

// Open decrypts a blob produced by Seal.
func (s *PassphraseSealer) Open(blob []byte) ([]byte, error) {
	if len(blob) < headerLen || !bytes.Equal(blob[:4], magic) {
		return nil, ErrMalformed
	}

	params := Argon2idParams{
		MemoryKiB:   binary.BigEndian.Uint32(blob[4:8]),
		Iterations:  binary.BigEndian.Uint32(blob[8:12]),
		Parallelism: blob[12],
		SaltLength:  uint32(blob[13]),
	}
	if !withinReasonableBounds(params, s.params) {
		return nil, ErrMalformed
	}

	rest := blob[headerLen:]
	if len(rest) < int(params.SaltLength)+chacha20poly1305.NonceSizeX {
		return nil, ErrMalformed
	}
	salt := rest[:params.SaltLength]
	nonce := rest[params.SaltLength : int(params.SaltLength)+chacha20poly1305.NonceSizeX]
	sealed := rest[int(params.SaltLength)+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(s.derive(salt, params))
	if err != nil {
		return nil, err
	}

	plain, err := aead.Open(nil, nonce, sealed, magic)
	if err != nil {
		return nil, ErrOpen
	}
	return plain, nil
}

func (s *PassphraseSealer) derive(salt []byte, p Argon2idParams) []byte {
	return argon2.IDKey(s.passphrase, salt, p.Iterations, p.MemoryKiB, p.Parallelism, chacha20poly1305.KeySize)
}
