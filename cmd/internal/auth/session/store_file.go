package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Sealer encrypts the session file at rest.
type Sealer interface {
	Seal(plain []byte) ([]byte, error)
	Open(blob []byte) ([]byte, error)
}

// fileRecord is the on-disk format. Exactly one of (Access, Refresh) or Sealed is used.
type fileRecord struct {
	V       int    `json:"v"`
	Access  string `json:"access,omitempty"`
	Refresh string `json:"refresh,omitempty"`
	Sealed  []byte `json:"sealed,omitempty"`
}

const fileRecordVersion = 1

// FileStore persists the session as a 0600 JSON file, replaced atomically on every write.
//
// Writers hold mu for in-process callers and an flock on path+".lock" for other
// processes sharing the file, so a logout in one CLI invocation is never undone by a
// refresh finishing in another.
type FileStore struct {
	mu     sync.Mutex
	path   string
	sealer Sealer
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithSealer encrypts the file with s.
func WithSealer(s Sealer) FileOption {
	return func(fs *FileStore) {
		if fs == nil || s == nil {
			return
		}
		fs.sealer = s
	}
}

// NewFileStore creates a file-backed store at path.
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrConfig
	}
	s := &FileStore{path: filepath.Clean(path)}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// DefaultFilePath returns <user config dir>/helpdesk/session-<profile>.json.
func DefaultFilePath(profile string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "helpdesk", "session-"+sanitizeProfile(profile)+".json"), nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Sealed reports whether the store encrypts its file.
func (s *FileStore) Sealed() bool { return s.sealer != nil }

// Load reads the session file.
func (s *FileStore) Load(ctx context.Context) (Tokens, error) {
	if err := ctx.Err(); err != nil {
		return Tokens{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readLocked()
}

// Save overwrites the session file.
func (s *FileStore) Save(ctx context.Context, t Tokens) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateForSave(t); err != nil {
		return err
	}

	return s.locked("Save", func() error { return s.writeLocked(t) })
}

// UpdateAccess rewrites the file with a new access token (and optionally refresh token).
func (s *FileStore) UpdateAccess(ctx context.Context, access, refresh string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(access) == "" {
		return ErrInvalidTokens
	}

	return s.locked("UpdateAccess", func() error {
		cur, err := s.readLocked()
		if err != nil {
			return err
		}
		cur.AccessToken = access
		if strings.TrimSpace(refresh) != "" {
			cur.RefreshToken = refresh
		}
		return s.writeLocked(cur)
	})
}

// Clear removes the session file.
func (s *FileStore) Clear(_ context.Context) error {
	return s.locked("Clear", func() error {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return StoreError{Op: "Clear", Backend: "file", Err: err}
		}
		return nil
	})
}

// locked runs fn holding both the in-process mutex and the cross-process file lock.
func (s *FileStore) locked(op string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return StoreError{Op: op, Backend: "file", Err: err}
	}
	lockFile, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return StoreError{Op: op, Backend: "file", Err: fmt.Errorf("open lock file: %w", err)}
	}
	defer func() { _ = lockFile.Close() }()

	if err := flockLock(lockFile.Fd()); err != nil {
		return StoreError{Op: op, Backend: "file", Err: fmt.Errorf("acquire file lock: %w", err)}
	}
	defer func() { _ = flockUnlock(lockFile.Fd()) }()

	return fn()
}

func (s *FileStore) readLocked() (Tokens, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Tokens{}, ErrNoSession
	}
	if err != nil {
		return Tokens{}, StoreError{Op: "Load", Backend: "file", Err: err}
	}

	var rec fileRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Tokens{}, StoreError{Op: "Load", Backend: "file", Err: fmt.Errorf("decode: %w", err)}
	}

	t := Tokens{AccessToken: rec.Access, RefreshToken: rec.Refresh}
	if len(rec.Sealed) > 0 {
		if s.sealer == nil {
			return Tokens{}, ErrSealed
		}
		plain, err := s.sealer.Open(rec.Sealed)
		if err != nil {
			return Tokens{}, StoreError{Op: "Load", Backend: "file", Err: err}
		}
		if err := json.Unmarshal(plain, &t); err != nil {
			return Tokens{}, StoreError{Op: "Load", Backend: "file", Err: fmt.Errorf("decode sealed: %w", err)}
		}
	}

	if t.IsZero() {
		return Tokens{}, ErrNoSession
	}
	return t, nil
}

func (s *FileStore) writeLocked(t Tokens) error {
	rec := fileRecord{V: fileRecordVersion}
	if s.sealer != nil {
		plain, err := json.Marshal(t)
		if err != nil {
			return StoreError{Op: "Save", Backend: "file", Err: err}
		}
		sealed, err := s.sealer.Seal(plain)
		if err != nil {
			return StoreError{Op: "Save", Backend: "file", Err: err}
		}
		rec.Sealed = sealed
	} else {
		rec.Access = t.AccessToken
		rec.Refresh = t.RefreshToken
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return StoreError{Op: "Save", Backend: "file", Err: err}
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		return StoreError{Op: "Save", Backend: "file", Err: err}
	}
	return nil
}

// writeFileAtomic writes to a temp file in the same directory and renames it over path,
// so a crash never leaves a truncated session behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func sanitizeProfile(profile string) string {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return "default"
	}
	var b strings.Builder
	for _, r := range profile {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
