package session

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps the session in process memory.
// Used by tests and by short-lived invocations that must not touch disk.
type MemoryStore struct {
	mu     sync.Mutex
	tokens Tokens
	set    bool
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored tokens.
func (s *MemoryStore) Load(ctx context.Context) (Tokens, error) {
	if err := ctx.Err(); err != nil {
		return Tokens{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set {
		return Tokens{}, ErrNoSession
	}
	return s.tokens, nil
}

// Save replaces the stored session.
func (s *MemoryStore) Save(ctx context.Context, t Tokens) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateForSave(t); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = t
	s.set = true
	return nil
}

// UpdateAccess swaps the access token (and optionally the refresh token).
func (s *MemoryStore) UpdateAccess(ctx context.Context, access, refresh string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(access) == "" {
		return ErrInvalidTokens
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set {
		return ErrNoSession
	}
	s.tokens.AccessToken = access
	if strings.TrimSpace(refresh) != "" {
		s.tokens.RefreshToken = refresh
	}
	return nil
}

// Clear drops the session.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = Tokens{}
	s.set = false
	return nil
}
