package session

import (
	"context"
	"strings"
)

// Tokens is the access/refresh pair returned by login, registration and refresh.
type Tokens struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

// IsZero reports whether neither token is set.
func (t Tokens) IsZero() bool {
	return strings.TrimSpace(t.AccessToken) == "" && strings.TrimSpace(t.RefreshToken) == ""
}

// HasAccess reports whether an access token is present.
func (t Tokens) HasAccess() bool { return strings.TrimSpace(t.AccessToken) != "" }

// HasRefresh reports whether a refresh token is present.
func (t Tokens) HasRefresh() bool { return strings.TrimSpace(t.RefreshToken) != "" }

// Store abstracts durable persistence for the single active session.
//
// Implementations must be safe for concurrent use: two refreshes racing to
// write the access token must not interleave a partial write.
type Store interface {
	// Load returns the stored tokens, or ErrNoSession.
	Load(ctx context.Context) (Tokens, error)

	// Save replaces the stored session (login, registration).
	Save(ctx context.Context, t Tokens) error

	// UpdateAccess replaces the access token after a refresh.
	// A non-empty refresh also replaces the refresh token (server-side rotation);
	// an empty one keeps the existing refresh token.
	// Returns ErrNoSession if the session was cleared in the meantime.
	UpdateAccess(ctx context.Context, access, refresh string) error

	// Clear destroys the session. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

func validateForSave(t Tokens) error {
	if !t.HasAccess() {
		return ErrInvalidTokens
	}
	return nil
}
