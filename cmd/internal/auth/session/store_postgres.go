package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the sessions table used by PostgresStore.
const Schema = `
CREATE SCHEMA IF NOT EXISTS helpdesk;
CREATE TABLE IF NOT EXISTS helpdesk.sessions (
	profile       text PRIMARY KEY,
	access_token  text NOT NULL,
	refresh_token text NOT NULL DEFAULT '',
	created_at    timestamptz NOT NULL,
	updated_at    timestamptz NOT NULL
);
`

// PostgresStore implements Store using PostgreSQL (helpdesk.sessions), one row per profile.
// Useful when several processes (CLI invocations, a watch daemon) share one session.
type PostgresStore struct {
	pool    *pgxpool.Pool
	profile string
	now     func() time.Time
}

// NewPostgresStore creates a Postgres-backed session store bound to profile.
func NewPostgresStore(pool *pgxpool.Pool, profile string) (*PostgresStore, error) {
	if pool == nil {
		return nil, ErrConfig
	}
	return &PostgresStore{
		pool:    pool,
		profile: sanitizeProfile(profile),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// EnsureSchema creates the sessions table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return StoreError{Op: "EnsureSchema", Backend: "postgres", Err: err}
	}
	return nil
}

// Load reads the profile's row.
func (s *PostgresStore) Load(ctx context.Context) (Tokens, error) {
	var t Tokens

	err := s.pool.QueryRow(ctx, `
		SELECT access_token, refresh_token
		FROM helpdesk.sessions
		WHERE profile = $1
	`, s.profile).Scan(&t.AccessToken, &t.RefreshToken)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tokens{}, ErrNoSession
	}
	if err != nil {
		return Tokens{}, StoreError{Op: "Load", Backend: "postgres", Err: err}
	}

	return t, nil
}

// Save upserts the profile's row.
func (s *PostgresStore) Save(ctx context.Context, t Tokens) error {
	if err := validateForSave(t); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO helpdesk.sessions (
			profile, access_token, refresh_token, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $4
		)
		ON CONFLICT (profile) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    created_at = EXCLUDED.created_at,
		    updated_at = EXCLUDED.updated_at
	`, s.profile, t.AccessToken, t.RefreshToken, s.now())
	if err != nil {
		return StoreError{Op: "Save", Backend: "postgres", Err: err}
	}
	return nil
}

// UpdateAccess replaces the access token in a single UPDATE, so concurrent refreshes
// serialize on the row lock.
func (s *PostgresStore) UpdateAccess(ctx context.Context, access, refresh string) error {
	if strings.TrimSpace(access) == "" {
		return ErrInvalidTokens
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE helpdesk.sessions
		SET access_token = $2,
		    refresh_token = COALESCE(NULLIF($3, ''), refresh_token),
		    updated_at = $4
		WHERE profile = $1
	`, s.profile, access, refresh, s.now())
	if err != nil {
		return StoreError{Op: "UpdateAccess", Backend: "postgres", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return ErrNoSession
	}
	return nil
}

// Clear deletes the profile's row (idempotent).
func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM helpdesk.sessions
		WHERE profile = $1
	`, s.profile)
	if err != nil {
		return StoreError{Op: "Clear", Backend: "postgres", Err: err}
	}
	return nil
}
