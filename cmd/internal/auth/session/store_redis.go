package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// updateAccessAttempts bounds the optimistic WATCH retries in UpdateAccess.
const updateAccessAttempts = 3

// RedisStore keeps the session under helpdesk:session:<profile> as a JSON value.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store bound to profile.
// ttl <= 0 stores the session without expiry.
func NewRedisStore(client *redis.Client, profile string, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, ErrConfig
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{
		client: client,
		key:    "helpdesk:session:" + sanitizeProfile(profile),
		ttl:    ttl,
	}, nil
}

// Load reads and decodes the stored session.
func (r *RedisStore) Load(ctx context.Context) (Tokens, error) {
	val, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return Tokens{}, ErrNoSession
	}
	if err != nil {
		return Tokens{}, StoreError{Op: "Load", Backend: "redis", Err: err}
	}

	var t Tokens
	if err := json.Unmarshal([]byte(val), &t); err != nil {
		return Tokens{}, StoreError{Op: "Load", Backend: "redis", Err: fmt.Errorf("failed to unmarshal: %w", err)}
	}
	if t.IsZero() {
		return Tokens{}, ErrNoSession
	}
	return t, nil
}

// Save overwrites the stored session.
func (r *RedisStore) Save(ctx context.Context, t Tokens) error {
	if err := validateForSave(t); err != nil {
		return err
	}

	data, err := json.Marshal(t)
	if err != nil {
		return StoreError{Op: "Save", Backend: "redis", Err: fmt.Errorf("failed to marshal: %w", err)}
	}

	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return StoreError{Op: "Save", Backend: "redis", Err: err}
	}
	return nil
}

// UpdateAccess rewrites the session inside an optimistic WATCH transaction,
// so a concurrent Clear is never resurrected by a late refresh. Contended
// transactions are retried a few times, then reported as a StoreError.
func (r *RedisStore) UpdateAccess(ctx context.Context, access, refresh string) error {
	if strings.TrimSpace(access) == "" {
		return ErrInvalidTokens
	}

	txf := func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, r.key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrNoSession
		}
		if err != nil {
			return err
		}

		var t Tokens
		if err := json.Unmarshal([]byte(val), &t); err != nil {
			return fmt.Errorf("failed to unmarshal: %w", err)
		}
		t.AccessToken = access
		if strings.TrimSpace(refresh) != "" {
			t.RefreshToken = refresh
		}

		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if r.ttl > 0 {
				pipe.Set(ctx, r.key, data, r.ttl)
			} else {
				pipe.Set(ctx, r.key, data, redis.KeepTTL)
			}
			return nil
		})
		return err
	}

	var err error
	for range updateAccessAttempts {
		err = r.client.Watch(ctx, txf, r.key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
		// The key changed between GET and EXEC. Re-read it: a Clear must
		// surface as ErrNoSession, never as a persisted refresh.
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNoSession):
		return ErrNoSession
	default:
		return StoreError{Op: "UpdateAccess", Backend: "redis", Err: err}
	}
}

// Clear deletes the key (idempotent).
func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return StoreError{Op: "Clear", Backend: "redis", Err: err}
	}
	return nil
}
