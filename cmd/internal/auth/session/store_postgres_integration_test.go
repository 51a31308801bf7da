package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// Integration tests are enabled when HELPDESK_TEST_DATABASE_URL is set.
// Unreachable Postgres skips these tests to keep local runs fast.

func TestPostgresStore_Contract(t *testing.T) {
	dbURL := os.Getenv("HELPDESK_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("HELPDESK_TEST_DATABASE_URL is not set; skipping Postgres integration test")
	}

	ctx := context.Background()
	pool := mustPGXPool(ctx, t, dbURL)
	defer pool.Close()

	runStoreContract(t, func(t *testing.T) Store {
		// A fresh profile per subtest keeps rows isolated.
		profile := "it-" + ulid.Make().String()
		s, err := NewPostgresStore(pool, profile)
		if err != nil {
			t.Fatalf("NewPostgresStore: %v", err)
		}
		if err := s.EnsureSchema(ctx); err != nil {
			t.Fatalf("EnsureSchema: %v", err)
		}
		t.Cleanup(func() { _ = s.Clear(context.Background()) })
		return s
	})
}

func mustPGXPool(ctx context.Context, t *testing.T, dbURL string) *pgxpool.Pool {
	t.Helper()

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		t.Fatalf("pgxpool.ParseConfig: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("pgxpool.NewWithConfig: %v", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		t.Skipf("postgres not reachable: %v", err)
	}
	return pool
}
