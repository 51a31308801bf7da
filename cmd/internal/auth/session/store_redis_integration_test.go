package session

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// Integration tests are enabled when HELPDESK_TEST_REDIS_ADDR is set.

func testRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("HELPDESK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("HELPDESK_TEST_REDIS_ADDR is not set; skipping Redis integration test")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	return client
}

func TestRedisStore_Contract(t *testing.T) {
	client := testRedisClient(t)

	runStoreContract(t, func(t *testing.T) Store {
		s, err := NewRedisStore(client, "it-"+ulid.Make().String(), time.Minute)
		if err != nil {
			t.Fatalf("NewRedisStore: %v", err)
		}
		t.Cleanup(func() { _ = s.Clear(context.Background()) })
		return s
	})
}

// clearBeforeExec runs clear once, right before the next MULTI/EXEC is sent.
type clearBeforeExec struct {
	armed atomic.Bool
	clear func(ctx context.Context)
}

func (h *clearBeforeExec) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *clearBeforeExec) ProcessHook(next redis.ProcessHook) redis.ProcessHook { return next }

func (h *clearBeforeExec) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		if h.armed.CompareAndSwap(true, false) {
			h.clear(ctx)
		}
		return next(ctx, cmds)
	}
}

func TestRedisStore_UpdateAccessAfterConcurrentClear(t *testing.T) {
	ctx := context.Background()
	other := testRedisClient(t)

	client := redis.NewClient(&redis.Options{Addr: other.Options().Addr})
	t.Cleanup(func() { _ = client.Close() })

	profile := "it-" + ulid.Make().String()
	s, err := NewRedisStore(client, profile, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	logout, _ := NewRedisStore(other, profile, time.Minute)
	t.Cleanup(func() { _ = logout.Clear(context.Background()) })

	if err := s.Save(ctx, Tokens{AccessToken: "A1", RefreshToken: "R1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	hook := &clearBeforeExec{clear: func(ctx context.Context) {
		if err := logout.Clear(ctx); err != nil {
			t.Errorf("Clear: %v", err)
		}
	}}
	hook.armed.Store(true)
	client.AddHook(hook)

	if err := s.UpdateAccess(ctx, "A2", ""); !errors.Is(err, ErrNoSession) {
		t.Fatalf("UpdateAccess err=%v want ErrNoSession", err)
	}
	if got, err := s.Load(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("after logout Load=%+v err=%v want ErrNoSession", got, err)
	}
}
