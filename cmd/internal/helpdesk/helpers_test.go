package helpdesk

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"helpdesk/cmd/internal/auth/client"
	"helpdesk/cmd/internal/auth/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestAPI starts a fake backend serving mux under /api and returns a client bound to store.
func newTestAPI(t *testing.T, mux *http.ServeMux, store session.Store) *client.Client {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := client.DefaultConfig()
	cfg.BaseURL = srv.URL + "/api"
	cfg.Timeout = 2 * time.Second

	c, err := client.New(cfg, store, client.WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func loggedInStore(t *testing.T) *session.MemoryStore {
	t.Helper()
	s := session.NewMemoryStore()
	if err := s.Save(context.Background(), session.Tokens{AccessToken: "A1", RefreshToken: "R1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		t.Errorf("decode request body: %v", err)
	}
	return m
}
