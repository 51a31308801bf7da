package helpdesk

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"helpdesk/cmd/internal/auth/client"
	"helpdesk/cmd/internal/auth/session"
)

func TestLoginSavesSessionAndReturnsUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method=%s want=POST", r.Method)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login carried credentials")
		}
		body := decodeBody(t, r)
		if body["username"] != "alice" || body["password"] != "secret" {
			t.Errorf("body=%v", body)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access":  "A1",
			"refresh": "R1",
			"user":    map[string]any{"id": 3, "username": "alice", "user_type": "client"},
		})
	})

	store := session.NewMemoryStore()
	auth := NewAuthService(newTestAPI(t, mux, store), discardLogger())

	u, err := auth.Login(context.Background(), " alice ", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.Username != "alice" || u.UserType != UserClient || u.ID != 3 {
		t.Fatalf("user=%+v", u)
	}

	tok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tok.AccessToken != "A1" || tok.RefreshToken != "R1" {
		t.Fatalf("stored=%+v want A1/R1", tok)
	}
}

func TestLoginOverwritesPreviousSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access": "B1", "refresh": "S1", "user": map[string]any{"username": "bob"}})
	})

	store := loggedInStore(t)
	auth := NewAuthService(newTestAPI(t, mux, store), discardLogger())

	if _, err := auth.Login(context.Background(), "bob", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	tok, _ := store.Load(context.Background())
	if tok.AccessToken != "B1" || tok.RefreshToken != "S1" {
		t.Fatalf("stored=%+v want B1/S1", tok)
	}
}

func TestLoginRejectedKeepsExistingSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
	})
	mux.HandleFunc("/api/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("login 401 must not trigger a refresh")
	})

	store := loggedInStore(t)
	auth := NewAuthService(newTestAPI(t, mux, store), discardLogger())

	_, err := auth.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrSessionEnded) {
		t.Fatalf("err=%v want plain 401", err)
	}
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Detail != "No active account found with the given credentials" {
		t.Fatalf("err=%v want server detail", err)
	}
	if _, err := store.Load(context.Background()); err != nil {
		t.Fatalf("existing session lost: %v", err)
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	auth := NewAuthService(newTestAPI(t, http.NewServeMux(), session.NewMemoryStore()), discardLogger())

	_, err := auth.Login(context.Background(), "", "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err=%v want *ValidationError", err)
	}
	if len(verr.Fields["username"]) == 0 || len(verr.Fields["password"]) == 0 {
		t.Fatalf("fields=%v want username and password", verr.Fields)
	}
}

func TestRegisterSendsPasswordConfirmationAndAutoLogsIn(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/register/", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		if body["password2"] != body["password"] || body["password"] != "hunter22" {
			t.Errorf("password2=%v password=%v", body["password2"], body["password"])
		}
		if body["user_type"] != "engineer" {
			t.Errorf("user_type=%v", body["user_type"])
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"access":  "A9",
			"refresh": "R9",
			"user":    map[string]any{"id": 9, "username": "eng_1", "user_type": "engineer"},
			"message": "User registered successfully",
		})
	})

	store := session.NewMemoryStore()
	auth := NewAuthService(newTestAPI(t, mux, store), discardLogger())

	res, err := auth.Register(context.Background(), RegisterInput{
		Username:  "eng_1",
		Email:     "eng@example.com",
		Password:  "hunter22",
		UserType:  UserEngineer,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Phone:     "+1 (555) 010-0000",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !res.LoggedIn || res.User == nil || res.User.Username != "eng_1" {
		t.Fatalf("result=%+v", res)
	}
	tok, err := store.Load(context.Background())
	if err != nil || tok.AccessToken != "A9" {
		t.Fatalf("stored=%+v err=%v want A9", tok, err)
	}
}

func TestRegisterWithoutTokensDoesNotLogIn(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/register/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"user": map[string]any{"username": "carol"}})
	})

	store := session.NewMemoryStore()
	auth := NewAuthService(newTestAPI(t, mux, store), discardLogger())

	res, err := auth.Register(context.Background(), RegisterInput{
		Username: "carol", Email: "c@example.com", Password: "secret1", FirstName: "C", LastName: "D",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.LoggedIn {
		t.Fatalf("LoggedIn=true without tokens")
	}
	if _, err := store.Load(context.Background()); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("store err=%v want ErrNoSession", err)
	}
}

func TestRegisterValidatesFields(t *testing.T) {
	auth := NewAuthService(newTestAPI(t, http.NewServeMux(), session.NewMemoryStore()), discardLogger())

	_, err := auth.Register(context.Background(), RegisterInput{
		Username: "a!",
		Email:    "not-an-email",
		Password: "123",
		UserType: "root",
		Phone:    "call me",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, ErrValidation) {
		t.Fatalf("err=%v want *ValidationError", err)
	}
	for _, field := range []string{"username", "email", "password", "user_type", "first_name", "last_name", "phone"} {
		if len(verr.Fields[field]) == 0 {
			t.Fatalf("missing error for %s in %v", field, verr.Fields)
		}
	}
}

func TestRegisterSurfacesServerFieldErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/register/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"username": []string{"A user with that username already exists."}})
	})
	auth := NewAuthService(newTestAPI(t, mux, session.NewMemoryStore()), discardLogger())

	_, err := auth.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "a@example.com", Password: "secret1", FirstName: "A", LastName: "L",
	})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Fields["username"]) != 1 {
		t.Fatalf("err=%v want username field error", err)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	store := loggedInStore(t)
	auth := NewAuthService(newTestAPI(t, http.NewServeMux(), store), discardLogger())

	if err := auth.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := store.Load(context.Background()); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("store err=%v want ErrNoSession", err)
	}
	if err := auth.Logout(context.Background()); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
}

func TestRestore(t *testing.T) {
	t.Run("no session", func(t *testing.T) {
		auth := NewAuthService(newTestAPI(t, http.NewServeMux(), session.NewMemoryStore()), discardLogger())
		_, ok, err := auth.Restore(context.Background())
		if ok || err != nil {
			t.Fatalf("ok=%v err=%v want false,nil", ok, err)
		}
	})

	t.Run("valid session", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"id": 1, "username": "alice", "user_type": "admin"})
		})
		auth := NewAuthService(newTestAPI(t, mux, loggedInStore(t)), discardLogger())

		u, ok, err := auth.Restore(context.Background())
		if !ok || err != nil || u.UserType != UserAdmin {
			t.Fatalf("user=%+v ok=%v err=%v", u, ok, err)
		}
	})

	t.Run("rejected session is cleared", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "expired"})
		})
		mux.HandleFunc("/api/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is blacklisted"})
		})
		store := loggedInStore(t)
		auth := NewAuthService(newTestAPI(t, mux, store), discardLogger())

		_, ok, err := auth.Restore(context.Background())
		if ok || !errors.Is(err, client.ErrSessionEnded) {
			t.Fatalf("ok=%v err=%v want ErrSessionEnded", ok, err)
		}
		if _, err := store.Load(context.Background()); !errors.Is(err, session.ErrNoSession) {
			t.Fatalf("store err=%v want ErrNoSession", err)
		}
	})

	t.Run("server error logs out", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
		})
		store := loggedInStore(t)
		auth := NewAuthService(newTestAPI(t, mux, store), discardLogger())

		if _, ok, err := auth.Restore(context.Background()); ok || err == nil {
			t.Fatalf("ok=%v err=%v want failure", ok, err)
		}
		if _, err := store.Load(context.Background()); !errors.Is(err, session.ErrNoSession) {
			t.Fatalf("store err=%v want ErrNoSession", err)
		}
	})
}

func TestUsersFiltersByType(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/users/", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 2, "username": "eng", "user_type": "engineer"}})
	})
	auth := NewAuthService(newTestAPI(t, mux, loggedInStore(t)), discardLogger())

	users, err := auth.Users(context.Background(), UserEngineer)
	if err != nil {
		t.Fatalf("Users: %v", err)
	}
	if gotQuery != "user_type=engineer" {
		t.Fatalf("query=%q want user_type=engineer", gotQuery)
	}
	if len(users) != 1 || users[0].Username != "eng" {
		t.Fatalf("users=%+v", users)
	}

	if _, err := auth.Users(context.Background(), "wizard"); !errors.Is(err, ErrValidation) {
		t.Fatalf("err=%v want ErrValidation", err)
	}
}
