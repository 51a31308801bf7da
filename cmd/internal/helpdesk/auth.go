package helpdesk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"helpdesk/cmd/internal/auth/client"
	"helpdesk/cmd/internal/auth/session"
	"helpdesk/cmd/security/token"
)

// AuthService owns the session lifecycle: login, registration, logout and restore.
type AuthService struct {
	api   *client.Client
	store session.Store
	log   *slog.Logger
}

func NewAuthService(api *client.Client, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{api: api, store: api.Store(), log: log}
}

type loginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *User  `json:"user"`
	Message string `json:"message"`
}

// Login authenticates and replaces any existing session with the new token pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (User, error) {
	in := loginInput{Username: strings.TrimSpace(username), Password: password}
	if err := validateInput(in); err != nil {
		return User{}, err
	}

	var out authResponse
	err := s.api.DoJSON(ctx, client.Request{
		Method:    http.MethodPost,
		Path:      "/auth/login/",
		Body:      in,
		Anonymous: true,
	}, &out)
	if err != nil {
		s.log.Warn("auth.login.fail", "username", in.Username, "err", err)
		return User{}, fmt.Errorf("login: %w", err)
	}
	if out.Access == "" {
		return User{}, fmt.Errorf("login: %w: missing access token", ErrMalformedResponse)
	}

	if err := s.store.Save(ctx, session.Tokens{AccessToken: out.Access, RefreshToken: out.Refresh}); err != nil {
		return User{}, fmt.Errorf("login: save session: %w", err)
	}

	var u User
	if out.User != nil {
		u = *out.User
	}
	s.log.Info("auth.login.ok",
		"username", in.Username,
		"user_type", u.UserType,
		"token_fp", token.Fingerprint(out.Access),
	)
	return u, nil
}

// RegisterInput is a new account. The password is sent twice (password2), as the backend expects.
type RegisterInput struct {
	Username   string   `json:"username" validate:"required,min=3,max=150,username"`
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=6"`
	UserType   UserType `json:"user_type" validate:"required,oneof=client engineer admin"`
	FirstName  string   `json:"first_name" validate:"required,max=150"`
	LastName   string   `json:"last_name" validate:"required,max=150"`
	Phone      string   `json:"phone,omitempty" validate:"omitempty,max=15,phone"`
	Department string   `json:"department,omitempty" validate:"omitempty,max=100"`
}

type registerWire struct {
	RegisterInput
	Password2 string `json:"password2"`
}

type RegisterResult struct {
	User     *User  `json:"user,omitempty" yaml:"user,omitempty"`
	Message  string `json:"message,omitempty" yaml:"message,omitempty"`
	LoggedIn bool   `json:"logged_in" yaml:"logged_in"`
}

// Register creates an account. When the server answers with tokens the new
// user is logged in immediately.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.UserType == "" {
		in.UserType = UserClient
	}
	if err := validateInput(in); err != nil {
		return RegisterResult{}, err
	}

	var out authResponse
	err := s.api.DoJSON(ctx, client.Request{
		Method:    http.MethodPost,
		Path:      "/auth/register/",
		Body:      registerWire{RegisterInput: in, Password2: in.Password},
		Anonymous: true,
	}, &out)
	if err != nil {
		s.log.Warn("auth.register.fail", "username", in.Username, "err", err)
		return RegisterResult{}, fmt.Errorf("register: %w", err)
	}

	res := RegisterResult{User: out.User, Message: out.Message}
	if out.Access != "" {
		if err := s.store.Save(ctx, session.Tokens{AccessToken: out.Access, RefreshToken: out.Refresh}); err != nil {
			return RegisterResult{}, fmt.Errorf("register: save session: %w", err)
		}
		res.LoggedIn = true
	}
	s.log.Info("auth.register.ok", "username", in.Username, "logged_in", res.LoggedIn)
	return res, nil
}

// Logout drops the local session. There is no server call.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info("auth.logout")
	return nil
}

// Restore hydrates the session on start. It reports false when no session is
// stored. A stored session the server no longer accepts is cleared; transport
// failures leave it in place.
func (s *AuthService) Restore(ctx context.Context) (User, bool, error) {
	if _, err := s.store.Load(ctx); err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return User{}, false, nil
		}
		return User{}, false, fmt.Errorf("restore: %w", err)
	}

	u, err := s.Profile(ctx)
	if err == nil {
		return u, true, nil
	}

	var terr *client.TransportError
	if !errors.As(err, &terr) {
		s.log.Warn("auth.restore.fail", "err", err)
		if lerr := s.Logout(ctx); lerr != nil {
			return User{}, false, errors.Join(err, lerr)
		}
	}
	return User{}, false, fmt.Errorf("restore: %w", err)
}

func (s *AuthService) Profile(ctx context.Context) (User, error) {
	var u User
	if err := s.api.Get(ctx, "/auth/profile/", nil, &u); err != nil {
		return User{}, fmt.Errorf("profile: %w", err)
	}
	return u, nil
}

// Users lists accounts, optionally restricted to one type.
func (s *AuthService) Users(ctx context.Context, userType UserType) ([]User, error) {
	var q url.Values
	if userType != "" {
		if !userType.Valid() {
			return nil, fieldError("user_type", "Must be one of: client, engineer, admin.")
		}
		q = url.Values{"user_type": {string(userType)}}
	}

	var users []User
	if err := s.api.Get(ctx, "/auth/users/", q, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
