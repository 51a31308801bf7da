package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	// ErrSessionEnded marks a request whose authentication could not be recovered;
	// the session has been cleared and the navigator sent to login.
	ErrSessionEnded = errors.New("session ended")

	// ErrResponseTooLarge is returned when a successful response body exceeds MaxResponseBytes.
	ErrResponseTooLarge = errors.New("response too large")

	// ErrInvalidRequest is returned for requests that cannot be built (bad path, unencodable body).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrConfig is returned for invalid client configuration.
	ErrConfig = errors.New("invalid client config")

	// Kinds an *APIError unwraps to, by HTTP status.
	ErrBadRequest    = errors.New("bad request")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrRateLimited   = errors.New("rate limited")
	ErrServer        = errors.New("server error")
	ErrRequestFailed = errors.New("request failed")

	errNoRefreshToken = errors.New("no refresh token")
)

// APIError is a non-2xx response from the helpdesk API.
//
// Business errors (validation, not-found, ...) are passed through untouched:
// Fields carries field-level messages ({"username": ["already taken"]}) and
// Detail the top-level message ("detail", "error", "message", "non_field_errors").
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	RequestID  string

	Detail string
	Fields map[string][]string
	Body   []byte
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "helpdesk api: %s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if len(e.Fields) > 0 {
		b.WriteString(" (")
		b.WriteString(e.FieldSummary())
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap maps the status code to a kind sentinel for errors.Is.
func (e *APIError) Unwrap() error { return kindForStatus(e.StatusCode) }

// FieldSummary renders field errors as "field: msg; field2: msg" in stable order.
func (e *APIError) FieldSummary() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return strings.Join(parts, "; ")
}

func kindForStatus(code int) error {
	switch {
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return ErrBadRequest
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusConflict:
		return ErrConflict
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code >= 500:
		return ErrServer
	default:
		return ErrRequestFailed
	}
}

// newAPIError decodes a DRF-style error payload.
func newAPIError(p pendingRequest, status int, body []byte) *APIError {
	e := &APIError{
		Method:     p.method,
		Path:       p.path,
		StatusCode: status,
		RequestID:  p.requestID,
		Body:       body,
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		e.Detail = truncate(strings.TrimSpace(string(body)), 200)
		return e
	}

	for key, raw := range obj {
		msgs := decodeMessages(raw)
		if len(msgs) == 0 {
			continue
		}
		switch key {
		case "detail", "error", "message":
			if e.Detail == "" {
				e.Detail = strings.Join(msgs, " ")
			}
		case "non_field_errors":
			if e.Detail == "" {
				e.Detail = strings.Join(msgs, " ")
			}
		default:
			if e.Fields == nil {
				e.Fields = make(map[string][]string)
			}
			e.Fields[key] = msgs
		}
	}
	return e
}

// decodeMessages accepts "msg" or ["msg", ...]; anything else is ignored.
func decodeMessages(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s = strings.TrimSpace(s); s != "" {
			return []string{s}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	return nil
}

// TransportError is a network-level failure or timeout. No response was received.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Timeout() {
		return fmt.Sprintf("helpdesk api: %s %s: timeout: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("helpdesk api: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline or client timeout.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// RefreshError describes why the refresh endpoint did not yield a new access token.
type RefreshError struct {
	StatusCode int
	Err        error
}

func (e *RefreshError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("token refresh rejected: %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// SessionEndedError is returned when a 401 could not be recovered.
//
// Err is the original request's failure (the 401 *APIError), which is what
// caused the teardown; RefreshErr, when set, is why the refresh did not help.
type SessionEndedError struct {
	Reason     string
	Err        error
	RefreshErr error
}

func (e *SessionEndedError) Error() string {
	return fmt.Sprintf("%v (%s): %v", ErrSessionEnded, e.Reason, e.Err)
}

func (e *SessionEndedError) Is(target error) bool { return target == ErrSessionEnded }

func (e *SessionEndedError) Unwrap() error { return e.Err }

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
