package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"helpdesk/cmd/internal/auth/session"
	"helpdesk/cmd/internal/ids"
	"helpdesk/cmd/security/token"
)

// Client is the authenticated request pipeline. It is safe for concurrent use.
type Client struct {
	cfg     Config
	baseURL string

	http    *http.Client
	store   session.Store
	nav     Navigator
	log     *slog.Logger
	metrics *Metrics
	now     func() time.Time

	refreshGroup singleflight.Group
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is overridden by Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithNavigator sets the collaborator invoked on session teardown.
func WithNavigator(n Navigator) Option {
	return func(c *Client) {
		if n != nil {
			c.nav = n
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithClock is for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a Client over store. The store is the single source of truth for
// the current session; the client keeps no token copy of its own.
func New(cfg Config, store session.Store, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil session store", ErrConfig)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		http:    &http.Client{},
		store:   store,
		nav:     nopNavigator{},
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := *c.http
	hc.Timeout = cfg.Timeout
	c.http = &hc

	return c, nil
}

// Store returns the session store the client reads credentials from.
func (c *Client) Store() session.Store { return c.store }

// Close releases idle connections.
func (c *Client) Close() { c.http.CloseIdleConnections() }

// Do sends req, recovering once from an expired access token.
//
// A 2xx yields the response. Any other status yields an *APIError, except an
// unrecoverable 401, which yields a *SessionEndedError wrapping it.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	p, err := c.prepare(req)
	if err != nil {
		return nil, err
	}

	if p.anonymous {
		return c.attempt(ctx, p, "")
	}

	access := c.currentAccess(ctx)
	for {
		resp, err := c.attempt(ctx, p, access)
		if !isUnauthorized(err) {
			return resp, err
		}

		if p.retry == Retried {
			c.teardown(ctx, p, "replay_unauthorized")
			return nil, &SessionEndedError{Reason: "replay_unauthorized", Err: err}
		}
		p = p.markRetried()

		next, rerr := c.refreshAccess(ctx, access)
		if rerr != nil {
			if ctx.Err() != nil {
				// Caller gave up while waiting; the session is left to the refresh in flight.
				return nil, &TransportError{Method: p.method, Path: p.path, Err: ctx.Err()}
			}
			reason := "refresh_failed"
			if errors.Is(rerr, errNoRefreshToken) {
				reason = "no_refresh_token"
			}
			c.teardown(ctx, p, reason)
			return nil, &SessionEndedError{Reason: reason, Err: err, RefreshErr: rerr}
		}
		access = next
	}
}

// DoJSON sends req and decodes a successful response body into dst.
func (c *Client) DoJSON(ctx context.Context, req Request, dst any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(dst)
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, dst any) error {
	return c.DoJSON(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, dst)
}

func (c *Client) Post(ctx context.Context, path string, body, dst any) error {
	return c.DoJSON(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, dst)
}

func (c *Client) Put(ctx context.Context, path string, body, dst any) error {
	return c.DoJSON(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, dst)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.DoJSON(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}

// currentAccess returns the stored access token, or "" when there is no usable session.
func (c *Client) currentAccess(ctx context.Context) string {
	tok, err := c.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			c.log.Warn("session.load.fail", "err", err)
		}
		return ""
	}
	return tok.AccessToken
}

// attempt performs a single HTTP round trip.
func (c *Client) attempt(ctx context.Context, p pendingRequest, access string) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, p.method, p.url, p.bodyReader())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	httpReq.Header = p.header.Clone()
	if p.body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	httpReq.Header.Set("X-Request-ID", p.requestID)
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}

	start := c.now()
	res, err := c.http.Do(httpReq)
	if err != nil {
		elapsed := c.now().Sub(start)
		c.metrics.observeRequest(p.method, "transport", elapsed)
		terr := &TransportError{Method: p.method, Path: p.path, Err: err}
		c.log.Warn("api.transport.fail",
			"method", p.method,
			"path", p.path,
			"attempt", p.attempt(),
			"request_id", p.requestID,
			"timeout", terr.Timeout(),
			"duration_ms", elapsed.Milliseconds(),
			"err", err,
		)
		return nil, terr
	}
	defer func() { _ = res.Body.Close() }()

	body, tooLarge, err := readBody(res.Body, c.cfg.MaxResponseBytes)
	elapsed := c.now().Sub(start)
	if err != nil {
		c.metrics.observeRequest(p.method, "transport", elapsed)
		return nil, &TransportError{Method: p.method, Path: p.path, Err: fmt.Errorf("read body: %w", err)}
	}
	c.metrics.observeRequest(p.method, StatusClass(res.StatusCode), elapsed)

	attrs := []any{
		"method", p.method,
		"path", p.path,
		"status", res.StatusCode,
		"duration_ms", elapsed.Milliseconds(),
		"attempt", p.attempt(),
		"request_id", p.requestID,
		"authenticated", access != "",
	}
	if access != "" {
		attrs = append(attrs, "token_fp", token.Fingerprint(access))
	}

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		if tooLarge {
			c.log.Warn("api.response.too_large", append(attrs, "limit_bytes", c.cfg.MaxResponseBytes)...)
			return nil, fmt.Errorf("%s %s: %w (limit %d bytes)", p.method, p.path, ErrResponseTooLarge, c.cfg.MaxResponseBytes)
		}
		c.log.Debug("api.request", attrs...)
		return &Response{
			StatusCode: res.StatusCode,
			Header:     res.Header,
			Body:       body,
			RequestID:  p.requestID,
		}, nil
	}

	apiErr := newAPIError(p, res.StatusCode, body)
	attrs = append(attrs, "error_payload", truncate(strings.TrimSpace(string(body)), 512))
	if res.StatusCode >= 500 {
		c.log.Error("api.request", attrs...)
	} else {
		c.log.Warn("api.request", attrs...)
	}
	return nil, apiErr
}

// teardown ends the session: clear the store, then hand over to the navigator.
func (c *Client) teardown(ctx context.Context, p pendingRequest, reason string) {
	// Clearing must happen even when the caller's context is already done.
	clearCtx := context.WithoutCancel(ctx)
	if err := c.store.Clear(clearCtx); err != nil {
		c.log.Error("session.clear.fail", "reason", reason, "err", err)
	}
	c.metrics.teardown(reason)
	c.log.Warn("session.teardown",
		"reason", reason,
		"method", p.method,
		"path", p.path,
		"request_id", p.requestID,
	)
	c.nav.ToLogin(clearCtx, reason)
}

func (c *Client) newRequestID() string { return ids.NewRequestID(c.now()) }
