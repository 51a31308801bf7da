package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"helpdesk/cmd/internal/auth/session"
	"helpdesk/cmd/security/token"
)

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// refreshAccess returns an access token to replay with after sent was rejected.
//
// If the store already holds a different access token, another request has
// refreshed in the meantime and that token is returned without a network call.
// Otherwise the refresh is shared with every concurrent caller holding the
// same refresh token.
func (c *Client) refreshAccess(ctx context.Context, sent string) (string, error) {
	cur, err := c.store.Load(ctx)
	switch {
	case errors.Is(err, session.ErrNoSession):
		c.metrics.refresh("no_token")
		return "", errNoRefreshToken
	case err != nil:
		c.metrics.refresh("failed")
		return "", fmt.Errorf("load session: %w", err)
	}

	if cur.HasAccess() && cur.AccessToken != sent {
		c.metrics.refresh("stale")
		c.log.Debug("api.refresh.skip",
			"reason", "token_already_replaced",
			"token_fp", token.Fingerprint(cur.AccessToken),
		)
		return cur.AccessToken, nil
	}
	if !cur.HasRefresh() {
		c.metrics.refresh("no_token")
		return "", errNoRefreshToken
	}

	refresh := cur.RefreshToken
	ch := c.refreshGroup.DoChan(refresh, func() (any, error) {
		flightCtx := context.WithoutCancel(ctx)
		// A flight that completed between our Load and DoChan has already
		// persisted its token; reuse it instead of refreshing twice.
		if again, err := c.store.Load(flightCtx); err == nil && again.HasAccess() && again.AccessToken != sent {
			c.metrics.refresh("stale")
			return again.AccessToken, nil
		}
		return c.doRefresh(flightCtx, refresh)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			c.log.Debug("api.refresh.shared", "token_fp", token.Fingerprint(refresh))
		}
		return res.Val.(string), nil
	}
}

// doRefresh calls the refresh endpoint and persists the result.
func (c *Client) doRefresh(ctx context.Context, refresh string) (string, error) {
	start := c.now()
	fp := token.Fingerprint(refresh)

	access, rotated, err := c.callRefresh(ctx, refresh)
	if err != nil {
		c.metrics.refresh("failed")
		c.log.Warn("api.refresh.fail",
			"token_fp", fp,
			"duration_ms", c.now().Sub(start).Milliseconds(),
			"err", err,
		)
		return "", err
	}

	if err := c.store.UpdateAccess(ctx, access, rotated); err != nil {
		// A concurrent logout cleared the session; do not resurrect it.
		c.metrics.refresh("failed")
		c.log.Warn("api.refresh.persist.fail", "token_fp", fp, "err", err)
		return "", &RefreshError{Err: fmt.Errorf("persist: %w", err)}
	}

	c.metrics.refresh("ok")
	c.log.Info("api.refresh.ok",
		"token_fp", fp,
		"access_fp", token.Fingerprint(access),
		"rotated", rotated != "",
		"duration_ms", c.now().Sub(start).Milliseconds(),
	)
	return access, nil
}

func (c *Client) callRefresh(ctx context.Context, refresh string) (access, rotated string, err error) {
	payload, err := json.Marshal(refreshRequest{Refresh: refresh})
	if err != nil {
		return "", "", &RefreshError{Err: err}
	}

	target := c.baseURL + "/" + strings.TrimLeft(c.cfg.RefreshPath, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return "", "", &RefreshError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("X-Request-ID", c.newRequestID())

	res, err := c.http.Do(req)
	if err != nil {
		return "", "", &RefreshError{Err: &TransportError{Method: http.MethodPost, Path: c.cfg.RefreshPath, Err: err}}
	}
	defer func() { _ = res.Body.Close() }()

	body, tooLarge, err := readBody(res.Body, c.cfg.MaxResponseBytes)
	if err != nil {
		return "", "", &RefreshError{Err: fmt.Errorf("read body: %w", err)}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		p := pendingRequest{method: http.MethodPost, path: c.cfg.RefreshPath, requestID: req.Header.Get("X-Request-ID")}
		return "", "", &RefreshError{StatusCode: res.StatusCode, Err: newAPIError(p, res.StatusCode, body)}
	}

	if tooLarge {
		return "", "", &RefreshError{StatusCode: res.StatusCode, Err: fmt.Errorf("%w (limit %d bytes)", ErrResponseTooLarge, c.cfg.MaxResponseBytes)}
	}

	var out refreshResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", "", &RefreshError{StatusCode: res.StatusCode, Err: fmt.Errorf("malformed refresh response: %w", err)}
	}
	if strings.TrimSpace(out.Access) == "" {
		return "", "", &RefreshError{StatusCode: res.StatusCode, Err: errors.New("malformed refresh response: missing access token")}
	}
	return out.Access, out.Refresh, nil
}
