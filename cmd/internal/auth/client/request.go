package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request describes one API call. Path is relative to the configured base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header

	// Body is JSON-encoded unless it is already []byte or json.RawMessage.
	Body any

	// Anonymous requests (login, register) never carry credentials and never
	// enter the refresh path; a 401 is an ordinary error for them.
	Anonymous bool
}

// Response is a successful (2xx) API response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Decode unmarshals the JSON body into dst. An empty body leaves dst untouched.
func (r *Response) Decode(dst any) error {
	if r == nil || dst == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// RetryState is the one-shot marker carried by a pending request.
type RetryState uint8

const (
	// NotRetried is the state of a freshly issued request.
	NotRetried RetryState = iota
	// Retried is set before the refresh attempt; a Retried request is never refreshed again.
	Retried
)

func (s RetryState) String() string {
	switch s {
	case NotRetried:
		return "not_retried"
	case Retried:
		return "retried"
	default:
		return "unknown"
	}
}

// pendingRequest is a request captured in replayable form: the body is encoded
// once, so the replay sends exactly the bytes of the original attempt.
type pendingRequest struct {
	method    string
	path      string
	url       string
	header    http.Header
	body      []byte
	anonymous bool
	requestID string
	retry     RetryState
}

// markRetried returns a copy in state Retried. The receiver is not modified.
func (p pendingRequest) markRetried() pendingRequest {
	p.retry = Retried
	return p
}

func (p pendingRequest) attempt() int {
	if p.retry == Retried {
		return 2
	}
	return 1
}

func (p pendingRequest) bodyReader() io.Reader {
	if p.body == nil {
		return nil
	}
	return bytes.NewReader(p.body)
}

func (c *Client) prepare(req Request) (pendingRequest, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	target, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return pendingRequest{}, err
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return pendingRequest{}, fmt.Errorf("%w: encode body: %v", ErrInvalidRequest, err)
	}

	header := http.Header{}
	for k, vs := range req.Header {
		for _, v := range vs {
			header.Add(k, v)
		}
	}
	// Credentials are attached per attempt; never trust a caller-supplied one.
	header.Del("Authorization")

	return pendingRequest{
		method:    method,
		path:      req.Path,
		url:       target,
		header:    header,
		body:      body,
		anonymous: req.Anonymous,
		requestID: c.newRequestID(),
		retry:     NotRetried,
	}, nil
}

// resolve joins path onto the base URL. Absolute URLs are refused so that
// bearer tokens are never sent to another host.
func (c *Client) resolve(path string, query url.Values) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidRequest)
	}
	if u, err := url.Parse(path); err != nil || u.IsAbs() || u.Host != "" {
		return "", fmt.Errorf("%w: path must be relative: %q", ErrInvalidRequest, path)
	}

	target := strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}
	return target, nil
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}

// readBody reads at most limit bytes. tooLarge reports that the body had more;
// the returned bytes are then cut to limit.
func readBody(r io.Reader, limit int64) (body []byte, tooLarge bool, err error) {
	body, err = io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > limit {
		return body[:limit], true, nil
	}
	return body, false, nil
}
