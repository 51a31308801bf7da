package client

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL          = "http://127.0.0.1:8000/api"
	DefaultTimeout          = 10 * time.Second
	DefaultRefreshPath      = "/auth/token/refresh/"
	DefaultMaxResponseBytes = 4 << 20
)

// Config is the Session Client's static configuration.
type Config struct {
	// BaseURL is the API root every request path is resolved against.
	BaseURL string
	// Timeout bounds each HTTP attempt, the refresh call included.
	Timeout     time.Duration
	RefreshPath string

	MaxResponseBytes int64
	UserAgent        string
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		BaseURL:          DefaultBaseURL,
		Timeout:          DefaultTimeout,
		RefreshPath:      DefaultRefreshPath,
		MaxResponseBytes: DefaultMaxResponseBytes,
		UserAgent:        "helpdesk-cli",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = d.BaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if strings.TrimSpace(c.RefreshPath) == "" {
		c.RefreshPath = d.RefreshPath
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = d.MaxResponseBytes
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	return c
}

// Validate reports configuration that cannot produce a working client.
func (c Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.BaseURL))
	if err != nil {
		return fmt.Errorf("%w: base url: %v", ErrConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: base url scheme must be http or https, got %q", ErrConfig, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: base url has no host", ErrConfig)
	}
	if r, err := url.Parse(c.RefreshPath); err != nil || r.IsAbs() || r.Host != "" {
		return fmt.Errorf("%w: refresh path must be relative: %q", ErrConfig, c.RefreshPath)
	}
	return nil
}
