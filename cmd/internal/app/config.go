package app

import (
	"strings"
	"time"

	"helpdesk/cmd/internal/auth/client"
)

const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	APIURL      string
	HTTPTimeout time.Duration
	RefreshPath string
	LoginURL    string
	Profile     string

	SessionStore      string
	SessionFile       string
	SessionPassphrase string
	SessionTTL        time.Duration

	// Security policy:
	// If true, sessions at rest must be sealed (file store with a passphrase, or memory).
	RequireSealedSession bool

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel  string
	LogFormat string
	LogColor  bool

	// MetricsAddr enables /metrics, /healthz and /readyz for long-running commands.
	MetricsAddr   string
	WatchInterval time.Duration
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		APIURL:      EnvString("HELPDESK_API_URL", client.DefaultBaseURL),
		HTTPTimeout: EnvDuration("HELPDESK_HTTP_TIMEOUT", client.DefaultTimeout),
		RefreshPath: EnvString("HELPDESK_REFRESH_PATH", client.DefaultRefreshPath),
		LoginURL:    EnvString("HELPDESK_LOGIN_URL", "/login"),
		Profile:     EnvString("HELPDESK_PROFILE", "default"),

		SessionStore:      strings.ToLower(EnvString("HELPDESK_SESSION_STORE", StoreFile)),
		SessionFile:       EnvString("HELPDESK_SESSION_FILE", ""),
		SessionPassphrase: EnvString("HELPDESK_SESSION_PASSPHRASE", ""),
		SessionTTL:        EnvDuration("HELPDESK_SESSION_TTL", 0),

		RequireSealedSession: EnvBool("HELPDESK_REQUIRE_SEALED_SESSION", false),

		DatabaseURL: EnvString("HELPDESK_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("HELPDESK_DB_MAX_CONNS", 4),
		DBMinConns:  EnvInt32("HELPDESK_DB_MIN_CONNS", 0),

		RedisAddr:     EnvString("HELPDESK_REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: EnvString("HELPDESK_REDIS_PASSWORD", ""),
		RedisDB:       EnvInt("HELPDESK_REDIS_DB", 0),

		LogLevel:  EnvString("HELPDESK_LOG_LEVEL", "warn"),
		LogFormat: strings.ToLower(EnvString("HELPDESK_LOG_FORMAT", "pretty")),
		LogColor:  EnvBool("HELPDESK_LOG_COLOR", true),

		MetricsAddr:   EnvString("HELPDESK_METRICS_ADDR", ""),
		WatchInterval: EnvDuration("HELPDESK_WATCH_INTERVAL", 5*time.Second),
	}
}

// ClientConfig derives the Session Client configuration.
func (c Config) ClientConfig(version string) client.Config {
	cc := client.DefaultConfig()
	cc.BaseURL = c.APIURL
	cc.Timeout = c.HTTPTimeout
	cc.RefreshPath = c.RefreshPath
	if version != "" {
		cc.UserAgent = "helpdesk-cli/" + version
	}
	return cc
}
