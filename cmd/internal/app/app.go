// Package app wires the helpdesk CLI runtime: config, logging, the session
// store, the Session Client and the cobra command tree.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"helpdesk/cmd/internal/auth/client"
	"helpdesk/cmd/internal/auth/session"
	"helpdesk/cmd/internal/helpdesk"
	"helpdesk/cmd/security/seal"
)

// App owns the long-lived dependencies of one CLI invocation.
type App struct {
	cfg Config
	log Logger

	store   session.Store
	dbPool  *pgxpool.Pool
	rdb     *redis.Client
	metrics *prometheus.Registry

	API     *client.Client
	Auth    *helpdesk.AuthService
	Tickets *helpdesk.TicketService
}

// New constructs a fully wired App. nav is told when the session ends.
func New(ctx context.Context, cfg Config, log Logger, nav client.Navigator) (*App, error) {
	if log == nil {
		log = NewLogger(cfg, io.Discard)
	}
	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log, metrics: prometheus.NewRegistry()}
	a.metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	st, err := a.newStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = st

	api, err := client.New(cfg.ClientConfig(Version), st,
		client.WithLogger(log),
		client.WithNavigator(nav),
		client.WithMetrics(client.NewMetrics(a.metrics)),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.API = api
	a.Auth = helpdesk.NewAuthService(api, log)
	a.Tickets = helpdesk.NewTicketService(api)

	return a, nil
}

// newStore selects the session store backend. The app owns pool and client lifecycles.
func (a *App) newStore(ctx context.Context) (session.Store, error) {
	cfg := a.cfg
	switch cfg.SessionStore {
	case StoreMemory:
		a.log.Debug("session.store", "backend", StoreMemory)
		return session.NewMemoryStore(), nil

	case StoreFile:
		path := cfg.SessionFile
		if path == "" {
			p, err := session.DefaultFilePath(cfg.Profile)
			if err != nil {
				return nil, err
			}
			path = p
		}

		var opts []session.FileOption
		if cfg.SessionPassphrase != "" {
			params, err := seal.ParamsFromEnv()
			if err != nil {
				return nil, err
			}
			sealer, err := seal.NewPassphraseSealer(cfg.SessionPassphrase, params)
			if err != nil {
				return nil, err
			}
			opts = append(opts, session.WithSealer(sealer))
		}
		a.log.Debug("session.store", "backend", StoreFile, "path", path, "sealed", len(opts) > 0)
		return session.NewFileStore(path, opts...)

	case StorePostgres:
		pool, err := NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.dbPool = pool

		st, err := session.NewPostgresStore(pool, cfg.Profile)
		if err != nil {
			return nil, err
		}
		if err := st.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		a.log.Debug("session.store", "backend", StorePostgres, "profile", cfg.Profile)
		return st, nil

	case StoreRedis:
		rdb, err := NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.rdb = rdb
		a.log.Debug("session.store", "backend", StoreRedis, "addr", cfg.RedisAddr, "profile", cfg.Profile)
		return session.NewRedisStore(rdb, cfg.Profile, cfg.SessionTTL)
	}
	return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
}

// Ready reports whether the session backend is reachable.
func (a *App) Ready(ctx context.Context) error {
	var errs []error
	if a.dbPool != nil {
		if err := PingDB(ctx, a.dbPool, 2*time.Second); err != nil {
			errs = append(errs, fmt.Errorf("db: %w", err))
		}
	}
	if a.rdb != nil {
		if err := PingRedis(ctx, a.rdb, 2*time.Second); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases connections. It is safe to call on a partially built App.
func (a *App) Close() {
	if a.API != nil {
		a.API.Close()
	}
	if a.dbPool != nil {
		a.dbPool.Close()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn("redis.close.fail", "err", err)
		}
	}
}

// Store exposes the selected session store.
func (a *App) Store() session.Store { return a.store }

// Logger returns the app logger.
func (a *App) Logger() *slog.Logger { return a.log }
