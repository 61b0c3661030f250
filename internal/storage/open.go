package storage

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"quarantianizo/internal/config"
)

type Options struct {
	URL            string
	MaxConns       int
	ConnectTimeout time.Duration
	IdleTimeout    time.Duration
	SessionTTL     time.Duration
}

// OptionsFromConfig maps the storage section of the bot config.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		URL:            cfg.DatabaseURL,
		MaxConns:       cfg.Storage.MaxConns,
		ConnectTimeout: time.Duration(cfg.Storage.ConnectTimeoutSeconds) * time.Second,
		IdleTimeout:    time.Duration(cfg.Storage.IdleTimeoutSeconds) * time.Second,
		SessionTTL:     time.Duration(cfg.Storage.SessionTTLHours) * time.Hour,
	}
}

type migrator interface {
	Backend
	Migrate(ctx context.Context) error
}

// Open selects the backend once. It never fails: an unset or placeholder
// URL, or any error while connecting or migrating, yields a memory store.
func Open(ctx context.Context, opts Options, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !config.DurableURL(opts.URL) {
		logger.Info("no database configured, using in-memory storage")
		return NewStore(nil, logger, opts.SessionTTL)
	}

	backend, err := connect(ctx, strings.TrimSpace(opts.URL), opts)
	if err != nil {
		logger.Error("database unavailable, using in-memory storage", zap.Error(err))
		return NewStore(nil, logger, opts.SessionTTL)
	}
	if err := backend.Migrate(ctx); err != nil {
		backend.Close()
		logger.Error("database schema failed, using in-memory storage", zap.Error(err))
		return NewStore(nil, logger, opts.SessionTTL)
	}

	logger.Info("storage ready", zap.String("backend", backend.Kind()))
	return NewStore(backend, logger, opts.SessionTTL)
}

func connect(ctx context.Context, url string, opts Options) (migrator, error) {
	if strings.HasPrefix(url, "sqlite:") {
		return NewSQLite(ctx, SQLitePath(url))
	}
	return NewPostgres(ctx, url, PoolOptions{
		MaxConns:       opts.MaxConns,
		ConnectTimeout: opts.ConnectTimeout,
		IdleTimeout:    opts.IdleTimeout,
	})
}
