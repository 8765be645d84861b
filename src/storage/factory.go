package storage

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"market-terminal/src/interfaces"
	"market-terminal/src/logger"
	"market-terminal/src/models"
)

const DefaultSharedTimeout = 250 * time.Millisecond

var (
	_ interfaces.ISharedStore   = (*RedisStore)(nil)
	_ interfaces.ISharedStore   = (*SQLStore)(nil)
	_ interfaces.IExpiringStore = (*SQLStore)(nil)
	_ interfaces.ISharedStore   = NoopStore{}
)

// -----------------------------------------------------------------------------

// NewSharedStore picks a backend from the URL scheme. An empty URL disables
// the shared tier and every lookup falls through to upstream.
func NewSharedStore(cfg models.MSharedStoreConfig, log *logger.Logger) (interfaces.ISharedStore, error) {
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		log.Info("No shared store configured, running with local cache only")
		return NoopStore{}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid shared store url: %w", err)
	}

	var store interfaces.ISharedStore
	switch strings.ToLower(u.Scheme) {
	case "redis", "rediss":
		store, err = NewRedisStore(raw, SharedTimeout(cfg), log.Named("RedisStore"))
	case "postgres", "postgresql":
		store, err = NewPostgresStore(raw, log.Named("PostgresStore"))
	case "sqlite":
		store, err = NewSQLiteStore(strings.TrimPrefix(raw, u.Scheme+"://"), log.Named("SQLiteStore"))
	default:
		return nil, fmt.Errorf("unsupported shared store scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// -----------------------------------------------------------------------------

// OpenSharedStore is NewSharedStore for process startup: a URL that cannot be
// used is logged and the shared tier is disabled instead.
func OpenSharedStore(cfg models.MSharedStoreConfig, log *logger.Logger) interfaces.ISharedStore {
	store, err := NewSharedStore(cfg, log)
	if err != nil {
		log.Warning("Shared store disabled, %v", err)
		return NoopStore{}
	}
	return store
}

// -----------------------------------------------------------------------------

func SharedTimeout(cfg models.MSharedStoreConfig) time.Duration {
	if cfg.TimeoutMillis <= 0 {
		return DefaultSharedTimeout
	}
	return time.Duration(cfg.TimeoutMillis) * time.Millisecond
}
