package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"market-terminal/src/logger"
	"market-terminal/src/models"
)

// -----------------------------------------------------------------------------
// RedisStore keeps JSON envelopes under "mdal:<fingerprint>" with native TTL.
// -----------------------------------------------------------------------------

type RedisStore struct {
	rdb    *redis.Client
	Logger *logger.Logger
	now    func() time.Time
}

// -----------------------------------------------------------------------------

// NewRedisStore does not dial; an unreachable server shows up on Ping.
func NewRedisStore(redisURL string, timeout time.Duration, log *logger.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if timeout > 0 {
		opts.DialTimeout = timeout
		opts.ReadTimeout = timeout
		opts.WriteTimeout = timeout
	}
	// Best-effort tier: one attempt, the coordinator falls through on error.
	opts.MaxRetries = -1

	return &RedisStore{
		rdb:    redis.NewClient(opts),
		Logger: log,
		now:    time.Now,
	}, nil
}

// -----------------------------------------------------------------------------

func (r *RedisStore) Name() string {
	return "redis"
}

// -----------------------------------------------------------------------------

func (r *RedisStore) Get(ctx context.Context, fp models.MFingerprint, out any) (bool, error) {
	b, err := r.rdb.Get(ctx, storageKey(fp)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", fp.Key(), err)
	}
	if err := decodeEnvelope(b, fp, out); err != nil {
		r.Logger.Debug("Corrupt entry under %s, %v", storageKey(fp), err)
		return false, err
	}
	return true, nil
}

// -----------------------------------------------------------------------------

func (r *RedisStore) Set(ctx context.Context, fp models.MFingerprint, payload any, ttl time.Duration) error {
	b, err := encodeEnvelope(fp, payload, r.now())
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, storageKey(fp), b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", fp.Key(), err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Ping checks Redis connection health.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// -----------------------------------------------------------------------------

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
