package interfaces

import (
	"context"
	"time"

	"market-terminal/src/models"
)

// -----------------------------------------------------------------------------
// ISharedStore is the best-effort cross-process cache. Implementations encode
// payloads as JSON; a miss is (false, nil).
// -----------------------------------------------------------------------------

type ISharedStore interface {
	Name() string

	// Get decodes the stored payload into out.
	Get(ctx context.Context, fp models.MFingerprint, out any) (bool, error)

	// Set stores payload with the given expiry.
	Set(ctx context.Context, fp models.MFingerprint, payload any, ttl time.Duration) error

	Ping(ctx context.Context) error

	Close() error
}

// -----------------------------------------------------------------------------
// IExpiringStore is implemented by backends without native TTL.
// -----------------------------------------------------------------------------

type IExpiringStore interface {
	DeleteExpired(ctx context.Context) (int64, error)
}
