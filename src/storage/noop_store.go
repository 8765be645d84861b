package storage

import (
	"context"
	"time"

	"market-terminal/src/models"
)

// NoopStore stands in when no shared store is configured: every read is a
// miss, every write and ping fails with ErrSharedStoreDisabled.
type NoopStore struct{}

func (NoopStore) Name() string { return "disabled" }

func (NoopStore) Get(context.Context, models.MFingerprint, any) (bool, error) {
	return false, nil
}

func (NoopStore) Set(context.Context, models.MFingerprint, any, time.Duration) error {
	return ErrSharedStoreDisabled
}

func (NoopStore) Ping(context.Context) error { return ErrSharedStoreDisabled }

func (NoopStore) Close() error { return nil }
