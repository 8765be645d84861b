package interfaces

import (
	"context"

	"market-terminal/src/models"
)

// -----------------------------------------------------------------------------
// IUpstreamFetcher turns a fingerprint into a fresh record. Pure I/O: it
// never touches a cache.
// -----------------------------------------------------------------------------

type IUpstreamFetcher interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchPrice returns the latest quote for a normalized symbol.
	FetchPrice(ctx context.Context, symbol string) (models.MPriceRecord, error)

	// -----------------------------------------------------------------------------

	// FetchHistory returns daily bars for a normalized symbol and period.
	FetchHistory(ctx context.Context, symbol string, period models.Period) (models.MHistoryRecord, error)
}
