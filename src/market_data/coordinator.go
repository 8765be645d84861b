package marketdata

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"market-terminal/src/helpers"
	"market-terminal/src/interfaces"
	"market-terminal/src/logger"
	"market-terminal/src/models"
	"market-terminal/src/storage"
)

// -----------------------------------------------------------------------------
// Coordinator is the read-through path LS -> SS -> upstream, and the only
// place freshness windows are enforced. Failures are never cached and
// concurrent misses on one fingerprint may each reach upstream.
// -----------------------------------------------------------------------------

type Coordinator struct {
	Local         *storage.LocalStore
	Shared        interfaces.ISharedStore
	Upstream      interfaces.IUpstreamFetcher
	Logger        *logger.Logger
	Now           func() time.Time
	SharedTimeout time.Duration

	localHits      atomic.Int64
	sharedHits     atomic.Int64
	upstreamCalls  atomic.Int64
	upstreamErrors atomic.Int64
	sharedErrors   atomic.Int64
}

// -----------------------------------------------------------------------------

func NewCoordinator(local *storage.LocalStore, shared interfaces.ISharedStore, upstream interfaces.IUpstreamFetcher, sharedTimeout time.Duration, log *logger.Logger) *Coordinator {
	if shared == nil {
		shared = storage.NoopStore{}
	}
	if sharedTimeout <= 0 {
		sharedTimeout = storage.DefaultSharedTimeout
	}
	return &Coordinator{
		Local:         local,
		Shared:        shared,
		Upstream:      upstream,
		Logger:        log.Named("CacheCoordinator"),
		Now:           time.Now,
		SharedTimeout: sharedTimeout,
	}
}

// -----------------------------------------------------------------------------

// GetPrice returns the latest quote and the tier that served it.
func (c *Coordinator) GetPrice(ctx context.Context, symbol string) (models.MPriceRecord, models.CacheTier, error) {
	fp, err := models.PriceFingerprint(symbol)
	if err != nil {
		return models.MPriceRecord{}, models.TierNone, helpers.NewInputInvalid(symbol, err)
	}
	return readThrough(ctx, c, fp, func(ctx context.Context) (models.MPriceRecord, error) {
		return c.Upstream.FetchPrice(ctx, fp.Symbol)
	})
}

// -----------------------------------------------------------------------------

// GetHistory returns daily bars for symbol over period. An empty period
// means the default one.
func (c *Coordinator) GetHistory(ctx context.Context, symbol, period string) (models.MHistoryRecord, models.CacheTier, error) {
	if period == "" {
		period = string(models.DefaultPeriod)
	}
	fp, err := models.HistoryFingerprint(symbol, period)
	if err != nil {
		return models.MHistoryRecord{}, models.TierNone, helpers.NewInputInvalid(symbol, err)
	}
	return readThrough(ctx, c, fp, func(ctx context.Context) (models.MHistoryRecord, error) {
		return c.Upstream.FetchHistory(ctx, fp.Symbol, fp.Period)
	})
}

// -----------------------------------------------------------------------------

type observed interface {
	ObservedTime() time.Time
}

func readThrough[T observed](ctx context.Context, c *Coordinator, fp models.MFingerprint, fetch func(context.Context) (T, error)) (T, models.CacheTier, error) {
	var zero T
	now := c.Now()
	windows := models.FreshnessFor(fp.Kind)

	if v, ok := c.Local.Get(fp, now); ok {
		if rec, ok := v.(T); ok {
			c.localHits.Add(1)
			return rec, models.TierLocal, nil
		}
	}

	var shared T
	if c.sharedGet(ctx, fp, &shared) {
		// A record stamped in the future comes from a skewed clock and is
		// treated as stale.
		if age := now.Sub(shared.ObservedTime()); age >= 0 && age < windows.Shared {
			c.sharedHits.Add(1)
			c.Local.Put(fp, shared, now)
			return shared, models.TierShared, nil
		}
		c.Logger.Debug("Ignoring stale shared entry %s observed at %s", fp, models.FormatTimestamp(shared.ObservedTime()))
	}

	c.upstreamCalls.Add(1)
	rec, err := fetch(ctx)
	if err != nil {
		c.upstreamErrors.Add(1)
		if helpers.KindOf(err) == helpers.KindUnknown {
			err = helpers.NewUpstreamUnavailable(fp.Symbol, err)
		}
		c.Logger.Debug("Upstream fetch %s failed: %v", fp, err)
		return zero, models.TierNone, err
	}

	c.sharedSet(ctx, fp, rec, windows.Shared)
	c.Local.Put(fp, rec, now)
	return rec, models.TierNone, nil
}

// -----------------------------------------------------------------------------

func (c *Coordinator) sharedGet(ctx context.Context, fp models.MFingerprint, out any) bool {
	ctx, cancel := context.WithTimeout(ctx, c.SharedTimeout)
	defer cancel()

	ok, err := c.Shared.Get(ctx, fp, out)
	if err != nil {
		c.sharedErrors.Add(1)
		c.Logger.Warning("%v", helpers.NewSharedStoreDegraded("get", err))
		return false
	}
	return ok
}

// -----------------------------------------------------------------------------

// sharedSet is detached from the request so a client hanging up after a
// successful fetch does not lose the write.
func (c *Coordinator) sharedSet(ctx context.Context, fp models.MFingerprint, payload any, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.SharedTimeout)
	defer cancel()

	err := c.Shared.Set(ctx, fp, payload, ttl)
	if errors.Is(err, storage.ErrSharedStoreDisabled) {
		return
	}
	if err != nil {
		c.sharedErrors.Add(1)
		c.Logger.Warning("%v", helpers.NewSharedStoreDegraded("set", err))
	}
}

// -----------------------------------------------------------------------------

// Invalidate drops the local entry only; shared entries age out on their own.
func (c *Coordinator) Invalidate(fp models.MFingerprint) {
	c.Local.Delete(fp)
}

// -----------------------------------------------------------------------------

// PingShared reports whether the shared tier answers within its timeout.
func (c *Coordinator) PingShared(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.SharedTimeout)
	defer cancel()
	return c.Shared.Ping(ctx) == nil
}

// -----------------------------------------------------------------------------

func (c *Coordinator) SharedStoreName() string {
	return c.Shared.Name()
}

// -----------------------------------------------------------------------------

func (c *Coordinator) Stats() models.MCacheStats {
	return models.MCacheStats{
		LocalHits:      c.localHits.Load(),
		SharedHits:     c.sharedHits.Load(),
		UpstreamCalls:  c.upstreamCalls.Load(),
		UpstreamErrors: c.upstreamErrors.Load(),
		SharedErrors:   c.sharedErrors.Load(),
		LocalEntries:   c.Local.Len(),
		SharedBackend:  c.Shared.Name(),
	}
}
