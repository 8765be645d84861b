package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-terminal/src/logger"
	"market-terminal/src/models"
)

func newTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore("redis://"+mr.Addr()+"/0", 250*time.Millisecond, logger.NewLoggerWithWriter(io.Discard, "ERROR", "test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, mr := newTestRedis(t)
	ctx := context.Background()
	fp, _ := models.PriceFingerprint("AAPL")

	observed := time.Date(2024, 6, 7, 15, 0, 0, 0, time.UTC)
	in := models.MPriceRecord{Symbol: "AAPL", Price: 190.5, ChangePct: 1.25, Volume: 1000, ObservedAt: observed}
	require.NoError(t, store.Set(ctx, fp, in, 60*time.Second))

	assert.True(t, mr.Exists("mdal:price:AAPL"))
	assert.Equal(t, 60*time.Second, mr.TTL("mdal:price:AAPL"))

	var out models.MPriceRecord
	ok, err := store.Get(ctx, fp, &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in.Price, out.Price)
	assert.Equal(t, in.Volume, out.Volume)
	assert.True(t, observed.Equal(out.ObservedAt))
}

func TestRedisStore_EnvelopeShape(t *testing.T) {
	store, mr := newTestRedis(t)
	fp, _ := models.HistoryFingerprint("AAPL", "5d")
	require.NoError(t, store.Set(context.Background(), fp, models.MHistoryRecord{Symbol: "AAPL", Period: models.Period5d}, time.Minute))

	raw, err := mr.Get("mdal:history:AAPL:5d")
	require.NoError(t, err)

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	assert.Contains(t, env, "key")
	assert.Contains(t, env, "stored_at")
	assert.Contains(t, env, "payload")
	assert.JSONEq(t, `"history:AAPL:5d"`, string(env["key"]))
}

func TestRedisStore_MissAndExpiry(t *testing.T) {
	store, mr := newTestRedis(t)
	ctx := context.Background()
	fp, _ := models.PriceFingerprint("MSFT")

	var out models.MPriceRecord
	ok, err := store.Get(ctx, fp, &out)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, fp, models.MPriceRecord{Symbol: "MSFT"}, time.Second))
	mr.FastForward(2 * time.Second)

	ok, err = store.Get(ctx, fp, &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_CorruptValueIsError(t *testing.T) {
	store, mr := newTestRedis(t)
	fp, _ := models.PriceFingerprint("AAPL")
	require.NoError(t, mr.Set("mdal:price:AAPL", "not json"))

	var out models.MPriceRecord
	ok, err := store.Get(context.Background(), fp, &out)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisStore_CorruptValueIsLogged(t *testing.T) {
	mr := miniredis.RunT(t)
	var buf bytes.Buffer
	store, err := NewRedisStore("redis://"+mr.Addr(), 250*time.Millisecond, logger.NewLoggerWithWriter(&buf, "DEBUG", "RedisStore"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	fp, _ := models.PriceFingerprint("AAPL")
	require.NoError(t, mr.Set("mdal:price:AAPL", `{"key":"price:MSFT","stored_at":"x","payload":{}}`))

	var out models.MPriceRecord
	_, err = store.Get(context.Background(), fp, &out)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "Corrupt entry under mdal:price:AAPL")
	assert.Contains(t, buf.String(), `"level":"debug"`)
}

func TestRedisStore_Unreachable(t *testing.T) {
	store, mr := newTestRedis(t)
	mr.Close()

	ctx := context.Background()
	fp, _ := models.PriceFingerprint("AAPL")
	assert.Error(t, store.Ping(ctx))
	assert.Error(t, store.Set(ctx, fp, models.MPriceRecord{}, time.Minute))

	var out models.MPriceRecord
	_, err := store.Get(ctx, fp, &out)
	assert.Error(t, err)
}
