package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-terminal/src/helpers"
	"market-terminal/src/interfaces"
	"market-terminal/src/logger"
	marketdata "market-terminal/src/market_data"
	"market-terminal/src/models"
	"market-terminal/src/storage"
	"market-terminal/src/utils"
)

type stubUpstream struct {
	calls   atomic.Int32
	failErr error
}

func (u *stubUpstream) Name() string { return "stub" }

func (u *stubUpstream) FetchPrice(_ context.Context, symbol string) (models.MPriceRecord, error) {
	u.calls.Add(1)
	if u.failErr != nil {
		return models.MPriceRecord{}, u.failErr
	}
	if symbol == "ZZZZZZ" {
		return models.MPriceRecord{}, helpers.NewSymbolNotFound(symbol)
	}
	return models.MPriceRecord{
		Symbol:     symbol,
		Price:      190.5,
		ChangePct:  1.3157,
		Volume:     51000000,
		ObservedAt: time.Date(2024, 6, 7, 15, 0, 0, 123456789, time.UTC),
	}, nil
}

func (u *stubUpstream) FetchHistory(_ context.Context, symbol string, period models.Period) (models.MHistoryRecord, error) {
	u.calls.Add(1)
	if symbol == "ZZZZZZ" {
		return models.MHistoryRecord{}, helpers.NewEmptyRange(symbol, string(period))
	}
	rows := []models.MHistoryRow{
		{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Open: 185, High: 187, Low: 184, Close: 186, Volume: 40000000},
		{Date: time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), Open: 188, High: 191, Low: 187, Close: 190, Volume: 45000000},
	}
	return models.MHistoryRecord{Symbol: symbol, Period: period, Rows: rows, LastClose: 190, ObservedAt: time.Now()}, nil
}

var _ interfaces.IUpstreamFetcher = (*stubUpstream)(nil)

func newTestServer(t *testing.T, shared interfaces.ISharedStore, up *stubUpstream) *FastAPIServer {
	t.Helper()
	log := logger.NewLoggerWithWriter(io.Discard, "ERROR", "test")
	if shared == nil {
		shared = storage.NoopStore{}
	}
	cache := marketdata.NewCoordinator(storage.NewLocalStore(), shared, up, 250*time.Millisecond, log)
	cfg := &models.MConfig{Name: "test", Host: "127.0.0.1", Port: 0, LogLevel: "ERROR"}
	return NewFastAPIServer(cfg, cache, utils.NewMarketScheduler(log), log)
}

func doGet(t *testing.T, s *FastAPIServer, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

// -----------------------------------------------------------------------------

func TestHealthAndRoot(t *testing.T) {
	s := newTestServer(t, nil, &stubUpstream{})

	rec, body := doGet(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok"}, body)

	rec, body = doGet(t, s, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["redis_connected"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestPrice_ColdThenMemory(t *testing.T) {
	up := &stubUpstream{}
	s := newTestServer(t, nil, up)

	rec, first := doGet(t, s, "/api/price/aapl")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, first["from_cache"])
	assert.Equal(t, "AAPL", first["symbol"])
	assert.Equal(t, "2024-06-07T15:00:00.123Z", first["time"])

	_, second := doGet(t, s, "/api/price/AAPL")
	assert.Equal(t, "memory", second["from_cache"])
	for _, key := range []string{"price", "change", "volume", "time"} {
		assert.Equal(t, first[key], second[key], key)
	}
	assert.Equal(t, int32(1), up.calls.Load())
}

func TestPrice_RedisPromotion(t *testing.T) {
	mr := miniredis.RunT(t)
	log := logger.NewLoggerWithWriter(io.Discard, "ERROR", "test")
	newShared := func() interfaces.ISharedStore {
		st, err := storage.NewRedisStore("redis://"+mr.Addr(), 250*time.Millisecond, log)
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		return st
	}

	upA := &stubUpstream{}
	upA2 := &stubUpstream{}
	procA := newTestServer(t, newShared(), upA)
	procB := newTestServer(t, newShared(), upA2)
	// The stub stamps a fixed observation time; keep the processes' clocks next to it.
	fixed := func() time.Time { return time.Date(2024, 6, 7, 15, 0, 20, 0, time.UTC) }
	procA.Cache.Now = fixed
	procB.Cache.Now = fixed

	_, body := doGet(t, procA, "/api/price/MSFT")
	assert.Equal(t, false, body["from_cache"])

	_, body = doGet(t, procB, "/api/price/MSFT")
	assert.Equal(t, "redis", body["from_cache"])
	_, body = doGet(t, procB, "/api/price/MSFT")
	assert.Equal(t, "memory", body["from_cache"])
	assert.Equal(t, int32(0), upA2.calls.Load())

	_, body = doGet(t, procB, "/")
	assert.Equal(t, true, body["redis_connected"])
}

func TestPrice_SharedStoreUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	st, err := storage.NewRedisStore("redis://"+mr.Addr(), 100*time.Millisecond, logger.NewLoggerWithWriter(io.Discard, "ERROR", "test"))
	require.NoError(t, err)
	mr.Close()

	s := newTestServer(t, st, &stubUpstream{})

	_, body := doGet(t, s, "/")
	assert.Equal(t, false, body["redis_connected"])

	rec, body := doGet(t, s, "/api/price/AAPL")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["from_cache"])

	_, body = doGet(t, s, "/api/price/AAPL")
	assert.Equal(t, "memory", body["from_cache"])
}

func TestPrice_ErrorMapping(t *testing.T) {
	s := newTestServer(t, nil, &stubUpstream{})

	rec, body := doGet(t, s, "/api/price/ZZZZZZ")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["detail"], "ZZZZZZ")

	rec, _ = doGet(t, s, "/api/price/AA%22PL")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	down := newTestServer(t, nil, &stubUpstream{failErr: helpers.NewUpstreamUnavailable("AAPL", context.DeadlineExceeded)})
	rec, body = doGet(t, down, "/api/price/AAPL")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "AAPL: upstream unavailable", body["detail"])

	bad := newTestServer(t, nil, &stubUpstream{failErr: helpers.NewMalformed("AAPL", io.ErrUnexpectedEOF)})
	rec, _ = doGet(t, bad, "/api/price/AAPL")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// -----------------------------------------------------------------------------

func TestHistory_DefaultPeriodAndOrder(t *testing.T) {
	s := newTestServer(t, nil, &stubUpstream{})

	rec, body := doGet(t, s, "/api/history/AAPL")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1mo", body["period"])
	assert.Equal(t, []any{"date", "open", "high", "low", "close", "volume"}, body["columns"])
	assert.Equal(t, false, body["from_cache"])

	data := body["data"].([]any)
	require.Len(t, data, 2)
	first := data[0].(map[string]any)
	last := data[1].(map[string]any)
	assert.Equal(t, "2024-06-03", first["date"])
	assert.Equal(t, "2024-06-04", last["date"])
	assert.Equal(t, last["close"], body["last_price"])

	_, body = doGet(t, s, "/api/history/aapl?period=1MO")
	assert.Equal(t, "memory", body["from_cache"])
}

func TestHistory_UnknownPeriodSkipsUpstream(t *testing.T) {
	up := &stubUpstream{}
	s := newTestServer(t, nil, up)

	rec, body := doGet(t, s, "/api/history/AAPL?period=17mo")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["detail"], "17mo")
	assert.Equal(t, int32(0), up.calls.Load())
}

func TestHistory_EmptyIsNotFound(t *testing.T) {
	s := newTestServer(t, nil, &stubUpstream{})
	rec, _ := doGet(t, s, "/api/history/ZZZZZZ?period=5d")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// -----------------------------------------------------------------------------

func TestBatch(t *testing.T) {
	s := newTestServer(t, nil, &stubUpstream{})

	rec, _ := doGet(t, s, "/api/batch?symbols=AAPL,,ZZZZZZ")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doGet(t, s, "/api/batch")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := doGet(t, s, "/api/batch?symbols=AAPL,ZZZZZZ,aapl")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])

	data := body["data"].(map[string]any)
	assert.Equal(t, 190.5, data["AAPL"].(map[string]any)["price"])
	assert.Equal(t, false, data["AAPL"].(map[string]any)["cached"])
	assert.Contains(t, data["ZZZZZZ"].(map[string]any), "error")

	// Keys keep first-occurrence order on the wire.
	raw := rec.Body.String()
	assert.Less(t, strings.Index(raw, `"AAPL"`), strings.Index(raw, `"ZZZZZZ"`))
}

// -----------------------------------------------------------------------------

func TestCORS(t *testing.T) {
	s := newTestServer(t, nil, &stubUpstream{})

	req := httptest.NewRequest(http.MethodOptions, "/api/price/AAPL", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "X-Custom")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "GET", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "X-Custom", rec.Header().Get("Access-Control-Allow-Headers"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://ui.example.com")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "https://ui.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

// -----------------------------------------------------------------------------

func TestMarketAndStats(t *testing.T) {
	s := newTestServer(t, nil, &stubUpstream{})
	s.Now = func() time.Time { return time.Date(2024, 6, 8, 15, 0, 0, 0, time.UTC) }

	rec, body := doGet(t, s, "/api/market/vod.l")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "VOD.L", body["symbol"])
	assert.Equal(t, "xlon", body["mic"])
	assert.Equal(t, false, body["trading_day"])

	doGet(t, s, "/api/price/AAPL")
	doGet(t, s, "/api/price/AAPL")
	_, body = doGet(t, s, "/api/cache/stats")
	assert.Equal(t, float64(1), body["local_hits"])
	assert.Equal(t, float64(1), body["upstream_calls"])
	assert.Equal(t, "disabled", body["shared_backend"])
}
