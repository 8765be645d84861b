package network

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-terminal/src/logger"
	"market-terminal/src/models"
)

func newTestManager(retries int) *AsyncNetworkManager {
	cfg := &models.MConfig{Network: models.MNetworkConfig{RequestTimeout: 5, MaxRetries: retries, UserAgent: "terminal-test"}}
	nm := NewAsyncNetworkManager(cfg, logger.NewLoggerWithWriter(io.Discard, "ERROR", "test"))
	nm.BaseBackoff = time.Millisecond
	return nm
}

func TestGet_PassesParamsAndUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "terminal-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	body, err := newTestManager(0).Get(context.Background(), srv.URL, map[string]string{"interval": "1d"})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	body, err := newTestManager(2).Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestManager(3).Get(context.Background(), srv.URL, nil)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGet_ExhaustedRetriesKeepStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestManager(1).Get(context.Background(), srv.URL, nil)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.Code)
	assert.True(t, statusErr.Retryable())
}

func TestGet_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestManager(3).Get(ctx, srv.URL, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
