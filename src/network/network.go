package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"market-terminal/src/helpers"
	"market-terminal/src/interfaces"
	"market-terminal/src/logger"
	"market-terminal/src/models"
)

// StatusError is a non-2xx upstream answer.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status %d from %s", e.Code, e.URL)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code == http.StatusForbidden || e.Code >= 500
}

// -----------------------------------------------------------------------------

type AsyncNetworkManager struct {
	Config       *models.MConfig
	ProxyManager interfaces.IProxyManager
	Client       *http.Client
	Logger       *logger.Logger
	BaseBackoff  time.Duration
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg *models.MConfig, log *logger.Logger) *AsyncNetworkManager {
	var proxies []string
	if cfg.Network.Enabled {
		proxies = cfg.Network.Proxies
	}

	nm := &AsyncNetworkManager{
		Config:       cfg,
		ProxyManager: helpers.NewProxyManager(proxies, cfg.Network.UserAgent, log.Named("ProxyManager")),
		Logger:       log,
		BaseBackoff:  200 * time.Millisecond,
	}
	nm.Client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) createClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if nm.ProxyManager.HasProxies() {
		// Resolved per request so RotateProxy takes effect without a new client.
		transport.Proxy = func(*http.Request) (*url.URL, error) {
			proxyStr, err := nm.ProxyManager.GetCurrentProxy()
			if err != nil || proxyStr == "" {
				return nil, err
			}
			return url.Parse(proxyStr)
		}
	}

	timeout := time.Duration(nm.Config.Network.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// -----------------------------------------------------------------------------

// Get performs a GET request with retries and proxy rotation. The context
// bounds the whole call including backoff sleeps.
func (nm *AsyncNetworkManager) Get(ctx context.Context, urlStr string, params map[string]string) ([]byte, error) {
	reqUrl, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	q := reqUrl.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqUrl.RawQuery = q.Encode()

	finalUrl := reqUrl.String()

	maxRetries := nm.Config.Network.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			delay := nm.BaseBackoff * time.Duration(i*i)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			nm.ProxyManager.RotateProxy()
		}

		body, err := nm.do(ctx, finalUrl)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			return nil, err
		}
		nm.Logger.Debug("Request failed (attempt %d/%d): %v", i+1, maxRetries+1, err)
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) do(ctx context.Context, finalUrl string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalUrl, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", nm.ProxyManager.GetUserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := nm.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{Code: resp.StatusCode, URL: finalUrl}
	}

	return io.ReadAll(resp.Body)
}
