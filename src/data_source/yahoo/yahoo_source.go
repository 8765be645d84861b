package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"market-terminal/src/analysis/core"
	"market-terminal/src/helpers"
	"market-terminal/src/interfaces"
	"market-terminal/src/logger"
	"market-terminal/src/models"
	"market-terminal/src/network"
)

const (
	DefaultBaseURL        = "https://query1.finance.yahoo.com"
	DefaultPriceTimeout   = 5 * time.Second
	DefaultHistoryTimeout = 15 * time.Second
)

type YahooFinanceSource struct {
	SourceConfig   models.MDataSourceConfig
	Network        interfaces.INetworkManager
	Logger         *logger.Logger
	BaseURL        string
	PriceTimeout   time.Duration
	HistoryTimeout time.Duration
	Now            func() time.Time
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

func NewYahooFinanceSource(cfg *models.MConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *YahooFinanceSource {
	s := &YahooFinanceSource{
		SourceConfig:   cfg.DataSource,
		Network:        netMgr,
		Logger:         log.Named("YahooFinanceSource-" + cfg.DataSource.Name),
		BaseURL:        strings.TrimRight(cfg.DataSource.BaseURL, "/"),
		PriceTimeout:   time.Duration(cfg.Network.PriceTimeoutSeconds) * time.Second,
		HistoryTimeout: time.Duration(cfg.Network.HistoryTimeoutSeconds) * time.Second,
		Now:            time.Now,
	}
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	if s.PriceTimeout <= 0 {
		s.PriceTimeout = DefaultPriceTimeout
	}
	if s.HistoryTimeout <= 0 {
		s.HistoryTimeout = DefaultHistoryTimeout
	}
	return s
}

// -----------------------------------------------------------------------------

// FetchPrice reads the last five daily bars plus the chart meta block.
func (s *YahooFinanceSource) FetchPrice(ctx context.Context, symbol string) (models.MPriceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.PriceTimeout)
	defer cancel()

	resp, err := s.fetchChart(ctx, symbol, "5d")
	if err != nil {
		return models.MPriceRecord{}, err
	}
	observedAt := s.Now().UTC().Truncate(time.Millisecond)

	bars, err := s.parseBars(symbol, resp)
	if err != nil {
		return models.MPriceRecord{}, err
	}
	meta := resp.Chart.Result[0].Meta

	price := core.SafeFloat(meta.RegularMarketPrice)
	if price == 0 && len(bars) > 0 {
		price = bars[len(bars)-1].Close
	}

	var prevClose float64
	switch {
	case len(bars) >= 2:
		prevClose = bars[len(bars)-2].Close
	case meta.PreviousClose > 0:
		prevClose = meta.PreviousClose
	default:
		prevClose = meta.ChartPreviousClose
	}

	volume := core.SafeVolume(meta.RegularMarketVolume)
	if volume == 0 && len(bars) > 0 {
		volume = bars[len(bars)-1].Volume
	}

	return models.MPriceRecord{
		Symbol:     symbol,
		Price:      price,
		ChangePct:  core.SafeFloat(core.CalculateChangePercent(price, prevClose)),
		Volume:     volume,
		ObservedAt: observedAt,
	}, nil
}

// -----------------------------------------------------------------------------

// FetchHistory returns daily bars for the period, oldest first.
func (s *YahooFinanceSource) FetchHistory(ctx context.Context, symbol string, period models.Period) (models.MHistoryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.HistoryTimeout)
	defer cancel()

	resp, err := s.fetchChart(ctx, symbol, string(period))
	if err != nil {
		return models.MHistoryRecord{}, err
	}
	observedAt := s.Now().UTC().Truncate(time.Millisecond)

	bars, err := s.parseBars(symbol, resp)
	if err != nil {
		return models.MHistoryRecord{}, err
	}
	if len(bars) == 0 {
		return models.MHistoryRecord{}, helpers.NewEmptyRange(symbol, string(period))
	}

	s.Logger.Debug("Fetched %s %s: %d bars [%s -> %s]", symbol, period, len(bars),
		bars[0].Date.Format("2006-01-02"), bars[len(bars)-1].Date.Format("2006-01-02"))

	return models.MHistoryRecord{
		Symbol:     symbol,
		Period:     period,
		Rows:       bars,
		LastClose:  bars[len(bars)-1].Close,
		ObservedAt: observedAt,
	}, nil
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) fetchChart(ctx context.Context, symbol, rangeStr string) (*YahooChartResponse, error) {
	params := map[string]string{
		"interval":       "1d",
		"range":          rangeStr,
		"includePrePost": "false",
	}

	chartURL := fmt.Sprintf("%s/v8/finance/chart/%s", s.BaseURL, url.PathEscape(symbol))

	respBytes, err := s.Network.Get(ctx, chartURL, params)
	if err != nil {
		var statusErr *network.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, helpers.NewSymbolNotFound(symbol)
		}
		return nil, helpers.NewUpstreamUnavailable(symbol, err)
	}

	var resp YahooChartResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, helpers.NewMalformed(symbol, fmt.Errorf("json unmarshal failed: %w", err))
	}

	if resp.Chart.Error != nil {
		if strings.EqualFold(resp.Chart.Error.Code, "Not Found") {
			return nil, helpers.NewSymbolNotFound(symbol)
		}
		return nil, helpers.NewMalformed(symbol, fmt.Errorf("yahoo api error: %s - %s", resp.Chart.Error.Code, resp.Chart.Error.Description))
	}

	if len(resp.Chart.Result) == 0 {
		return nil, helpers.NewSymbolNotFound(symbol)
	}

	return &resp, nil
}

// -----------------------------------------------------------------------------

type YahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency             string  `json:"currency"`
				Symbol               string  `json:"symbol"`
				ExchangeName         string  `json:"exchangeName"`
				InstrumentType       string  `json:"instrumentType"`
				RegularMarketTime    int64   `json:"regularMarketTime"`
				Gmtoffset            int     `json:"gmtoffset"`
				ExchangeTimezoneName string  `json:"exchangeTimezoneName"`
				RegularMarketPrice   float64 `json:"regularMarketPrice"`
				RegularMarketVolume  float64 `json:"regularMarketVolume"`
				ChartPreviousClose   float64 `json:"chartPreviousClose"`
				PreviousClose        float64 `json:"previousClose"`
				DataGranularity      string  `json:"dataGranularity"`
				Range                string  `json:"range"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					High   []*float64 `json:"high"` // null for missing bars
					Low    []*float64 `json:"low"`
					Open   []*float64 `json:"open"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// -----------------------------------------------------------------------------

// parseBars turns the parallel arrays into daily rows: bars with a missing
// price are dropped, rows are sorted by date and a repeated date keeps the
// bar that comes later in the response. No timestamps means no rows.
func (s *YahooFinanceSource) parseBars(symbol string, resp *YahooChartResponse) ([]models.MHistoryRow, error) {
	result := resp.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return nil, nil
	}

	if len(result.Indicators.Quote) == 0 {
		return nil, helpers.NewMalformed(symbol, fmt.Errorf("no quote data in response"))
	}
	quote := result.Indicators.Quote[0]

	n := len(result.Timestamp)
	if len(quote.Close) != n || len(quote.Open) != n || len(quote.High) != n ||
		len(quote.Low) != n || len(quote.Volume) != n {
		return nil, helpers.NewMalformed(symbol, fmt.Errorf("data alignment error: mismatched array lengths"))
	}

	loc := time.FixedZone("exchange", result.Meta.Gmtoffset)

	byDate := make(map[time.Time]models.MHistoryRow, n)
	for i := 0; i < n; i++ {
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}
		closeVal := core.SafeFloat(*quote.Close[i])
		if closeVal <= 0 {
			continue
		}

		var volume int64
		if quote.Volume[i] != nil {
			volume = core.SafeVolume(*quote.Volume[i])
		}

		local := time.Unix(result.Timestamp[i], 0).In(loc)
		date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

		byDate[date] = models.MHistoryRow{
			Date:   date,
			Open:   core.SafeFloat(*quote.Open[i]),
			High:   core.SafeFloat(*quote.High[i]),
			Low:    core.SafeFloat(*quote.Low[i]),
			Close:  closeVal,
			Volume: volume,
		}
	}

	rows := make([]models.MHistoryRow, 0, len(byDate))
	for _, row := range byDate {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})

	return rows, nil
}
