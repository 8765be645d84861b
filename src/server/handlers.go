package server

import (
	"context"
	"net/http"
	"time"

	"market-terminal/src/helpers"
	"market-terminal/src/models"

	"github.com/gin-gonic/gin"
)

const (
	historyDateLayout = "2006-01-02"
	rootPingTimeout   = time.Second
)

// -----------------------------------------------------------------------------
// Wire types
// -----------------------------------------------------------------------------

type priceResponse struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	Volume    int64   `json:"volume"`
	Time      string  `json:"time"`
	FromCache any     `json:"from_cache"`
}

type historyRow struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

type historyResponse struct {
	Symbol    string       `json:"symbol"`
	Period    string       `json:"period"`
	Data      []historyRow `json:"data"`
	Columns   []string     `json:"columns"`
	LastPrice float64      `json:"last_price"`
	FromCache any          `json:"from_cache"`
}

type marketResponse struct {
	Symbol     string `json:"symbol"`
	MIC        string `json:"mic"`
	Timezone   string `json:"timezone"`
	TradingDay bool   `json:"trading_day"`
	Open       bool   `json:"open"`
	Timestamp  string `json:"timestamp"`
}

// fromCache keeps the legacy client contract: false, "memory" or "redis".
func fromCache(tier models.CacheTier) any {
	switch tier {
	case models.TierLocal:
		return "memory"
	case models.TierShared:
		return "redis"
	default:
		return false
	}
}

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

func statusFor(err error) int {
	switch helpers.KindOf(err) {
	case helpers.KindInputInvalid, helpers.KindMalformed:
		return http.StatusBadRequest
	case helpers.KindSymbolNotFound, helpers.KindEmptyRange:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *FastAPIServer) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"detail": helpers.ShortMessage(err)})
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *FastAPIServer) getRoot(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), rootPingTimeout)
	defer cancel()

	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"redis_connected": s.Cache.PingShared(ctx),
		"timestamp":       models.FormatTimestamp(s.Now()),
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getPrice(c *gin.Context) {
	rec, tier, err := s.Cache.GetPrice(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, priceResponse{
		Symbol:    rec.Symbol,
		Price:     rec.Price,
		Change:    rec.ChangePct,
		Volume:    rec.Volume,
		Time:      models.FormatTimestamp(rec.ObservedAt),
		FromCache: fromCache(tier),
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getHistory(c *gin.Context) {
	period := c.DefaultQuery("period", string(models.DefaultPeriod))

	rec, tier, err := s.Cache.GetHistory(c.Request.Context(), c.Param("symbol"), period)
	if err != nil {
		s.writeError(c, err)
		return
	}

	rows := make([]historyRow, 0, len(rec.Rows))
	for _, r := range rec.Rows {
		rows = append(rows, historyRow{
			Date:   r.Date.UTC().Format(historyDateLayout),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}

	c.JSON(http.StatusOK, historyResponse{
		Symbol:    rec.Symbol,
		Period:    string(rec.Period),
		Data:      rows,
		Columns:   models.HistoryColumns,
		LastPrice: rec.LastClose,
		FromCache: fromCache(tier),
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getBatch(c *gin.Context) {
	res, err := s.Cache.GetBatch(c.Request.Context(), c.Query("symbols"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getMarket(c *gin.Context) {
	sym, err := models.NormalizeSymbol(c.Param("symbol"))
	if err != nil {
		s.writeError(c, helpers.NewInputInvalid(c.Param("symbol"), err))
		return
	}

	st := s.Markets.MarketStatus(sym, s.Now())
	c.JSON(http.StatusOK, marketResponse{
		Symbol:     st.Symbol,
		MIC:        st.MIC,
		Timezone:   st.Timezone,
		TradingDay: st.TradingDay,
		Open:       st.Open,
		Timestamp:  models.FormatTimestamp(st.Timestamp),
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.Cache.Stats())
}
