package utils

import (
	"sync"
	"time"

	"market-terminal/src/logger"
	"market-terminal/src/models"
)

// MarketScheduler answers "is this symbol's market open" and keeps one
// calendar per exchange, loaded on first use.
type MarketScheduler struct {
	Calendars map[string]*TradingCalendar
	Logger    *logger.Logger
	mu        sync.Mutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(l *logger.Logger) *MarketScheduler {
	return &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
	}
}

// -----------------------------------------------------------------------------

func (ms *MarketScheduler) calendarFor(symbol string) *TradingCalendar {
	mic := MICForSymbol(symbol)

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if cal, ok := ms.Calendars[mic]; ok {
		return cal
	}
	cal := LoadCalendar(mic)
	if cal.Fallback {
		ms.Logger.Warning("No calendar for MIC '%s', using Mon-Fri 09:30-16:00 New York", mic)
	}
	ms.Calendars[mic] = cal
	return cal
}

// -----------------------------------------------------------------------------

// MarketStatus expects an already normalized symbol.
func (ms *MarketScheduler) MarketStatus(symbol string, now time.Time) models.MMarketStatus {
	cal := ms.calendarFor(symbol)
	return models.MMarketStatus{
		Symbol:     symbol,
		MIC:        cal.MIC,
		Timezone:   cal.TimezoneName(),
		TradingDay: cal.IsTradingDay(now),
		Open:       cal.IsOpenAt(now),
		Timestamp:  now.UTC(),
	}
}

// -----------------------------------------------------------------------------

// AnyMarketOpen checks if any calendar loaded so far is open at now.
func (ms *MarketScheduler) AnyMarketOpen(now time.Time) bool {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, cal := range ms.Calendars {
		if cal.IsOpenAt(now) {
			return true
		}
	}
	return false
}
