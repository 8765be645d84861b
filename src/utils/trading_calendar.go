package utils

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

const defaultMIC = "xnys"

// Yahoo ticker suffix -> ISO 10383 MIC understood by scmhub/calendar.
var suffixMIC = map[string]string{
	".L":  "xlon",
	".PA": "xpar",
	".DE": "xfra",
	".AS": "xams",
	".BR": "xbru",
	".MI": "xmil",
	".MC": "xmad",
	".ST": "xsto",
	".CO": "xcse",
	".HE": "xhel",
	".VI": "xwbo",
	".SW": "xswx",
	".TO": "xtse",
	".V":  "xtsx",
	".T":  "xtks",
	".HK": "xhkg",
	".AX": "xasx",
	".KS": "xkrx",
	".TW": "xtai",
	".SS": "xshg",
	".SZ": "xshe",
}

// TradingCalendar calculates trading days using scmhub/calendar.
type TradingCalendar struct {
	MIC      string
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// MICForSymbol maps a Yahoo ticker to its exchange. Symbols without a known
// suffix, indices (^GSPC) and currency pairs (EURUSD=X) fall back to NYSE.
func MICForSymbol(symbol string) string {
	sym := strings.ToUpper(symbol)
	dot := strings.LastIndexByte(sym, '.')
	if dot < 0 {
		return defaultMIC
	}
	if mic, ok := suffixMIC[sym[dot:]]; ok {
		return mic
	}
	return defaultMIC
}

// -----------------------------------------------------------------------------

func LoadCalendar(mic string) *TradingCalendar {
	cal := calendar.GetCalendar(mic)
	if cal == nil && mic != defaultMIC {
		mic = defaultMIC
		cal = calendar.GetCalendar(mic)
	}

	if cal == nil {
		// Simple fallback: Mon-Fri 09:30-16:00 New York
		nyLoc, _ := time.LoadLocation("America/New_York")
		if nyLoc == nil {
			nyLoc = time.UTC
		}
		return &TradingCalendar{MIC: mic, Fallback: true, Timezone: nyLoc}
	}

	return &TradingCalendar{MIC: mic, Calendar: cal, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenAt checks if the market is open at t.
func (tc *TradingCalendar) IsOpenAt(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}
		hour, minute := t.Hour(), t.Minute()
		return (hour > 9 || (hour == 9 && minute >= 30)) && hour < 16
	}

	return tc.Calendar.IsOpen(t)
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) TimezoneName() string {
	if tc.Timezone == nil {
		return "UTC"
	}
	return tc.Timezone.String()
}
