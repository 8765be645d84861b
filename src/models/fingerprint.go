package models

import (
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Fingerprint: canonical key of one logical upstream query
// -----------------------------------------------------------------------------

type FingerprintKind string

const (
	KindPrice   FingerprintKind = "price"
	KindHistory FingerprintKind = "history"
)

const MaxSymbolLength = 32

// Period is a Yahoo chart range.
type Period string

const (
	Period1d  Period = "1d"
	Period5d  Period = "5d"
	Period1mo Period = "1mo"
	Period3mo Period = "3mo"
	Period6mo Period = "6mo"
	Period1y  Period = "1y"
	Period2y  Period = "2y"
	Period5y  Period = "5y"
	Period10y Period = "10y"
	PeriodYtd Period = "ytd"
	PeriodMax Period = "max"

	DefaultPeriod = Period1mo
)

var validPeriods = map[Period]bool{
	Period1d: true, Period5d: true, Period1mo: true, Period3mo: true,
	Period6mo: true, Period1y: true, Period2y: true, Period5y: true,
	Period10y: true, PeriodYtd: true, PeriodMax: true,
}

// MFingerprint identifies a price or history query. Build it with
// PriceFingerprint or HistoryFingerprint so the symbol is normalized.
type MFingerprint struct {
	Kind   FingerprintKind
	Symbol string
	Period Period
}

// -----------------------------------------------------------------------------

// NormalizeSymbol trims and uppercases a ticker and rejects anything that is
// not a plain printable ASCII token.
func NormalizeSymbol(raw string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(raw))
	if sym == "" {
		return "", fmt.Errorf("symbol is empty")
	}
	if len(sym) > MaxSymbolLength {
		return "", fmt.Errorf("symbol %q is longer than %d characters", sym, MaxSymbolLength)
	}
	for i := 0; i < len(sym); i++ {
		c := sym[i]
		if c <= ' ' || c > '~' {
			return "", fmt.Errorf("symbol %q contains a non-printable character", sym)
		}
		switch c {
		case '/', ',', '?', '#', '%', '\\', '"', '\'':
			return "", fmt.Errorf("symbol %q contains disallowed character %q", sym, c)
		}
	}
	return sym, nil
}

// -----------------------------------------------------------------------------

// ParsePeriod accepts only the recognized chart ranges.
func ParsePeriod(raw string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(raw)))
	if !validPeriods[p] {
		return "", fmt.Errorf("unknown period %q", raw)
	}
	return p, nil
}

func ValidPeriods() []Period {
	return []Period{
		Period1d, Period5d, Period1mo, Period3mo, Period6mo, Period1y,
		Period2y, Period5y, Period10y, PeriodYtd, PeriodMax,
	}
}

// -----------------------------------------------------------------------------

func PriceFingerprint(symbol string) (MFingerprint, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return MFingerprint{}, err
	}
	return MFingerprint{Kind: KindPrice, Symbol: sym}, nil
}

func HistoryFingerprint(symbol, period string) (MFingerprint, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return MFingerprint{}, err
	}
	p, err := ParsePeriod(period)
	if err != nil {
		return MFingerprint{}, err
	}
	return MFingerprint{Kind: KindHistory, Symbol: sym, Period: p}, nil
}

// -----------------------------------------------------------------------------

// Key renders the fingerprint as a cache key, e.g. "price:AAPL" or
// "history:AAPL:1mo".
func (f MFingerprint) Key() string {
	if f.Kind == KindHistory {
		return fmt.Sprintf("%s:%s:%s", f.Kind, f.Symbol, f.Period)
	}
	return fmt.Sprintf("%s:%s", f.Kind, f.Symbol)
}

func (f MFingerprint) String() string {
	return f.Key()
}
