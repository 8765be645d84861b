package models

import "time"

// MMarketStatus reports the trading calendar state of a symbol's exchange.
type MMarketStatus struct {
	Symbol     string    `json:"symbol"`
	MIC        string    `json:"mic"`
	Timezone   string    `json:"timezone"`
	TradingDay bool      `json:"trading_day"`
	Open       bool      `json:"open"`
	Timestamp  time.Time `json:"timestamp"`
}
