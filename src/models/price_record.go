package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// MPriceRecord is the upstream answer for a single symbol.
type MPriceRecord struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	ChangePct  float64   `json:"change_pct"`
	Volume     int64     `json:"volume"`
	ObservedAt time.Time `json:"observed_at"`
}

func (r MPriceRecord) ObservedTime() time.Time {
	return r.ObservedAt
}

// -----------------------------------------------------------------------------

// MarshalJSON writes observed_at in TimestampLayout.
func (r MPriceRecord) MarshalJSON() ([]byte, error) {
	type plain MPriceRecord
	return json.Marshal(struct {
		plain
		ObservedAt string `json:"observed_at"`
	}{plain(r), FormatTimestamp(r.ObservedAt)})
}

func (r *MPriceRecord) UnmarshalJSON(data []byte) error {
	type plain MPriceRecord
	aux := struct {
		*plain
		ObservedAt string `json:"observed_at"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t, err := ParseTimestamp(aux.ObservedAt)
	if err != nil {
		return fmt.Errorf("observed_at: %w", err)
	}
	r.ObservedAt = t
	return nil
}
