package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// MHistoryRow is one daily bar.
type MHistoryRow struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// MHistoryRecord holds bars ordered strictly ascending by date.
type MHistoryRecord struct {
	Symbol     string        `json:"symbol"`
	Period     Period        `json:"period"`
	Rows       []MHistoryRow `json:"rows"`
	LastClose  float64       `json:"last_close"`
	ObservedAt time.Time     `json:"observed_at"`
}

func (r MHistoryRecord) ObservedTime() time.Time {
	return r.ObservedAt
}

// HistoryColumns lists the row fields in wire order.
var HistoryColumns = []string{"date", "open", "high", "low", "close", "volume"}

// -----------------------------------------------------------------------------
// JSON: timestamps in TimestampLayout
// -----------------------------------------------------------------------------

func (r MHistoryRow) MarshalJSON() ([]byte, error) {
	type plain MHistoryRow
	return json.Marshal(struct {
		plain
		Date string `json:"date"`
	}{plain(r), FormatTimestamp(r.Date)})
}

func (r *MHistoryRow) UnmarshalJSON(data []byte) error {
	type plain MHistoryRow
	aux := struct {
		*plain
		Date string `json:"date"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t, err := ParseTimestamp(aux.Date)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	r.Date = t
	return nil
}

// -----------------------------------------------------------------------------

func (r MHistoryRecord) MarshalJSON() ([]byte, error) {
	type plain MHistoryRecord
	return json.Marshal(struct {
		plain
		ObservedAt string `json:"observed_at"`
	}{plain(r), FormatTimestamp(r.ObservedAt)})
}

func (r *MHistoryRecord) UnmarshalJSON(data []byte) error {
	type plain MHistoryRecord
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
