package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"market-terminal/src/helpers"
	"market-terminal/src/models"
)

// -----------------------------------------------------------------------------
// Batch Facade
// -----------------------------------------------------------------------------

// MBatchItem is one slot of a batch answer: either a quote or an error.
type MBatchItem struct {
	Symbol string
	Price  float64
	Change float64
	Cached bool
	Err    string
}

func (i MBatchItem) MarshalJSON() ([]byte, error) {
	if i.Err != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{i.Err})
	}
	return json.Marshal(struct {
		Price  float64 `json:"price"`
		Change float64 `json:"change"`
		Cached bool    `json:"cached"`
	}{i.Price, i.Change, i.Cached})
}

// BatchData marshals as a JSON object keyed by symbol, in slice order.
type BatchData []MBatchItem

func (d BatchData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Symbol)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the slot for symbol.
func (d BatchData) Get(symbol string) (MBatchItem, bool) {
	for _, item := range d {
		if item.Symbol == symbol {
			return item, true
		}
	}
	return MBatchItem{}, false
}

type BatchResult struct {
	Count     int       `json:"count"`
	Data      BatchData `json:"data"`
	Timestamp string    `json:"timestamp"`
}

// -----------------------------------------------------------------------------

// ParseSymbolList splits a comma separated list, trims each token and drops
// repeats after uppercasing. An empty token rejects the whole list.
func ParseSymbolList(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, helpers.NewInputInvalid("", errors.New("symbols list is empty"))
	}

	parts := strings.Split(raw, ",")
	seen := make(map[string]bool, len(parts))
	symbols := make([]string, 0, len(parts))
	for _, part := range parts {
		tok := strings.ToUpper(strings.TrimSpace(part))
		if tok == "" {
			return nil, helpers.NewInputInvalid("", errors.New("symbols list contains an empty entry"))
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		symbols = append(symbols, tok)
	}
	return symbols, nil
}

// -----------------------------------------------------------------------------

// GetBatch resolves each symbol through the coordinator one after another.
// A failing symbol gets an error slot; only an unusable list fails the call.
func (c *Coordinator) GetBatch(ctx context.Context, raw string) (BatchResult, error) {
	symbols, err := ParseSymbolList(raw)
	if err != nil {
		return BatchResult{}, err
	}

	data := make(BatchData, 0, len(symbols))
	for _, sym := range symbols {
		item := MBatchItem{Symbol: sym}

		rec, tier, err := c.GetPrice(ctx, sym)
		if err != nil {
			item.Err = helpers.ShortMessage(err)
			c.Logger.Debug("Batch slot %s failed: %v", sym, err)
		} else {
			item.Price = rec.Price
			item.Change = rec.ChangePct
			item.Cached = tier != models.TierNone
		}
		data = append(data, item)
	}

	return BatchResult{
		Count:     len(data),
		Data:      data,
		Timestamp: models.FormatTimestamp(c.Now()),
	}, nil
}
