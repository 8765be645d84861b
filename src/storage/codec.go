package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"market-terminal/src/models"
)

const keyPrefix = "mdal:"

// ErrSharedStoreDisabled is returned by the no-op store on writes and pings.
var ErrSharedStoreDisabled = errors.New("shared store disabled")

// envelope is the JSON document written to every shared backend.
type envelope struct {
	Key      string          `json:"key"`
	StoredAt string          `json:"stored_at"`
	Payload  json.RawMessage `json:"payload"`
}

func storageKey(fp models.MFingerprint) string {
	return keyPrefix + fp.Key()
}

// -----------------------------------------------------------------------------

func encodeEnvelope(fp models.MFingerprint, payload any, now time.Time) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload for %s: %w", fp.Key(), err)
	}
	return json.Marshal(envelope{
		Key:      fp.Key(),
		StoredAt: models.FormatTimestamp(now),
		Payload:  raw,
	})
}

// -----------------------------------------------------------------------------

func decodeEnvelope(data []byte, fp models.MFingerprint, out any) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to unmarshal envelope for %s: %w", fp.Key(), err)
	}
	if env.Key != fp.Key() {
		return fmt.Errorf("envelope key mismatch: want %s, got %s", fp.Key(), env.Key)
	}
	if len(env.Payload) == 0 {
		return fmt.Errorf("envelope for %s has no payload", fp.Key())
	}
	if err := json.Unmarshal(env.Payload, out); err != nil {
		return fmt.Errorf("failed to unmarshal payload for %s: %w", fp.Key(), err)
	}
	return nil
}
