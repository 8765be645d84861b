package models

import "time"

// CacheTier tells where a payload was served from.
type CacheTier int

const (
	TierNone CacheTier = iota
	TierLocal
	TierShared
)

func (t CacheTier) String() string {
	switch t {
	case TierLocal:
		return "LOCAL"
	case TierShared:
		return "SHARED"
	default:
		return "NONE"
	}
}

// Freshness windows per fingerprint kind.
const (
	PriceLocalWindow    = 30 * time.Second
	PriceSharedWindow   = 60 * time.Second
	HistoryLocalWindow  = 300 * time.Second
	HistorySharedWindow = 300 * time.Second
)

type MFreshness struct {
	Local  time.Duration
	Shared time.Duration
}

func FreshnessFor(kind FingerprintKind) MFreshness {
	if kind == KindHistory {
		return MFreshness{Local: HistoryLocalWindow, Shared: HistorySharedWindow}
	}
	return MFreshness{Local: PriceLocalWindow, Shared: PriceSharedWindow}
}

// MCacheEntry is an LS slot.
type MCacheEntry struct {
	Fingerprint MFingerprint
	Payload     any
	FetchedAt   time.Time
	Tier        CacheTier
}

// MCacheStats are coordinator counters.
type MCacheStats struct {
	LocalHits      int64  `json:"local_hits"`
	SharedHits     int64  `json:"shared_hits"`
	UpstreamCalls  int64  `json:"upstream_calls"`
	UpstreamErrors int64  `json:"upstream_errors"`
	SharedErrors   int64  `json:"shared_errors"`
	LocalEntries   int    `json:"local_entries"`
	SharedBackend  string `json:"shared_backend"`
}
