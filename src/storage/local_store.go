package storage

import (
	"sync"
	"time"

	"market-terminal/src/models"
)

// -----------------------------------------------------------------------------
// LocalStore is the in-process tier: fingerprint -> (payload, fetched_at).
// Expired entries are evicted on read; nothing outlives the process.
// -----------------------------------------------------------------------------

type LocalStore struct {
	entries map[string]models.MCacheEntry
	window  func(models.FingerprintKind) time.Duration
	mu      sync.Mutex
}

// -----------------------------------------------------------------------------

func NewLocalStore() *LocalStore {
	return &LocalStore{
		entries: make(map[string]models.MCacheEntry),
		window: func(kind models.FingerprintKind) time.Duration {
			return models.FreshnessFor(kind).Local
		},
	}
}

// -----------------------------------------------------------------------------

// Get returns the payload if it was stored less than the local window ago.
func (s *LocalStore) Get(fp models.MFingerprint, now time.Time) (any, bool) {
	key := fp.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if now.Sub(entry.FetchedAt) >= s.window(fp.Kind) {
		delete(s.entries, key)
		return nil, false
	}
	return entry.Payload, true
}

// -----------------------------------------------------------------------------

// Put overwrites unconditionally.
func (s *LocalStore) Put(fp models.MFingerprint, payload any, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[fp.Key()] = models.MCacheEntry{
		Fingerprint: fp,
		Payload:     payload,
		FetchedAt:   now,
		Tier:        models.TierLocal,
	}
}

// -----------------------------------------------------------------------------

func (s *LocalStore) Delete(fp models.MFingerprint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, fp.Key())
}

// -----------------------------------------------------------------------------

func (s *LocalStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]models.MCacheEntry)
}

// -----------------------------------------------------------------------------

// Len counts entries, including ones that expired but were not read since.
func (s *LocalStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
