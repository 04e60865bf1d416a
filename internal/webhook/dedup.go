// Package webhook implements the Webhook Receiver (SPEC_FULL.md §4.8):
// signature verification and the deploy-failure auto-remediation flow.
package webhook

import (
	"sync"
	"time"
)

// dedupKey identifies one remediation attempt.
type dedupKey struct {
	serviceID string
	deployID  string
}

// dedupEntry records when a remediation session was created for a key.
type dedupEntry struct {
	sessionID string
	seenAt    time.Time
}

// DedupStore is a bounded, sliding-expiry map from (serviceId, deployId) to
// the remediation session it produced, adapted from the teacher's
// internal/sharing Manager (map + sync.RWMutex + a CleanExpired reaper).
type DedupStore struct {
	mu        sync.RWMutex
	entries   map[dedupKey]dedupEntry
	retention time.Duration
}

// NewDedupStore creates a store that considers entries stale after
// retention (default 24h per SPEC_FULL.md §4.8's cleanup reaper).
func NewDedupStore(retention time.Duration) *DedupStore {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &DedupStore{entries: make(map[dedupKey]dedupEntry), retention: retention}
}

// Seen reports whether a remediation session already exists for
// (serviceID, deployID) and has not yet expired.
func (s *DedupStore) Seen(serviceID, deployID string) (sessionID string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, found := s.entries[dedupKey{serviceID, deployID}]
	if !found || time.Since(entry.seenAt) > s.retention {
		return "", false
	}
	return entry.sessionID, true
}

// Record marks (serviceID, deployID) as remediated by sessionID.
func (s *DedupStore) Record(serviceID, deployID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[dedupKey{serviceID, deployID}] = dedupEntry{sessionID: sessionID, seenAt: time.Now()}
}

// Reap evicts entries older than retention and returns how many were
// removed. Intended to be called periodically by internal/scheduler.
func (s *DedupStore) Reap() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if time.Since(entry.seenAt) > s.retention {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}
