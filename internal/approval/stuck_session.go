package approval

import (
	"sync"
	"time"

	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// StuckThreshold is how long a session's observable state (status + activity
// count) may stay unchanged across monitoring-loop polls before it is
// reported stuck, adapted from the teacher's doom-loop detector (which
// flagged N identical tool calls in a row) to instead flag a session whose
// snapshot hasn't moved across N polls.
const StuckThreshold = 5 * time.Minute

// snapshot is the last-observed fingerprint of one session.
type snapshot struct {
	status        types.SessionStatus
	activityCount int
	since         time.Time
}

// StuckDetector tracks per-session snapshots across monitoring-loop polls
// and flags sessions that haven't made observable progress, feeding the
// stuck-session sweeper (SPEC_FULL.md §4.14).
type StuckDetector struct {
	mu   sync.Mutex
	seen map[string]snapshot
}

// NewStuckDetector creates a new stuck-session detector.
func NewStuckDetector() *StuckDetector {
	return &StuckDetector{seen: make(map[string]snapshot)}
}

// Observe records one poll's snapshot and reports whether the session has
// been stuck (same status, same activity count) for at least StuckThreshold.
func (d *StuckDetector) Observe(sessionID string, status types.SessionStatus, activityCount int) bool {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	prev, ok := d.seen[sessionID]
	if !ok || prev.status != status || prev.activityCount != activityCount {
		d.seen[sessionID] = snapshot{status: status, activityCount: activityCount, since: now}
		return false
	}

	return now.Sub(prev.since) >= StuckThreshold
}

// Clear drops tracking state for a session, called once it reaches a
// terminal state or is deleted.
func (d *StuckDetector) Clear(sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, sessionID)
}
