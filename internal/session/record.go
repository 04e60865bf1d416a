package session

import (
	"time"

	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// record is the persisted envelope around a types.Session: the session
// itself plus the upstream provider's own identifier for it, which the
// gateway never exposes to callers, and the raw before/after file content
// behind the last diff the provider reported.
type record struct {
	types.Session
	RemoteID string          `json:"remoteID"`
	RawDiffs map[string]diff `json:"rawDiffs,omitempty"`
}

// diff is the raw before/after file content the upstream provider returns;
// the gateway renders it to a unified diff on demand (see diff.go).
type diff struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

// mapRemoteStatus translates the upstream provider's status vocabulary onto
// the gateway's own SessionStatus. The provider is assumed to speak the same
// vocabulary as SPEC_FULL.md's state machine; this indirection is the single
// place that would change if it didn't.
func mapRemoteStatus(raw string) types.SessionStatus {
	return types.SessionStatus(raw)
}

func newActivity(activityType, content string) types.Activity {
	return types.Activity{Timestamp: time.Now(), Type: activityType, Content: content}
}
