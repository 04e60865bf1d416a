// Package types provides the core data types for the mcp gateway.
package types

import "time"

// SessionStatus is a state in the session lifecycle state machine (SPEC_FULL.md §4.3).
type SessionStatus string

const (
	SessionPending           SessionStatus = "pending"
	SessionPlanning          SessionStatus = "planning"
	SessionAwaitingApproval  SessionStatus = "awaiting_approval"
	SessionExecuting         SessionStatus = "executing"
	SessionCompleted         SessionStatus = "completed"
	SessionFailed            SessionStatus = "failed"
	SessionCancelled         SessionStatus = "cancelled"
)

// IsTerminal reports whether status is a sink state.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionCompleted, SessionFailed, SessionCancelled:
		return true
	default:
		return false
	}
}

// sessionEdges enumerates the permitted transitions of the state machine.
var sessionEdges = map[SessionStatus][]SessionStatus{
	SessionPending:          {SessionPlanning, SessionFailed, SessionCancelled},
	SessionPlanning:         {SessionAwaitingApproval, SessionExecuting, SessionFailed, SessionCancelled},
	SessionAwaitingApproval: {SessionExecuting, SessionCancelled, SessionFailed},
	SessionExecuting:        {SessionCompleted, SessionFailed, SessionCancelled},
}

// CanTransition reports whether from -> to is a permitted edge.
func CanTransition(from, to SessionStatus) bool {
	if from.IsTerminal() {
		return false
	}
	for _, allowed := range sessionEdges[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AutomationMode controls whether a completed session auto-creates a PR.
type AutomationMode string

const (
	AutomationAutoCreatePR AutomationMode = "AUTO_CREATE_PR"
	AutomationNone         AutomationMode = "NONE"
)

// SessionConfig is the immutable-once-created configuration of a session.
type SessionConfig struct {
	Prompt              string         `json:"prompt"`
	Source              string         `json:"source"`
	Branch              string         `json:"branch,omitempty"`
	Title               string         `json:"title,omitempty"`
	RequirePlanApproval bool           `json:"requirePlanApproval"`
	AutomationMode      AutomationMode `json:"automationMode"`
}

// Activity is an opaque, append-only timestamped progress event.
type Activity struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
}

// Plan is an opaque upstream-produced description of intended changes.
type Plan struct {
	Summary        string   `json:"summary"`
	EstimatedFiles int      `json:"estimatedFiles"`
	RiskLevel      string   `json:"riskLevel"`
	Steps          []string `json:"steps,omitempty"`
}

// Result is present once a session reaches a terminal state.
type Result struct {
	Success bool   `json:"success"`
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Session is the central unit of work.
type Session struct {
	ID         string        `json:"id"`
	Status     SessionStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
	Config     SessionConfig `json:"config"`
	Plan       *Plan         `json:"plan,omitempty"`
	Activities []Activity    `json:"activities"`
	Result     *Result       `json:"result,omitempty"`
	PRUrl      string        `json:"prUrl,omitempty"`
	ParentID   string        `json:"parentID,omitempty"`
}

// FileDiff represents a diff for a single file (session_get_diff).
type FileDiff struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Unified   string `json:"unified"`
}

// SessionFilter selects sessions for list().
type SessionFilter struct {
	State SessionStatus
	Limit int
}
