package approval

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/opencode-ai/mcp-gateway/internal/notify"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// Checker manages the human-in-the-loop approval queue for workflow
// instances and sessions awaiting a plan-approval decision
// (SPEC_FULL.md §4.3, §4.11 approval_queue).
type Checker struct {
	mu      sync.RWMutex
	entries map[string]*types.ApprovalEntry // entry ID -> entry
	pending map[string]chan types.ApprovalDecision
}

// NewChecker creates a new approval checker.
func NewChecker() *Checker {
	return &Checker{
		entries: make(map[string]*types.ApprovalEntry),
		pending: make(map[string]chan types.ApprovalDecision),
	}
}

// RequestApproval files a new approval-queue entry and publishes an
// ApprovalRequired notification. It returns immediately; the caller awaits
// the decision separately via Await.
func (c *Checker) RequestApproval(workflowInstance, planSummary string, estimatedFiles int, riskLevel string) *types.ApprovalEntry {
	entry := &types.ApprovalEntry{
		ID:               ulid.Make().String(),
		WorkflowInstance: workflowInstance,
		PlanSummary:      planSummary,
		EstimatedFiles:   estimatedFiles,
		RiskLevel:        riskLevel,
		Decision:         types.ApprovalPending,
		RequestedAt:      time.Now(),
	}

	c.mu.Lock()
	c.entries[entry.ID] = entry
	c.pending[entry.ID] = make(chan types.ApprovalDecision, 1)
	c.mu.Unlock()

	notify.Publish(notify.Event{Type: notify.ApprovalRequired, Payload: entry})

	return entry
}

// Await blocks until the entry is decided or the context is cancelled. If no
// such entry exists it returns ApprovalPending immediately.
func (c *Checker) Await(ctx context.Context, entryID string) (types.ApprovalDecision, error) {
	c.mu.RLock()
	ch, ok := c.pending[entryID]
	c.mu.RUnlock()
	if !ok {
		return types.ApprovalPending, nil
	}

	select {
	case <-ctx.Done():
		return types.ApprovalPending, ctx.Err()
	case decision := <-ch:
		return decision, nil
	}
}

// Decide records a human decision for an approval-queue entry and notifies
// any waiter. Subsequent calls for an already-decided entry are no-ops.
func (c *Checker) Decide(entryID string, decision types.ApprovalDecision, approvedBy, notes string) *types.ApprovalEntry {
	c.mu.Lock()
	entry, ok := c.entries[entryID]
	if !ok || entry.Decision != types.ApprovalPending {
		c.mu.Unlock()
		return entry
	}

	now := time.Now()
	entry.Decision = decision
	entry.ApprovedBy = approvedBy
	entry.ApprovedAt = &now
	entry.Notes = notes

	ch := c.pending[entryID]
	delete(c.pending, entryID)
	c.mu.Unlock()

	if ch != nil {
		ch <- decision
	}

	notify.Publish(notify.Event{Type: notify.ApprovalResolved, Payload: entry})

	return entry
}

// Get returns the approval-queue entry by ID.
func (c *Checker) Get(entryID string) (*types.ApprovalEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[entryID]
	return entry, ok
}

// ListPending returns all entries still awaiting a decision.
func (c *Checker) ListPending() []*types.ApprovalEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*types.ApprovalEntry, 0)
	for _, entry := range c.entries {
		if entry.Decision == types.ApprovalPending {
			out = append(out, entry)
		}
	}
	return out
}
