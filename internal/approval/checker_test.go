package approval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

func TestRequestApprovalThenApprove(t *testing.T) {
	checker := NewChecker()

	entry := checker.RequestApproval("wf-1", "add health endpoint", 3, "low")
	assert.Equal(t, types.ApprovalPending, entry.Decision)

	done := make(chan types.ApprovalDecision, 1)
	go func() {
		decision, err := checker.Await(context.Background(), entry.ID)
		require.NoError(t, err)
		done <- decision
	}()

	time.Sleep(10 * time.Millisecond)
	decided := checker.Decide(entry.ID, types.ApprovalApproved, "alice", "looks good")
	assert.Equal(t, types.ApprovalApproved, decided.Decision)
	assert.Equal(t, "alice", decided.ApprovedBy)

	select {
	case decision := <-done:
		assert.Equal(t, types.ApprovalApproved, decision)
	case <-time.After(time.Second):
		t.Fatal("Await did not return after Decide")
	}
}

func TestAwaitRespectsContextCancellation(t *testing.T) {
	checker := NewChecker()
	entry := checker.RequestApproval("wf-1", "risky change", 10, "high")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := checker.Await(ctx, entry.ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDecideIsIdempotent(t *testing.T) {
	checker := NewChecker()
	entry := checker.RequestApproval("wf-1", "plan", 1, "low")

	first := checker.Decide(entry.ID, types.ApprovalApproved, "bob", "")
	second := checker.Decide(entry.ID, types.ApprovalRejected, "carol", "too late")

	assert.Equal(t, types.ApprovalApproved, first.Decision)
	assert.Equal(t, types.ApprovalApproved, second.Decision)
	assert.Equal(t, "bob", second.ApprovedBy)
}

func TestListPendingExcludesDecided(t *testing.T) {
	checker := NewChecker()
	a := checker.RequestApproval("wf-1", "a", 1, "low")
	checker.RequestApproval("wf-2", "b", 2, "low")

	checker.Decide(a.ID, types.ApprovalApproved, "dave", "")

	pending := checker.ListPending()
	require.Len(t, pending, 1)
	assert.Equal(t, "wf-2", pending[0].WorkflowInstance)
}
