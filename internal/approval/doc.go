// Package approval implements the human-in-the-loop approval queue
// (SPEC_FULL.md §4.3, §4.11) and the stuck-session detector that feeds the
// scheduler's stuck-session sweeper (SPEC_FULL.md §4.14).
//
// Checker files ApprovalEntry records when a session or workflow instance
// reaches awaiting_approval, publishes a notify.ApprovalRequired event, and
// lets a caller block on Await until a human calls Decide. It is adapted
// from the teacher's internal/permission Checker (which gated tool calls on
// allow/deny/ask policy) generalized to gate session/workflow transitions
// on an explicit approve/reject decision instead of a policy lookup.
//
// StuckDetector is adapted from the teacher's DoomLoopDetector, which
// flagged a session issuing the same tool call N times in a row; here it
// flags a session whose status and activity count haven't moved across
// StuckThreshold worth of monitoring-loop polls.
package approval
