package types

import "time"

// WorkflowStatus is the lifecycle state of a persisted workflow instance.
type WorkflowStatus string

const (
	WorkflowPending          WorkflowStatus = "pending"
	WorkflowRunning          WorkflowStatus = "running"
	WorkflowAwaitingApproval WorkflowStatus = "awaiting_approval"
	WorkflowExecuting        WorkflowStatus = "executing"
	WorkflowCompleted        WorkflowStatus = "completed"
	WorkflowFailed           WorkflowStatus = "failed"
	WorkflowCancelled        WorkflowStatus = "cancelled"
)

// WorkflowTemplate is a long-lived workflow definition.
type WorkflowTemplate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Definition  string    `json:"definition"` // opaque, e.g. serialized step list
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WorkflowInstance is a per-run state of a WorkflowTemplate.
type WorkflowInstance struct {
	ID          string         `json:"id"`
	TemplateID  string         `json:"templateID"`
	Status      WorkflowStatus `json:"status"`
	Context     string         `json:"context,omitempty"` // opaque JSON blob
	Error       string         `json:"error,omitempty"`
	RetryCount  int            `json:"retryCount"`
	StartedAt   *time.Time     `json:"startedAt,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// ActionLogEntry is an immutable audit record of one workflow action.
type ActionLogEntry struct {
	ID               string    `json:"id"`
	WorkflowInstance string    `json:"workflowInstance"`
	ActionType       string    `json:"actionType"`
	Config           string    `json:"config,omitempty"`
	Result           string    `json:"result,omitempty"`
	Success          bool      `json:"success"`
	Error            string    `json:"error,omitempty"`
	DurationMs       int64     `json:"durationMs"`
	Timestamp        time.Time `json:"timestamp"`
}

// ApprovalDecision is the human decision on an ApprovalEntry.
type ApprovalDecision string

const (
	ApprovalPending  ApprovalDecision = ""
	ApprovalApproved ApprovalDecision = "approved"
	ApprovalRejected ApprovalDecision = "rejected"
)

// ApprovalEntry is a persisted human-in-the-loop approval record.
type ApprovalEntry struct {
	ID               string           `json:"id"`
	WorkflowInstance string           `json:"workflowInstance"`
	PlanSummary      string           `json:"planSummary"`
	EstimatedFiles   int              `json:"estimatedFiles"`
	RiskLevel        string           `json:"riskLevel"`
	Decision         ApprovalDecision `json:"decision"`
	RequestedAt      time.Time        `json:"requestedAt"`
	ApprovedBy       string           `json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time       `json:"approvedAt,omitempty"`
	Notes            string           `json:"notes,omitempty"`
}

// WebhookEvent is a persisted record of one received webhook.
type WebhookEvent struct {
	ID               string    `json:"id"`
	Source           string    `json:"source"`
	EventType        string    `json:"eventType"`
	Payload          string    `json:"payload"`
	Processed        bool      `json:"processed"`
	WorkflowInstance string    `json:"workflowInstance,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}
