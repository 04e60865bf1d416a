package types

import "time"

// TaskItemStatus is the lifecycle state of one externally-triggered task.
type TaskItemStatus string

const (
	TaskItemPending TaskItemStatus = "pending"
	TaskItemRunning TaskItemStatus = "running"
	TaskItemDone    TaskItemStatus = "done"
	TaskItemFailed  TaskItemStatus = "failed"
)

// TaskItem is one admitted unit of externally-triggered work: an issue
// tagged with a watched label, a ticket webhook, or similar. Exactly one
// session is created per accepted task.
type TaskItem struct {
	ID            string         `json:"id"`
	Trigger       string         `json:"trigger"` // opaque identifier of the triggering entity (e.g. "issue:123")
	Config        SessionConfig  `json:"config"`
	Status        TaskItemStatus `json:"status"`
	Attempts      int            `json:"attempts"`
	SessionID     string         `json:"sessionID,omitempty"`
	AddedAt       time.Time      `json:"addedAt"`
	NextAttemptAt time.Time      `json:"nextAttemptAt"`
	CompletedAt   *time.Time     `json:"completedAt,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// TaskQueueStats summarizes task queue occupancy.
type TaskQueueStats struct {
	Pending int `json:"pending"`
	Running int `json:"running"`
	Done    int `json:"done"`
	Failed  int `json:"failed"`
}
