package types

import "time"

// QueueItemStatus is the lifecycle state of a priority queue admission unit.
type QueueItemStatus string

const (
	QueueItemPending    QueueItemStatus = "pending"
	QueueItemProcessing QueueItemStatus = "processing"
	QueueItemCompleted  QueueItemStatus = "completed"
	QueueItemFailed     QueueItemStatus = "failed"
)

// QueueItem is a pending session-creation request ordered by priority.
type QueueItem struct {
	ID          string          `json:"id"`
	Config      SessionConfig   `json:"config"`
	Priority    int             `json:"priority"` // lower = higher priority
	Status      QueueItemStatus `json:"status"`
	AddedAt     time.Time       `json:"addedAt"`
	SessionID   string          `json:"sessionID,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// QueueStats summarizes queue occupancy.
type QueueStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}
