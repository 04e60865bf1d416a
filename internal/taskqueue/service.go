package taskqueue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
	"github.com/opencode-ai/mcp-gateway/internal/notify"
	"github.com/opencode-ai/mcp-gateway/internal/session"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// maxAttempts bounds how many times a failed task is retried before it is
// marked exhausted.
const maxAttempts = 5

// Service implements the Task Queue's external-ingest admission path.
type Service struct {
	mu       sync.Mutex
	items    map[string]*types.TaskItem
	order    []string
	sessions *session.Service
}

// NewService creates a Task Queue bound to a Session Manager.
func NewService(sessions *session.Service) *Service {
	return &Service{items: make(map[string]*types.TaskItem), sessions: sessions}
}

// Accept admits a new task derived from an external trigger.
func (s *Service) Accept(trigger string, cfg types.SessionConfig) *types.TaskItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := &types.TaskItem{
		ID:            ulid.Make().String(),
		Trigger:       trigger,
		Config:        cfg,
		Status:        types.TaskItemPending,
		AddedAt:       time.Now(),
		NextAttemptAt: time.Now(),
	}
	s.items[item.ID] = item
	s.order = append(s.order, item.ID)

	notify.Publish(notify.Event{Type: notify.QueueItemUpdated, Payload: *item})
	return item
}

// ProcessNext claims and runs the oldest pending task whose retry backoff
// has elapsed, creating its session via the Session Manager. It returns
// (nil, nil) when nothing is eligible.
func (s *Service) ProcessNext(ctx context.Context) (*types.TaskItem, error) {
	item := s.claimNext()
	if item == nil {
		return nil, nil
	}

	sess, err := s.sessions.Create(ctx, item.Config)
	if err != nil {
		s.recordFailure(item.ID, err.Error())
		return item, nil
	}
	s.recordSuccess(item.ID, sess.ID)
	return item, nil
}

func (s *Service) claimNext() *types.TaskItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, id := range s.order {
		item := s.items[id]
		if item.Status == types.TaskItemPending && !item.NextAttemptAt.After(now) {
			item.Status = types.TaskItemRunning
			return item
		}
	}
	return nil
}

func (s *Service) recordSuccess(id, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return
	}
	item.Status = types.TaskItemDone
	item.SessionID = sessionID
	now := time.Now()
	item.CompletedAt = &now
	notify.Publish(notify.Event{Type: notify.QueueItemUpdated, Payload: *item})
}

func (s *Service) recordFailure(id, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return
	}
	item.Attempts++
	item.Error = errMsg

	if item.Attempts >= maxAttempts {
		item.Status = types.TaskItemFailed
		now := time.Now()
		item.CompletedAt = &now
	} else {
		item.Status = types.TaskItemPending
		item.NextAttemptAt = time.Now().Add(backoffDelay(item.Attempts))
	}
	notify.Publish(notify.Event{Type: notify.QueueItemUpdated, Payload: *item})
}

// backoffDelay returns the exponential backoff delay before the given
// attempt count's next retry.
func backoffDelay(attempts int) time.Duration {
	bo := backoff.NewExponentialBackOff()
	var d time.Duration
	for i := 0; i < attempts; i++ {
		d = bo.NextBackOff()
	}
	return d
}

// Get fetches a task by id.
func (s *Service) Get(id string) (*types.TaskItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, apperr.NewNotFound("task not found")
	}
	copied := *item
	return &copied, nil
}

// List returns all tasks in admission order.
func (s *Service) List() []*types.TaskItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.TaskItem, 0, len(s.order))
	for _, id := range s.order {
		copied := *s.items[id]
		out = append(out, &copied)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out
}

// Stats summarizes task counts by status.
func (s *Service) Stats() types.TaskQueueStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats types.TaskQueueStats
	for _, item := range s.items {
		switch item.Status {
		case types.TaskItemPending:
			stats.Pending++
		case types.TaskItemRunning:
			stats.Running++
		case types.TaskItemDone:
			stats.Done++
		case types.TaskItemFailed:
			stats.Failed++
		}
	}
	return stats
}
