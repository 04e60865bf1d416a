package queue

import (
	"container/heap"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
	"github.com/opencode-ai/mcp-gateway/internal/notify"
	"github.com/opencode-ai/mcp-gateway/internal/session"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// defaultMaxRetained bounds how many terminal items are kept before the
// oldest is evicted, per SPEC_FULL.md §4.6.
const defaultMaxRetained = 100

// Service implements the Priority Queue.
type Service struct {
	mu       sync.Mutex
	pending  itemHeap
	items    map[string]*types.QueueItem
	terminal []string // ids of terminal items, oldest first

	seq         int64
	maxRetained int
	sessions    *session.Service
}

// NewService creates a Priority Queue bound to a Session Manager.
func NewService(sessions *session.Service) *Service {
	return &Service{
		items:       make(map[string]*types.QueueItem),
		maxRetained: defaultMaxRetained,
		sessions:    sessions,
	}
}

// Add admits a new pending item.
func (s *Service) Add(cfg types.SessionConfig, priority int) *types.QueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := &types.QueueItem{
		ID:       ulid.Make().String(),
		Config:   cfg,
		Priority: priority,
		Status:   types.QueueItemPending,
		AddedAt:  time.Now(),
	}
	s.items[item.ID] = item
	s.seq++
	heap.Push(&s.pending, &entry{item: item, seq: s.seq})

	notify.Publish(notify.Event{Type: notify.QueueItemUpdated, Payload: *item})
	return item
}

// GetNext atomically pulls and claims the highest-priority pending item,
// marking it processing before returning it, per the drain contract.
func (s *Service) GetNext() (*types.QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending.Len() == 0 {
		return nil, false
	}
	e := heap.Pop(&s.pending).(*entry)
	e.item.Status = types.QueueItemProcessing
	notify.Publish(notify.Event{Type: notify.QueueItemUpdated, Payload: *e.item})
	return e.item, true
}

// MarkComplete records a processing item's success.
func (s *Service) MarkComplete(id, sessionID string) error {
	return s.markTerminal(id, types.QueueItemCompleted, sessionID, "")
}

// MarkFailed records a processing item's failure.
func (s *Service) MarkFailed(id, errMsg string) error {
	return s.markTerminal(id, types.QueueItemFailed, "", errMsg)
}

func (s *Service) markTerminal(id string, status types.QueueItemStatus, sessionID, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return apperr.NewNotFound("queue item not found")
	}

	item.Status = status
	item.SessionID = sessionID
	item.Error = errMsg
	now := time.Now()
	item.CompletedAt = &now

	s.terminal = append(s.terminal, id)
	s.evictOverflowLocked()

	notify.Publish(notify.Event{Type: notify.QueueItemUpdated, Payload: *item})
	return nil
}

// evictOverflowLocked drops the oldest terminal items once the retention
// cap is exceeded. Caller must hold s.mu.
func (s *Service) evictOverflowLocked() {
	for len(s.terminal) > s.maxRetained {
		id := s.terminal[0]
		s.terminal = s.terminal[1:]
		delete(s.items, id)
	}
}

// List returns all known items, oldest-added first.
func (s *Service) List() []*types.QueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.QueueItem, 0, len(s.items))
	for _, item := range s.items {
		copied := *item
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out
}

// Stats summarizes item counts by status.
func (s *Service) Stats() types.QueueStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats types.QueueStats
	for _, item := range s.items {
		switch item.Status {
		case types.QueueItemPending:
			stats.Pending++
		case types.QueueItemProcessing:
			stats.Processing++
		case types.QueueItemCompleted:
			stats.Completed++
		case types.QueueItemFailed:
			stats.Failed++
		}
	}
	return stats
}

// Clear removes only pending items; processing and terminal items are left
// untouched.
func (s *Service) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.pending.Len()
	for _, e := range s.pending {
		delete(s.items, e.item.ID)
	}
	s.pending = nil
	return removed
}

// ProcessQueue drains one pending item: claims it, creates its session via
// the Session Manager, and records the outcome. It returns (nil, nil)
// when the queue is empty.
func (s *Service) ProcessQueue(ctx context.Context) (*types.QueueItem, error) {
	item, ok := s.GetNext()
	if !ok {
		return nil, nil
	}

	sess, err := s.sessions.Create(ctx, item.Config)
	if err != nil {
		_ = s.MarkFailed(item.ID, err.Error())
		return item, err
	}
	if err := s.MarkComplete(item.ID, sess.ID); err != nil {
		return item, err
	}
	return item, nil
}
