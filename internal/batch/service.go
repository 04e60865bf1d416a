package batch

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/semaphore"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
	"github.com/opencode-ai/mcp-gateway/internal/notify"
	"github.com/opencode-ai/mcp-gateway/internal/session"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// HardCap is the maximum parallelism a batch may request, per
// SPEC_FULL.md §4.5.
const HardCap = 8

// pollInterval and maxPollAttempts mirror the Session Manager's own
// monitoring loop defaults (P=5s, M=60 attempts) so a batch member is never
// polled more aggressively than a standalone session would be. Declared as
// vars, not consts, so tests can shrink pollInterval instead of waiting out
// the production cadence.
var (
	pollInterval    = 5 * time.Second
	maxPollAttempts = 60
)

// Service implements the Batch Processor.
type Service struct {
	mu       sync.RWMutex
	batches  map[string]*record
	sessions *session.Service
}

type record struct {
	mu sync.Mutex
	types.Batch
}

// NewService creates a Batch Processor bound to a Session Manager.
func NewService(sessions *session.Service) *Service {
	return &Service{batches: make(map[string]*record), sessions: sessions}
}

func clampParallel(requested int) int {
	if requested < 1 {
		return 1
	}
	if requested > HardCap {
		return HardCap
	}
	return requested
}

// CreateBatch starts a batch and dispatches its worker pool in the
// background, returning the initial snapshot.
func (s *Service) CreateBatch(ctx context.Context, tasks []types.BatchTask, parallel int) (*types.Batch, error) {
	if len(tasks) == 0 {
		return nil, apperr.NewValidation("invalid batch", apperr.Issue{Field: "tasks", Message: "must contain at least one task"})
	}

	members := make([]types.BatchMember, len(tasks))
	for i := range tasks {
		members[i] = types.BatchMember{Index: i, Status: types.SessionPending}
	}

	rec := &record{Batch: types.Batch{
		ID:        ulid.Make().String(),
		CreatedAt: time.Now(),
		Tasks:     tasks,
		Members:   members,
		Parallel:  clampParallel(parallel),
	}}

	s.mu.Lock()
	s.batches[rec.ID] = rec
	s.mu.Unlock()

	go s.dispatch(context.WithoutCancel(ctx), rec.ID)

	snapshot := rec.snapshot()
	return &snapshot, nil
}

// GetBatchStatus returns a batch's current snapshot.
func (s *Service) GetBatchStatus(batchID string) (*types.Batch, error) {
	rec, err := s.get(batchID)
	if err != nil {
		return nil, err
	}
	snapshot := rec.snapshot()
	return &snapshot, nil
}

// ListBatches returns all known batches.
func (s *Service) ListBatches() []*types.Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Batch, 0, len(s.batches))
	for _, rec := range s.batches {
		snapshot := rec.snapshot()
		out = append(out, &snapshot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ApproveAllInBatch approves the plan of every member currently awaiting
// approval.
func (s *Service) ApproveAllInBatch(ctx context.Context, batchID string) error {
	rec, err := s.get(batchID)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	pending := make([]string, 0)
	for _, m := range rec.Members {
		if m.Status == types.SessionAwaitingApproval && m.SessionID != "" {
			pending = append(pending, m.SessionID)
		}
	}
	rec.mu.Unlock()

	for _, sessionID := range pending {
		if _, err := s.sessions.ApprovePlan(ctx, sessionID); err != nil {
			return err
		}
	}
	return nil
}

// RetryFailedInBatch re-runs each failed member once, preserving its
// original task position, and relaunches the worker pool for the retried
// subset.
func (s *Service) RetryFailedInBatch(ctx context.Context, batchID string) error {
	rec, err := s.get(batchID)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	retryable := false
	for i, m := range rec.Members {
		if m.Status == types.SessionFailed && !m.Retried {
			rec.Members[i].Status = types.SessionPending
			rec.Members[i].Retried = true
			rec.Members[i].SessionID = ""
			retryable = true
		}
	}
	rec.mu.Unlock()

	if !retryable {
		return nil
	}

	go s.dispatch(context.WithoutCancel(ctx), batchID)
	return nil
}

// dispatch runs the batch's worker pool: pending members (in task order) are
// created and polled to terminal with at most Parallel concurrently
// non-terminal, per SPEC_FULL.md §4.5. Used both for the initial run and for
// RetryFailedInBatch, which resets failed members back to SessionPending
// before calling this.
func (s *Service) dispatch(ctx context.Context, batchID string) {
	rec, err := s.get(batchID)
	if err != nil {
		return
	}

	sem := semaphore.NewWeighted(int64(rec.Batch.Parallel))
	var wg sync.WaitGroup

	rec.mu.Lock()
	indices := make([]int, 0, len(rec.Members))
	for i, m := range rec.Members {
		if m.Status == types.SessionPending {
			indices = append(indices, i)
		}
	}
	rec.mu.Unlock()

	for _, i := range indices {
		if err := sem.Acquire(ctx, 1); err != nil {
			return
		}
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			defer sem.Release(1)
			s.runMember(ctx, rec, index)
		}(i)
	}
	wg.Wait()

	notify.Publish(notify.Event{Type: notify.BatchUpdated, Payload: rec.snapshot()})
}

// runMember creates one member's session and polls it to a terminal state.
func (s *Service) runMember(ctx context.Context, rec *record, index int) {
	task := rec.Batch.Tasks[index]

	sess, err := s.sessions.Create(ctx, task.Config)
	if err != nil {
		rec.setMemberStatus(index, "", types.SessionFailed)
		return
	}
	rec.setMemberStatus(index, sess.ID, sess.Status)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		polled, err := s.sessions.Poll(ctx, sess.ID)
		if err != nil {
			continue
		}
		rec.setMemberStatus(index, sess.ID, polled.Status)
		if polled.Status.IsTerminal() {
			return
		}
	}
}

func (rec *record) setMemberStatus(index int, sessionID string, status types.SessionStatus) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if sessionID != "" {
		rec.Members[index].SessionID = sessionID
	}
	rec.Members[index].Status = status
}

func (rec *record) snapshot() types.Batch {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	members := make([]types.BatchMember, len(rec.Members))
	copy(members, rec.Members)
	b := rec.Batch
	b.Members = members
	return b
}

func (s *Service) get(batchID string) (*record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.batches[batchID]
	if !ok {
		return nil, apperr.NewNotFound("batch not found")
	}
	return rec, nil
}
