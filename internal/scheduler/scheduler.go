package scheduler

import (
	"context"
	"time"

	"github.com/opencode-ai/mcp-gateway/internal/approval"
	"github.com/opencode-ai/mcp-gateway/internal/logging"
	"github.com/opencode-ai/mcp-gateway/internal/queue"
	"github.com/opencode-ai/mcp-gateway/internal/session"
	"github.com/opencode-ai/mcp-gateway/internal/taskqueue"
	"github.com/opencode-ai/mcp-gateway/internal/webhook"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// Default cadences, per SPEC_FULL.md §5 (P seconds / M attempts for the
// monitoring loop; 24h default retention drives the reaper's cadence).
const (
	defaultPollInterval = 5 * time.Second
	defaultReapInterval = time.Hour
)

// Scheduler owns the process's background loops. The components it drives
// are otherwise self-contained and have no scheduling opinion of their own.
type Scheduler struct {
	sessions *session.Service
	queue    *queue.Service
	tasks    *taskqueue.Service
	dedup    *webhook.DedupStore
	stuck    *approval.StuckDetector

	pollInterval time.Duration
	reapInterval time.Duration
}

// New creates a Scheduler. queue, tasks, and dedup may be nil if the
// corresponding ingress path is not wired up.
func New(sessions *session.Service, q *queue.Service, tasks *taskqueue.Service, dedup *webhook.DedupStore) *Scheduler {
	return &Scheduler{
		sessions:     sessions,
		queue:        q,
		tasks:        tasks,
		dedup:        dedup,
		stuck:        approval.NewStuckDetector(),
		pollInterval: defaultPollInterval,
		reapInterval: defaultReapInterval,
	}
}

// Run blocks, driving the poll and reap ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	pollTicker := time.NewTicker(s.pollInterval)
	reapTicker := time.NewTicker(s.reapInterval)
	defer pollTicker.Stop()
	defer reapTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			s.monitorSweep(ctx)
			s.drainQueues(ctx)
		case <-reapTicker.C:
			s.reapDedup()
		}
	}
}

// monitorSweep polls every session not already terminal or awaiting
// approval, and flags sessions whose snapshot hasn't moved across
// consecutive sweeps.
func (s *Scheduler) monitorSweep(ctx context.Context) {
	snapshot, err := s.sessions.MonitorAll(ctx)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("scheduler: monitor snapshot failed")
		return
	}

	for status, ids := range snapshot.IDs {
		if status.IsTerminal() || status == types.SessionAwaitingApproval {
			continue
		}
		for _, id := range ids {
			s.pollOne(ctx, id)
		}
	}
}

func (s *Scheduler) pollOne(ctx context.Context, id string) {
	sess, err := s.sessions.Poll(ctx, id)
	if err != nil {
		logging.Logger.Warn().Str("sessionId", id).Err(err).Msg("scheduler: poll failed")
		return
	}

	if sess.Status.IsTerminal() || sess.Status == types.SessionAwaitingApproval {
		s.stuck.Clear(id)
		return
	}

	if s.stuck.Observe(id, sess.Status, len(sess.Activities)) {
		logging.Logger.Warn().Str("sessionId", id).Str("status", string(sess.Status)).Msg("scheduler: session stuck past soft deadline, failing with timeout")
		s.stuck.Clear(id)
		if _, err := s.sessions.FailTimeout(ctx, id); err != nil {
			logging.Logger.Error().Str("sessionId", id).Err(err).Msg("scheduler: failed to transition stuck session to failed(timeout)")
		}
	}
}

// drainQueues runs the Priority Queue and Task Queue to exhaustion for this
// tick; each call is independently bounded by its own dispatcher.
func (s *Scheduler) drainQueues(ctx context.Context) {
	if s.queue != nil {
		for {
			item, err := s.queue.ProcessQueue(ctx)
			if err != nil || item == nil {
				break
			}
		}
	}
	if s.tasks != nil {
		for {
			item, err := s.tasks.ProcessNext(ctx)
			if err != nil || item == nil {
				break
			}
		}
	}
}

func (s *Scheduler) reapDedup() {
	if s.dedup == nil {
		return
	}
	if n := s.dedup.Reap(); n > 0 {
		logging.Logger.Info().Int("count", n).Msg("scheduler: reaped stale webhook dedup entries")
	}
}
