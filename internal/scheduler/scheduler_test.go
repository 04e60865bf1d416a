package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/opencode-ai/mcp-gateway/internal/queue"
	"github.com/opencode-ai/mcp-gateway/internal/session"
	"github.com/opencode-ai/mcp-gateway/internal/storage"
	"github.com/opencode-ai/mcp-gateway/internal/taskqueue"
	"github.com/opencode-ai/mcp-gateway/internal/upstream"
	"github.com/opencode-ai/mcp-gateway/internal/webhook"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

type fakeUpstream struct {
	mu       sync.Mutex
	statuses map[string]types.SessionStatus
}

var _ upstream.Client = (*fakeUpstream)(nil)

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{statuses: make(map[string]types.SessionStatus)}
}

func (f *fakeUpstream) CreateSession(ctx context.Context, cfg types.SessionConfig) (*upstream.RemoteSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := "rs-" + cfg.Title
	f.statuses[id] = types.SessionPlanning
	return &upstream.RemoteSession{RemoteID: id, Status: string(types.SessionPlanning)}, nil
}
func (f *fakeUpstream) GetSession(ctx context.Context, remoteID string) (*upstream.RemoteSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &upstream.RemoteSession{RemoteID: remoteID, Status: string(f.statuses[remoteID])}, nil
}
func (f *fakeUpstream) SendMessage(ctx context.Context, remoteID, message string) error { return nil }
func (f *fakeUpstream) ApprovePlan(ctx context.Context, remoteID string) error          { return nil }
func (f *fakeUpstream) CancelSession(ctx context.Context, remoteID string) error        { return nil }
func (f *fakeUpstream) ResolveDefaultBranch(ctx context.Context, source types.Source) (string, error) {
	return "main", nil
}
func (f *fakeUpstream) FetchDeployLogs(ctx context.Context, deployID string) (string, error) {
	return "", nil
}

func (f *fakeUpstream) setStatus(remoteID string, status types.SessionStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[remoteID] = status
}

func TestMonitorSweepPollsNonTerminalSessions(t *testing.T) {
	store := storage.New(t.TempDir())
	up := newFakeUpstream()
	sessions := session.NewService(store, up)

	sess, err := sessions.Create(context.Background(), types.SessionConfig{
		Prompt: "do a thing with enough characters", Source: "sources/github/acme/widget", Title: "a",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	up.setStatus("rs-a", types.SessionAwaitingApproval)

	s := New(sessions, nil, nil, nil)
	s.monitorSweep(context.Background())

	got, err := sessions.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != types.SessionAwaitingApproval {
		t.Errorf("expected monitorSweep to poll and sync status, got %q", got.Status)
	}
}

func TestDrainQueuesProcessesPendingItems(t *testing.T) {
	store := storage.New(t.TempDir())
	up := newFakeUpstream()
	sessions := session.NewService(store, up)
	q := queue.NewService(sessions)
	tq := taskqueue.NewService(sessions)

	q.Add(types.SessionConfig{Prompt: "queued work item", Source: "sources/github/acme/widget", Title: "q1"}, 1)
	tq.Accept("issue:1", types.SessionConfig{Prompt: "task work item", Source: "sources/github/acme/widget", Title: "t1"})

	s := New(sessions, q, tq, nil)
	s.drainQueues(context.Background())

	if stats := q.Stats(); stats.Completed != 1 {
		t.Errorf("expected queue item completed, got %+v", stats)
	}
	if stats := tq.Stats(); stats.Done != 1 {
		t.Errorf("expected task item done, got %+v", stats)
	}
}

func TestReapDedupEvictsStaleEntries(t *testing.T) {
	dedup := webhook.NewDedupStore(time.Millisecond)
	dedup.Record("svc-1", "deploy-1", "sess-1")
	time.Sleep(5 * time.Millisecond)

	s := New(nil, nil, nil, dedup)
	s.reapDedup()

	if _, ok := dedup.Seen("svc-1", "deploy-1"); ok {
		t.Error("expected reap to evict the stale dedup entry")
	}
}

func (f *fakeUpstream) State() string { return "closed" }
