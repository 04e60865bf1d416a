package batch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/opencode-ai/mcp-gateway/internal/session"
	"github.com/opencode-ai/mcp-gateway/internal/storage"
	"github.com/opencode-ai/mcp-gateway/internal/upstream"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// fakeUpstream resolves every session straight to completed on first poll,
// except remote IDs listed in failRemoteIDs, which resolve to failed.
type fakeUpstream struct {
	mu            sync.Mutex
	nextID        int
	failRemoteIDs map[string]bool
}

var _ upstream.Client = (*fakeUpstream)(nil)

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{failRemoteIDs: make(map[string]bool)}
}

func (f *fakeUpstream) CreateSession(ctx context.Context, cfg types.SessionConfig) (*upstream.RemoteSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := cfg.Title
	if id == "" {
		id = "member"
	}
	return &upstream.RemoteSession{RemoteID: id, Status: string(types.SessionPlanning)}, nil
}

func (f *fakeUpstream) GetSession(ctx context.Context, remoteID string) (*upstream.RemoteSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRemoteIDs[remoteID] {
		return &upstream.RemoteSession{RemoteID: remoteID, Status: string(types.SessionFailed)}, nil
	}
	return &upstream.RemoteSession{RemoteID: remoteID, Status: string(types.SessionCompleted)}, nil
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

func (f *fakeUpstream) markFailing(remoteID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failRemoteIDs[remoteID] = true
}

func newTestService(t *testing.T) (*Service, *fakeUpstream) {
	t.Helper()
	prevInterval, prevAttempts := pollInterval, maxPollAttempts
	pollInterval = time.Millisecond
	maxPollAttempts = 50
	t.Cleanup(func() {
		pollInterval, maxPollAttempts = prevInterval, prevAttempts
	})

	store := storage.New(t.TempDir())
	up := newFakeUpstream()
	return NewService(session.NewService(store, up)), up
}

func tasksWithTitles(titles ...string) []types.BatchTask {
	tasks := make([]types.BatchTask, len(titles))
	for i, title := range titles {
		tasks[i] = types.BatchTask{Config: types.SessionConfig{
			Prompt: "do the thing for " + title,
			Source: "sources/github/acme/widget",
			Title:  title,
		}}
	}
	return tasks
}

func waitForTerminal(t *testing.T, s *Service, batchID string, want int) *types.Batch {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b, err := s.GetBatchStatus(batchID)
		if err != nil {
			t.Fatalf("GetBatchStatus: %v", err)
		}
		terminal := 0
		for _, m := range b.Members {
			if m.Status.IsTerminal() {
				terminal++
			}
		}
		if terminal >= want {
			return b
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d terminal members", want)
	return nil
}

func TestCreateBatchClampsParallel(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	b, err := svc.CreateBatch(ctx, tasksWithTitles("a"), 0)
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if b.Parallel != 1 {
		t.Errorf("expected parallel coerced to 1, got %d", b.Parallel)
	}

	b2, err := svc.CreateBatch(ctx, tasksWithTitles("a"), 100)
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if b2.Parallel != HardCap {
		t.Errorf("expected parallel coerced to %d, got %d", HardCap, b2.Parallel)
	}
}

func TestCreateBatchRejectsEmptyTasks(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.CreateBatch(context.Background(), nil, 1); err == nil {
		t.Fatal("expected validation error for empty task list")
	}
}

func TestCreateBatchRunsMembersToCompletion(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	b, err := svc.CreateBatch(ctx, tasksWithTitles("one", "two", "three"), 2)
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	final := waitForTerminal(t, svc, b.ID, 3)
	for _, m := range final.Members {
		if m.Status != types.SessionCompleted {
			t.Errorf("member %d: expected completed, got %q", m.Index, m.Status)
		}
		if m.SessionID == "" {
			t.Errorf("member %d: expected a session id", m.Index)
		}
	}
}

func TestRetryFailedInBatchPreservesPosition(t *testing.T) {
	svc, up := newTestService(t)
	ctx := context.Background()

	up.markFailing("flaky")
	b, err := svc.CreateBatch(ctx, tasksWithTitles("ok", "flaky"), 2)
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	waitForTerminal(t, svc, b.ID, 2)

	up.mu.Lock()
	delete(up.failRemoteIDs, "flaky")
	up.mu.Unlock()

	if err := svc.RetryFailedInBatch(ctx, b.ID); err != nil {
		t.Fatalf("RetryFailedInBatch: %v", err)
	}

	final := waitForTerminal(t, svc, b.ID, 2)
	if final.Members[1].Index != 1 {
		t.Fatalf("expected retried member to stay at index 1, got %d", final.Members[1].Index)
	}
	if !final.Members[1].Retried {
		t.Errorf("expected retried member to be marked Retried")
	}
	if final.Members[1].Status != types.SessionCompleted {
		t.Errorf("expected retried member to complete, got %q", final.Members[1].Status)
	}
}

func TestListBatchesReturnsAll(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateBatch(ctx, tasksWithTitles("a"), 1); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if _, err := svc.CreateBatch(ctx, tasksWithTitles("b"), 1); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	batches := svc.ListBatches()
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
}

func TestGetBatchStatusUnknownID(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.GetBatchStatus("does-not-exist"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func (f *fakeUpstream) State() string { return "closed" }
