package webhook

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/opencode-ai/mcp-gateway/internal/storage"
	"github.com/opencode-ai/mcp-gateway/internal/upstream"
	"github.com/opencode-ai/mcp-gateway/internal/session"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

type fakeUpstream struct {
	logs string
}

func (f *fakeUpstream) CreateSession(ctx context.Context, cfg types.SessionConfig) (*upstream.RemoteSession, error) {
	return &upstream.RemoteSession{RemoteID: "rs-1", Status: string(types.SessionPlanning)}, nil
}
func (f *fakeUpstream) GetSession(ctx context.Context, remoteID string) (*upstream.RemoteSession, error) {
	return &upstream.RemoteSession{RemoteID: remoteID, Status: string(types.SessionPlanning)}, nil
}
func (f *fakeUpstream) SendMessage(ctx context.Context, remoteID, message string) error { return nil }
func (f *fakeUpstream) ApprovePlan(ctx context.Context, remoteID string) error          { return nil }
func (f *fakeUpstream) CancelSession(ctx context.Context, remoteID string) error        { return nil }
func (f *fakeUpstream) ResolveDefaultBranch(ctx context.Context, source types.Source) (string, error) {
	return "main", nil
}
func (f *fakeUpstream) FetchDeployLogs(ctx context.Context, deployID string) (string, error) {
	return f.logs, nil
}

func newTestReceiver(t *testing.T, cfg types.WebhookConfig, logs string) *Receiver {
	t.Helper()
	store := storage.New(t.TempDir())
	up := &fakeUpstream{logs: logs}
	return NewReceiver(cfg, up, session.NewService(store, up), NewDedupStore(cfg.DedupRetention))
}

func marshalEvent(t *testing.T, event DeployEvent) []byte {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestHandleCreatesRemediationSession(t *testing.T) {
	cfg := types.WebhookConfig{AutoFixEnabled: true, MonitoredServices: []string{"svc-1"}}
	logs := "building...\nerror: compile failed in main.go\nexit status 1\n"
	r := newTestReceiver(t, cfg, logs)

	event := DeployEvent{Event: deployFailedEvent, ServiceID: "svc-1", DeployID: "d-1", Branch: "main", Source: "sources/github/acme/widget"}
	sess, err := r.Handle(context.Background(), marshalEvent(t, event))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if sess == nil {
		t.Fatal("expected a remediation session")
	}
}

func TestHandleSkipsUnmonitoredService(t *testing.T) {
	cfg := types.WebhookConfig{AutoFixEnabled: true, MonitoredServices: []string{"svc-1"}}
	r := newTestReceiver(t, cfg, "")

	event := DeployEvent{Event: deployFailedEvent, ServiceID: "svc-other", DeployID: "d-1"}
	sess, err := r.Handle(context.Background(), marshalEvent(t, event))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if sess != nil {
		t.Fatal("expected no session for unmonitored service")
	}
}

func TestHandleDedupsRepeatedDeliveries(t *testing.T) {
	cfg := types.WebhookConfig{AutoFixEnabled: true, MonitoredServices: []string{"svc-1"}}
	r := newTestReceiver(t, cfg, "error: boom\n")
	event := DeployEvent{Event: deployFailedEvent, ServiceID: "svc-1", DeployID: "d-1", Source: "sources/github/acme/widget"}
	body := marshalEvent(t, event)

	first, err := r.Handle(context.Background(), body)
	if err != nil {
		t.Fatalf("first Handle: %v", err)
	}
	if first == nil {
		t.Fatal("expected first delivery to create a session")
	}

	second, err := r.Handle(context.Background(), body)
	if err != nil {
		t.Fatalf("second Handle: %v", err)
	}
	if second != nil {
		t.Fatal("expected duplicate delivery to be deduped")
	}
}

func TestVerifySkippedWithoutSecret(t *testing.T) {
	r := newTestReceiver(t, types.WebhookConfig{}, "")
	if err := r.Verify([]byte("payload"), ""); err != nil {
		t.Fatalf("expected nil error in development mode, got %v", err)
	}
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	r := newTestReceiver(t, types.WebhookConfig{Secret: "s3cr3t"}, "")
	if err := r.Verify([]byte("payload"), "sha256=deadbeef"); err == nil {
		t.Fatal("expected signature mismatch error")
	}
}

func TestSummarizeErrorsCapsLines(t *testing.T) {
	var logs string
	for i := 0; i < 30; i++ {
		logs += "error: failure occurred\n"
	}
	summary := summarizeErrors(logs, maxErrorLines)
	count := 0
	for _, line := range []byte(summary) {
		if line == '\n' {
			count++
		}
	}
	if count != maxErrorLines {
		t.Errorf("expected %d lines, got %d", maxErrorLines, count)
	}
}

func (f *fakeUpstream) State() string { return "closed" }
