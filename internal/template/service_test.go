package template

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
	"github.com/opencode-ai/mcp-gateway/internal/session"
	"github.com/opencode-ai/mcp-gateway/internal/storage"
	"github.com/opencode-ai/mcp-gateway/internal/upstream"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

type fakeUpstream struct{}

var _ upstream.Client = (*fakeUpstream)(nil)

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
	return "", nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	store := storage.New(t.TempDir())
	return NewService(store, session.NewService(store, &fakeUpstream{}))
}

func baseConfig() types.SessionConfig {
	return types.SessionConfig{Prompt: "apply the standard refactor checklist", Source: "sources/github/acme/widget"}
}

func TestCreateAndGet(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	tpl, err := s.Create(ctx, "refactor-checklist", "standard refactor steps", baseConfig())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tpl.UsageCount != 0 {
		t.Errorf("expected fresh template usage count 0, got %d", tpl.UsageCount)
	}

	fetched, err := s.Get(ctx, "refactor-checklist")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.Name != tpl.Name {
		t.Errorf("round-tripped name mismatch")
	}
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "dup", "", baseConfig()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := s.Create(ctx, "dup", "", baseConfig())
	if err == nil {
		t.Fatal("expected duplicate-name error")
	}
	if apperr.KindOf(err) != apperr.Conflict {
		t.Errorf("expected Conflict kind, got %v", apperr.KindOf(err))
	}
}

func TestCreateRejectsOverlongName(t *testing.T) {
	s := newTestService(t)
	longName := strings.Repeat("a", 101)
	if _, err := s.Create(context.Background(), longName, "", baseConfig()); err == nil {
		t.Fatal("expected name-too-long error")
	}
}

func TestCreateRejectsWhenRegistryFull(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for i := 0; i < maxCount; i++ {
		name := "tpl-" + strconv.Itoa(i)
		if _, err := s.Create(ctx, name, "", baseConfig()); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	if _, err := s.Create(ctx, "overflow", "", baseConfig()); err == nil {
		t.Fatal("expected registry-full error")
	}
}

func TestDeleteRemovesTemplate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "temp", "", baseConfig()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete(ctx, "temp"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "temp"); err == nil {
		t.Fatal("expected not-found after delete")
	}
}

func TestCreateFromTemplateMergesOverridesAndIncrementsUsage(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "base", "", baseConfig()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	overridePrompt := "apply it but skip the lint step"
	sess, err := s.CreateFromTemplate(ctx, "base", types.TemplateOverrides{Prompt: &overridePrompt})
	if err != nil {
		t.Fatalf("CreateFromTemplate: %v", err)
	}
	if sess.Config.Prompt != overridePrompt {
		t.Errorf("expected overridden prompt, got %q", sess.Config.Prompt)
	}

	tpl, err := s.Get(ctx, "base")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tpl.UsageCount != 1 {
		t.Errorf("expected usage count 1, got %d", tpl.UsageCount)
	}
}

func TestListSortedByName(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mu"} {
		if _, err := s.Create(ctx, name, "", baseConfig()); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].Name != "alpha" || list[2].Name != "zeta" {
		t.Fatalf("expected sorted names, got %+v", list)
	}
}

func (f *fakeUpstream) State() string { return "closed" }
