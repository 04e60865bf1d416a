package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/opencode-ai/mcp-gateway/internal/tool"
	"github.com/opencode-ai/mcp-gateway/internal/upstream"
	"github.com/opencode-ai/mcp-gateway/internal/validator"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

type stubUpstream struct{}

func (stubUpstream) CreateSession(ctx context.Context, cfg types.SessionConfig) (*upstream.RemoteSession, error) {
	return nil, nil
}
func (stubUpstream) GetSession(ctx context.Context, remoteID string) (*upstream.RemoteSession, error) {
	return nil, nil
}
func (stubUpstream) SendMessage(ctx context.Context, remoteID, message string) error { return nil }
func (stubUpstream) ApprovePlan(ctx context.Context, remoteID string) error          { return nil }
func (stubUpstream) CancelSession(ctx context.Context, remoteID string) error        { return nil }
func (stubUpstream) ResolveDefaultBranch(ctx context.Context, source types.Source) (string, error) {
	return "main", nil
}
func (stubUpstream) FetchDeployLogs(ctx context.Context, deployID string) (string, error) {
	return "", nil
}
func (stubUpstream) State() string { return "closed" }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	reg := tool.NewRegistry()
	reg.Register(types.ToolDescriptor{
		Name:        "ping",
		Description: "test tool",
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		return map[string]string{"pong": "ok"}, nil
	})

	cfg := Config{
		Port:               0,
		CORSAllowOrigins:   []string{"https://example.com"},
		RateLimit:          types.RateLimitConfig{Window: time.Minute, Cap: 2},
		ShutdownTimeout:    time.Second,
		PersistenceProfile: "memory",
	}
	deps := Deps{
		Tools:     reg,
		Validator: validator.New(),
		Upstream:  stubUpstream{},
	}
	return New(cfg, deps)
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestUnknownRouteReturnsEnvelope(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success {
		t.Error("expected success=false")
	}
}

func TestExecuteToolAndAliasShape(t *testing.T) {
	s := newTestServer(t)

	body := []byte(`{"tool":"ping","parameters":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/mcp/execute", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success {
		t.Fatalf("expected success, got %+v", env.Error)
	}

	alias := []byte(`{"name":"ping","arguments":{}}`)
	req = httptest.NewRequest(http.MethodPost, "/mcp/execute", bytes.NewReader(alias))
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for alias shape, got %d: %s", w.Code, w.Body.String())
	}
}

func TestExecuteMissingToolName(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/mcp/execute", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRateLimitOnMCPRoutes(t *testing.T) {
	s := newTestServer(t)

	var lastCode int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/mcp/tools", nil)
		req.RemoteAddr = "203.0.113.9:12345"
		w := httptest.NewRecorder()
		s.Router().ServeHTTP(w, req)
		lastCode = w.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on 3rd request with cap=2, got %d", lastCode)
	}
}
