// Package server provides the HTTP Gateway for mcp-gateway.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/opencode-ai/mcp-gateway/internal/approval"
	"github.com/opencode-ai/mcp-gateway/internal/batch"
	"github.com/opencode-ai/mcp-gateway/internal/queue"
	"github.com/opencode-ai/mcp-gateway/internal/session"
	"github.com/opencode-ai/mcp-gateway/internal/taskqueue"
	"github.com/opencode-ai/mcp-gateway/internal/template"
	"github.com/opencode-ai/mcp-gateway/internal/tool"
	"github.com/opencode-ai/mcp-gateway/internal/upstream"
	"github.com/opencode-ai/mcp-gateway/internal/validator"
	"github.com/opencode-ai/mcp-gateway/internal/webhook"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// Version is the gateway's reported build version.
const Version = "0.1.0"

// Config is the Gateway's own wiring configuration, distinct from
// types.Config (the persisted/environment settings it is built from).
type Config struct {
	Port                int
	CORSAllowOrigins    []string
	RateLimit           types.RateLimitConfig
	ShutdownTimeout     time.Duration
	PersistenceProfile  string // "file", "memory" or "sql", reported by /health
}

// Deps collects the Server's collaborators, each constructed once at
// startup and injected here (SPEC_FULL.md §9's "explicit collaborators"
// re-architecture away from ad-hoc global singletons).
type Deps struct {
	Sessions  *session.Service
	Batches   *batch.Service
	Queue     *queue.Service
	Templates *template.Service
	Tasks     *taskqueue.Service
	Approvals *approval.Checker
	Tools     *tool.Registry
	Validator *validator.Validator
	Webhooks  *webhook.Receiver
	Upstream  upstream.Client
}

// Server wires every SPEC_FULL.md component onto the HTTP surface named in
// §4.1 and §6.
type Server struct {
	cfg     Config
	router  *chi.Mux
	httpSrv *http.Server

	sessions  *session.Service
	batches   *batch.Service
	queue     *queue.Service
	templates *template.Service
	tasks     *taskqueue.Service
	approvals *approval.Checker

	tools    *tool.Registry
	validate *validator.Validator
	webhooks *webhook.Receiver
	upstream upstream.Client

	limiter   *slidingLimiter
	startedAt time.Time
}

// New builds a Server and wires its routes.
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		cfg:       cfg,
		router:    chi.NewRouter(),
		sessions:  deps.Sessions,
		batches:   deps.Batches,
		queue:     deps.Queue,
		templates: deps.Templates,
		tasks:     deps.Tasks,
		approvals: deps.Approvals,
		tools:     deps.Tools,
		validate:  deps.Validator,
		webhooks:  deps.Webhooks,
		upstream:  deps.Upstream,
		limiter:   newSlidingLimiter(cfg.RateLimit),
		startedAt: time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // unbounded: the live subscription endpoint streams indefinitely
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(requestIDMiddleware)
	s.router.Use(accessLogMiddleware)
	s.router.Use(recoverMiddleware)
	s.router.Use(bodyLimitMiddleware)

	// Exact-match CORS whitelist only; an empty allow-list accepts no
	// cross-origin requests rather than falling back to a wildcard.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSAllowOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-Id", webhook.SignatureHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorStatus(w, requestIDFrom(r.Context()), http.StatusNotFound, "route not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorStatus(w, requestIDFrom(r.Context()), http.StatusNotFound, "route not found")
	})
}

// Router exposes the underlying handler, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// Start runs the HTTP server until it is shut down or fails.
func (s *Server) Start() error {
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests up to the configured deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}
