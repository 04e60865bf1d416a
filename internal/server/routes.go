package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes binds the HTTP surface named in SPEC_FULL.md §6. It is
// unchanged from spec.md §6: no additional REST routes are added for the
// Batch/Queue/Template/TaskQueue/Approval components, which are reachable
// only through POST /mcp/execute's tool catalog.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/v1/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)

	s.router.Group(func(r chi.Router) {
		r.Use(rateLimitMiddleware(s.limiter))
		r.Get("/mcp/tools", s.handleToolsCatalog)
		r.Post("/mcp/execute", s.handleExecute)
	})

	s.router.Get("/api/sessions/active", s.handleSessionsActive)
	s.router.Get("/api/sessions/stats", s.handleSessionsStats)
	s.router.Get("/api/sessions/{id}/timeline", s.handleSessionTimeline)

	s.router.Post("/webhooks/{provider}", s.handleWebhook)

	s.router.Get("/events", s.handleEvents)
}
