package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
	"github.com/opencode-ai/mcp-gateway/internal/validator"
	"github.com/opencode-ai/mcp-gateway/internal/webhook"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, map[string]any{
		"name":    "mcp-gateway",
		"version": Version,
		"uptime":  time.Since(s.startedAt).String(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"upstreamBreaker":    s.upstream.State(),
		"persistenceProfile": s.cfg.PersistenceProfile,
		"uptime":             time.Since(s.startedAt).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, map[string]any{"ready": true})
}

func (s *Server) handleToolsCatalog(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, s.tools.Catalog())
}

// executeRequest accepts both the canonical {tool,parameters} shape and the
// legacy {name,arguments} alias named in SPEC_FULL.md §6.
type executeRequest struct {
	Tool       string          `json:"tool"`
	Parameters json.RawMessage `json:"parameters"`
	Name       string          `json:"name"`
	Arguments  json.RawMessage `json:"arguments"`
}

func (er executeRequest) normalize() (string, json.RawMessage) {
	if er.Tool != "" {
		return er.Tool, er.Parameters
	}
	return er.Name, er.Arguments
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if isBodyTooLarge(err) {
			writeErrorStatus(w, requestID, http.StatusRequestEntityTooLarge, "request body exceeds the 1 MiB limit")
			return
		}
		writeError(w, requestID, apperr.NewValidation("malformed request body", apperr.Issue{Field: "body", Message: err.Error()}))
		return
	}

	toolName, params := req.normalize()
	if toolName == "" {
		writeError(w, requestID, apperr.NewValidation("tool name is required", apperr.Issue{Field: "tool", Message: "must not be empty"}))
		return
	}
	if err := validator.ValidateName(toolName); err != nil {
		writeError(w, requestID, err)
		return
	}

	if err := s.validate.Validate(toolName, params); err != nil {
		writeError(w, requestID, err)
		return
	}

	result, err := s.tools.Execute(r.Context(), toolName, params)
	if err != nil {
		writeError(w, requestID, err)
		return
	}

	writeResult(w, http.StatusOK, result)
}

func (s *Server) handleSessionsActive(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())
	snapshot, err := s.sessions.MonitorAll(r.Context())
	if err != nil {
		writeError(w, requestID, err)
		return
	}
	writeResult(w, http.StatusOK, snapshot)
}

func (s *Server) handleSessionsStats(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())
	snapshot, err := s.sessions.MonitorAll(r.Context())
	if err != nil {
		writeError(w, requestID, err)
		return
	}
	writeResult(w, http.StatusOK, snapshot.Counts)
}

func (s *Server) handleSessionTimeline(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())
	id := chi.URLParam(r, "id")

	timeline, err := s.sessions.Timeline(r.Context(), id)
	if err != nil {
		writeError(w, requestID, err)
		return
	}
	writeResult(w, http.StatusOK, timeline)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())
	provider := chi.URLParam(r, "provider")
	_ = provider // the receiver's remediation rules are provider-agnostic today

	body, err := io.ReadAll(r.Body)
	if err != nil {
		if isBodyTooLarge(err) {
			writeErrorStatus(w, requestID, http.StatusRequestEntityTooLarge, "request body exceeds the 1 MiB limit")
			return
		}
		writeError(w, requestID, apperr.NewValidation("failed to read request body", apperr.Issue{Field: "body", Message: err.Error()}))
		return
	}

	signature := r.Header.Get(webhook.SignatureHeader)
	if err := s.webhooks.Verify(body, signature); err != nil {
		writeError(w, requestID, apperr.New(apperr.Unauthorized, "signature verification failed: %v", err))
		return
	}

	session, err := s.webhooks.Handle(r.Context(), body)
	if err != nil {
		writeError(w, requestID, err)
		return
	}

	writeResult(w, http.StatusOK, session)
}
