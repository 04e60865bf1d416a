package server

import (
	"encoding/json"
	"net/http"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
	"github.com/opencode-ai/mcp-gateway/internal/logging"
)

// envelope is the execute/error response shape named in SPEC_FULL.md §6.
type envelope struct {
	Success bool        `json:"success"`
	Result  any         `json:"result,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
}

type errorBody struct {
	Message    string         `json:"message"`
	RequestID  string         `json:"requestId"`
	StatusCode int            `json:"statusCode"`
	Issues     []apperr.Issue `json:"issues,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Logger.Error().Err(err).Msg("write response")
	}
}

// writeResult writes a success envelope carrying result.
func writeResult(w http.ResponseWriter, status int, result any) {
	writeJSON(w, status, envelope{Success: true, Result: result})
}

// writeError maps err onto the error envelope via the apperr taxonomy. A
// bare, untagged error renders as Internal with its message redacted.
func writeError(w http.ResponseWriter, requestID string, err error) {
	kind := apperr.KindOf(err)
	status := kind.StatusCode()

	message := err.Error()
	var issues []apperr.Issue
	if e, ok := apperr.As(err); ok {
		issues = e.Issues
	} else {
		logging.Logger.Error().Err(err).Str("requestId", requestID).Msg("unhandled internal error")
		message = "internal error"
	}

	writeJSON(w, status, envelope{
		Success: false,
		Error: &errorBody{
			Message:    message,
			RequestID:  requestID,
			StatusCode: status,
			Issues:     issues,
		},
	})
}

// writeErrorStatus renders a plain error envelope at a fixed status, for
// failures detected before a taxonomy-tagged error exists (oversize body,
// rate limit, 404).
func writeErrorStatus(w http.ResponseWriter, requestID string, status int, message string) {
	writeJSON(w, status, envelope{
		Success: false,
		Error: &errorBody{
			Message:    message,
			RequestID:  requestID,
			StatusCode: status,
		},
	})
}
