package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"message": "hello"}

	writeJSON(w, http.StatusOK, data)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result["message"] != "hello" {
		t.Errorf("expected message 'hello', got %q", result["message"])
	}
}

func TestWriteResult(t *testing.T) {
	w := httptest.NewRecorder()

	writeResult(w, http.StatusOK, map[string]int{"count": 3})

	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !env.Success {
		t.Error("expected success=true")
	}
	if env.Error != nil {
		t.Errorf("expected no error, got %+v", env.Error)
	}
}

func TestWriteErrorValidation(t *testing.T) {
	w := httptest.NewRecorder()
	err := apperr.NewValidation("bad input", apperr.Issue{Field: "prompt", Message: "required"})

	writeError(w, "req-1", err)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	var env envelope
	if decErr := json.NewDecoder(w.Body).Decode(&env); decErr != nil {
		t.Fatalf("decode response: %v", decErr)
	}
	if env.Success {
		t.Error("expected success=false")
	}
	if env.Error.RequestID != "req-1" {
		t.Errorf("expected requestId echoed, got %q", env.Error.RequestID)
	}
	if len(env.Error.Issues) != 1 || env.Error.Issues[0].Field != "prompt" {
		t.Errorf("expected issue for field prompt, got %+v", env.Error.Issues)
	}
}

func TestWriteErrorUntaggedRedactsMessage(t *testing.T) {
	w := httptest.NewRecorder()

	writeError(w, "req-2", errPlain("db connection refused: secret-dsn"))

	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if env.Error.Message != "internal error" {
		t.Errorf("expected redacted message, got %q", env.Error.Message)
	}
	if env.Error.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", env.Error.StatusCode)
	}
}

func TestWriteErrorStatus(t *testing.T) {
	w := httptest.NewRecorder()

	writeErrorStatus(w, "req-3", http.StatusNotFound, "route not found")

	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if env.Error.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", env.Error.StatusCode)
	}
	if env.Error.Message != "route not found" {
		t.Errorf("unexpected message %q", env.Error.Message)
	}
}

type errPlain string

func (e errPlain) Error() string { return string(e) }
