package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/opencode-ai/mcp-gateway/internal/logging"
)

type ctxKey int

const requestIDKey ctxKey = iota

// maxBodyBytes is the ≤1 MiB JSON body cap named in SPEC_FULL.md §4.1.
const maxBodyBytes = 1 << 20

// requestIDMiddleware assigns a requestId (from the inbound header, else a
// generated uuid), stores it in the request context, and echoes it on the
// response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// bodyLimitMiddleware caps every request body at maxBodyBytes. Handlers
// that need the raw bytes (the webhook receiver) read r.Body directly,
// still bounded by this limit, so HMAC verification always sees the exact
// bytes that were parsed.
func bodyLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// accessLogMiddleware logs one structured line per request, following the
// teacher's request/response logging shape.
func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.Logger.Info().
			Str("requestId", requestIDFrom(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

// isBodyTooLarge reports whether err originated from the bodyLimitMiddleware's
// http.MaxBytesReader rejecting an oversize body.
func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// recoverMiddleware turns a handler panic into a 500 error envelope instead
// of crashing the process.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.Logger.Error().Interface("panic", rec).Str("requestId", requestIDFrom(r.Context())).Msg("handler panic recovered")
				writeErrorStatus(w, requestIDFrom(r.Context()), http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
