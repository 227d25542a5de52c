package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	slogcontext "github.com/veqryn/slog-context"
)

// RequestIDHeader carries the request id back to the caller.
const RequestIDHeader = "X-Request-Id"

// Logger returns middleware that logs each request once it completes.
// Handlers reach a logger carrying the request id through slog-context.
// Server errors are logged at warn level.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := uuid.NewString()
			reqLogger := logger.With("request", id)
			w.Header().Set(RequestIDHeader, id)

			rec := record(w)
			next.ServeHTTP(rec, r.WithContext(slogcontext.NewCtx(r.Context(), reqLogger)))

			level := slog.LevelInfo
			if rec.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			reqLogger.Log(r.Context(), level,
				"request",
				"method", r.Method,
				"uri", r.URL.RequestURI(),
				"addr", r.RemoteAddr,
				"status", rec.Status(),
				"bytes", rec.bytes,
				"duration", time.Since(start),
			)
		})
	}
}
