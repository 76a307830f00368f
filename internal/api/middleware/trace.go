package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/notifyd/internal/api/shared"
	"github.com/phrazzld/notifyd/internal/platform/logger"
)

// TraceMiddleware assigns a trace ID to the request and stores a logger
// tagged with it in the request context. Apply it before any middleware
// that logs or writes error responses.
func TraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			log := base.With(slog.String("trace_id", shared.GetTraceID(ctx)))

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx, log)))
		})
	}
}
