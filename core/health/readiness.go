package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/dispatcher/core/logger"
)

// Readiness verifies all service dependencies are functioning.
// Returns "READY" if all checks pass, 503 Service Unavailable if any fail.
//
// Example:
//
//	ready := health.Readiness(logger, redis.Healthcheck(client))
func Readiness(log *slog.Logger, fn ...func(context.Context) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		for _, f := range fn {
			if err := f(ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed", logger.Error(err))
				writeText(w, http.StatusServiceUnavailable, "NOT READY")
				return
			}
		}
		writeText(w, http.StatusOK, "READY")
	})
}
