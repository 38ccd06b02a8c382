// Package health provides HTTP handlers for service health monitoring.
//
// Handlers:
//   - Liveness: Process is running (no dependency checks)
//   - Readiness: All dependencies are available
//   - NoContent: Returns 204 for minimal overhead
//
// Usage:
//
//	r := mux.NewRouter()
//	r.Handle("/health/live", health.Liveness()).Methods(http.MethodGet)
//	r.Handle("/health/ready", health.Readiness(logger,
//		redis.Healthcheck(client),
//	)).Methods(http.MethodGet)
//	r.Handle("/ping", health.NoContent()).Methods(http.MethodGet)
//
// Dependency checks must follow func(context.Context) error signature:
//
//	func checkRedis(ctx context.Context) error {
//		return client.Ping(ctx).Err()
//	}
package health
