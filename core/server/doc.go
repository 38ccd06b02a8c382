// Package server runs an http.Handler with graceful shutdown and
// production-ready timeouts.
//
// # Basic Usage
//
//	srv := server.New(":8080",
//		server.WithShutdownTimeout(10*time.Second),
//		server.WithLogger(log),
//	)
//	if err := srv.Start(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
//		log.Fatal(err)
//	}
//
// Start blocks until ctx is cancelled or the listener fails. Stop shuts the
// server down, waiting up to the shutdown timeout for in-flight requests.
//
// # Coordinated Lifecycle
//
// Run returns a func() error suitable for errgroup. It starts the server and
// stops it gracefully when the group context is cancelled:
//
//	eg, ctx := errgroup.WithContext(ctx)
//	eg.Go(srv.Run(ctx, router))
//	if err := eg.Wait(); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// # Configuration
//
// Config maps SERVER_* environment variables and is loaded with core/config:
//
//	var cfg server.Config
//	config.MustLoad(&cfg)
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//
// Long-lived connections such as WebSocket streams are hijacked from the
// http.Server and are not bound by the read and write timeouts; they end
// when the context passed to Start is cancelled.
package server
