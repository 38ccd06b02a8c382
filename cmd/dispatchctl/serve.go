package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/dispatcher/core/config"
	"github.com/dmitrymomot/dispatcher/core/health"
	"github.com/dmitrymomot/dispatcher/core/logger"
	"github.com/dmitrymomot/dispatcher/core/server"
	"github.com/dmitrymomot/dispatcher/integration/database/redis"
	"github.com/dmitrymomot/dispatcher/integration/websocket"
)

type serveFlags struct {
	addr           string
	readOnly       bool
	allowAnyOrigin bool
}

func newServeCommand(a *app) *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose channels to WebSocket clients",
		Long: `Serve exposes every channel at /channels/{name} as a WebSocket stream of
JSON events. Unless --read-only is set, values sent by clients are published
to the channel. Health probes are served at /health/live and /health/ready.`,
		Example: `  dispatchctl serve --addr :8080
  websocat ws://localhost:8080/channels/visibility`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg server.Config
			if err := config.Load(&cfg); err != nil {
				return fmt.Errorf("loading server configuration: %w", err)
			}
			if flags.addr != "" {
				cfg.Addr = flags.addr
			}

			conn, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			srv, err := server.NewFromConfig(cfg, server.WithLogger(a.log.With(logger.Component("server"))))
			if err != nil {
				return err
			}

			eg, ctx := errgroup.WithContext(cmd.Context())
			eg.Go(srv.Run(ctx, newRouter(a, conn, flags)))
			return eg.Wait()
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (overrides SERVER_ADDR)")
	cmd.Flags().BoolVar(&flags.readOnly, "read-only", false, "do not publish values sent by clients")
	cmd.Flags().BoolVar(&flags.allowAnyOrigin, "allow-any-origin", false, "accept WebSocket connections from any origin")
	return cmd
}

func newRouter(a *app, conn *redisConn, flags serveFlags) http.Handler {
	h := &channelHub{
		conn:     conn,
		flags:    flags,
		handlers: make(map[string]http.Handler),
	}
	h.opts = append(h.opts, websocket.WithLogger(a.log))
	if flags.allowAnyOrigin {
		h.opts = append(h.opts, websocket.WithAllowAnyOrigin())
	}

	r := mux.NewRouter()
	r.Handle("/health/live", health.Liveness()).Methods(http.MethodGet)
	r.Handle("/health/ready", health.Readiness(a.log, redis.Healthcheck(conn.client))).Methods(http.MethodGet)
	r.HandleFunc("/channels/{name}", h.serveChannel).Methods(http.MethodGet)
	return r
}

// channelHub opens one dispatcher per channel name on first use.
type channelHub struct {
	mu       sync.Mutex
	conn     *redisConn
	flags    serveFlags
	opts     []websocket.Option
	handlers map[string]http.Handler
}

func (h *channelHub) serveChannel(w http.ResponseWriter, r *http.Request) {
	h.handler(mux.Vars(r)["name"]).ServeHTTP(w, r)
}

func (h *channelHub) handler(name string) http.Handler {
	h.mu.Lock()
	defer h.mu.Unlock()

	if hd, ok := h.handlers[name]; ok {
		return hd
	}

	d := h.conn.channel(name)
	var hd http.Handler
	if h.flags.readOnly {
		hd = websocket.Stream(d.Observable(), h.opts...)
	} else {
		hd = websocket.Bridge[json.RawMessage](d, h.opts...)
	}
	h.handlers[name] = hd
	return hd
}
