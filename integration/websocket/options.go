package websocket

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	gws "github.com/gorilla/websocket"
)

const (
	defaultWriteTimeout = 10 * time.Second
	defaultCloseGrace   = time.Second
)

type config struct {
	upgrader       *gws.Upgrader
	responseHeader http.Header
	writeTimeout   time.Duration
	closeGrace     time.Duration
	logger         *slog.Logger
}

func newConfig(opts []Option) *config {
	cfg := &config{
		upgrader: &gws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		writeTimeout: defaultWriteTimeout,
		closeGrace:   defaultCloseGrace,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option configures Stream and Bridge handlers.
type Option func(*config)

// WithReadBuffer sets the connection read buffer size in bytes. Defaults to 1024.
func WithReadBuffer(size int) Option {
	return func(c *config) {
		c.upgrader.ReadBufferSize = size
	}
}

// WithWriteBuffer sets the connection write buffer size in bytes. Defaults to 1024.
func WithWriteBuffer(size int) Option {
	return func(c *config) {
		c.upgrader.WriteBufferSize = size
	}
}

// WithHandshakeTimeout bounds the upgrade handshake. Zero means no limit.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.upgrader.HandshakeTimeout = timeout
	}
}

// WithOriginCheck sets the function that accepts or rejects the request Origin.
// Without it only same-host origins are accepted.
func WithOriginCheck(fn func(r *http.Request) bool) Option {
	return func(c *config) {
		c.upgrader.CheckOrigin = fn
	}
}

// WithAllowAnyOrigin accepts upgrade requests from any origin.
func WithAllowAnyOrigin() Option {
	return func(c *config) {
		c.upgrader.CheckOrigin = func(*http.Request) bool {
			return true
		}
	}
}

// WithUpgradeHeaders adds headers to the upgrade response.
func WithUpgradeHeaders(header http.Header) Option {
	return func(c *config) {
		c.responseHeader = header
	}
}

// WithWriteTimeout bounds each frame write. Defaults to 10s.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(c *config) {
		if timeout > 0 {
			c.writeTimeout = timeout
		}
	}
}

// WithCloseGrace sets how long the server waits for the client to answer a
// close frame before dropping the connection. Defaults to 1s.
func WithCloseGrace(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.closeGrace = d
		}
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
