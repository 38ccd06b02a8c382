package dispatcher

import (
	"io"
	"log/slog"

	"github.com/dmitrymomot/dispatcher/pkg/broadcast"
)

// Config holds environment-driven dispatcher defaults.
//
// Example:
//
//	var cfg dispatcher.Config
//	config.MustLoad(&cfg)
//	d := dispatcher.New[Visibility](dispatcher.WithConfig(cfg))
type Config struct {
	BufferSize int                    `env:"DISPATCHER_BUFFER_SIZE" envDefault:"100"`
	Replay     broadcast.ReplayPolicy `env:"DISPATCHER_REPLAY" envDefault:"while_connected"`
}

type options struct {
	name        string
	bufferSize  int
	replay      broadcast.ReplayPolicy
	logger      *slog.Logger
	broadcaster any
}

func newOptions(opts []Option) options {
	o := options{
		bufferSize: broadcast.DefaultBufferSize,
		replay:     broadcast.ReplayWhileConnected,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a dispatcher channel.
type Option func(*options)

// WithName sets the channel name used in logs. Defaults to the state type name.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithBufferSize sets the per-subscriber buffer of the default in-memory broadcaster.
func WithBufferSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.bufferSize = size
		}
	}
}

// WithReplay sets the replay policy of the default in-memory broadcaster.
// Defaults to broadcast.ReplayWhileConnected.
func WithReplay(policy broadcast.ReplayPolicy) Option {
	return func(o *options) {
		o.replay = policy
	}
}

// WithConfig applies buffer size and replay policy from cfg.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		if cfg.BufferSize > 0 {
			o.bufferSize = cfg.BufferSize
		}
		o.replay = cfg.Replay
	}
}

// WithLogger configures structured logging for the channel.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBroadcaster replaces the default in-memory broadcaster, e.g. with a
// broadcast.RedisBroadcaster to share the channel across processes.
// Buffer size and replay options are then ignored. The broadcaster is
// closed when the channel terminates.
//
// The state type must match the dispatcher's; New panics otherwise.
func WithBroadcaster[S any](b broadcast.Broadcaster[Event[S]]) Option {
	return func(o *options) {
		if b != nil {
			o.broadcaster = b
		}
	}
}
