package broadcast

import (
	"io"
	"log/slog"
	"time"
)

// DefaultBufferSize is the default per-subscriber message buffer.
const DefaultBufferSize = 100

type options struct {
	bufferSize int
	replay     ReplayPolicy
	logger     *slog.Logger
	keyPrefix  string
	ttl        time.Duration
}

func newOptions(opts []Option) options {
	o := options{
		bufferSize: DefaultBufferSize,
		replay:     ReplayNone,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		keyPrefix:  "broadcast",
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a broadcaster.
type Option func(*options)

// WithBufferSize sets the per-subscriber buffer size. Values below 1 are ignored.
// When a subscriber's buffer is full, new messages are dropped for that subscriber.
func WithBufferSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.bufferSize = size
		}
	}
}

// WithReplay sets the replay policy for late subscribers.
func WithReplay(policy ReplayPolicy) Option {
	return func(o *options) {
		o.replay = policy
	}
}

// WithLogger configures structured logging.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithKeyPrefix sets the Redis key prefix used for channels and replay keys.
// Ignored by the in-memory backend.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.keyPrefix = prefix
		}
	}
}

// WithReplayTTL expires the stored latest message after d.
// Ignored by the in-memory backend.
func WithReplayTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.ttl = d
		}
	}
}
