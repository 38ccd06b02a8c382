package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/dispatcher/core/logger"
)

// MemoryBroadcaster is an in-process Broadcaster.
// Delivery never blocks: a subscriber with a full buffer loses its oldest
// queued message, so the latest message always reaches it.
type MemoryBroadcaster[T any] struct {
	mu        sync.RWMutex
	subs      map[string]*subscriber[T]
	latest    Message[T]
	hasLatest bool
	closed    bool

	bufferSize int
	replay     ReplayPolicy
	logger     *slog.Logger

	published atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
}

var _ Broadcaster[any] = (*MemoryBroadcaster[any])(nil)

// NewMemoryBroadcaster creates an in-memory broadcaster with the given
// per-subscriber buffer size.
//
// Example:
//
//	b := broadcast.NewMemoryBroadcaster[string](100,
//	    broadcast.WithReplay(broadcast.ReplayWhileConnected),
//	)
//	defer b.Close()
func NewMemoryBroadcaster[T any](bufferSize int, opts ...Option) *MemoryBroadcaster[T] {
	o := newOptions(append([]Option{WithBufferSize(bufferSize)}, opts...))
	return &MemoryBroadcaster[T]{
		subs:       make(map[string]*subscriber[T]),
		bufferSize: o.bufferSize,
		replay:     o.replay,
		logger:     o.logger,
	}
}

// Broadcast delivers msg to all current subscribers without blocking.
func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBroadcasterClosed
	}

	switch {
	case msg.Transient:
	case b.replay == ReplayAlways:
		b.latest, b.hasLatest = msg, true
	case b.replay == ReplayWhileConnected:
		if len(b.subs) > 0 {
			b.latest, b.hasLatest = msg, true
		}
	}

	b.published.Add(1)
	for _, s := range b.subs {
		b.delivered.Add(1)
		if n := s.offer(msg); n > 0 {
			b.dropped.Add(int64(n))
			b.logger.WarnContext(ctx, "subscriber buffer full, oldest message dropped",
				logger.SubscriptionID(s.id))
		}
	}

	return nil
}

// Subscribe registers a subscriber. If the replay policy has a cached
// message, it is the first message the subscriber receives.
// Subscribing to a closed broadcaster returns an already closed subscriber.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	s := newSubscriber(b.bufferSize, b.detach)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = s.Close()
		return s
	}
	if b.replay != ReplayNone && b.hasLatest {
		s.offer(b.latest)
	}
	b.subs[s.id] = s
	count := len(b.subs)
	b.mu.Unlock()

	s.watch(ctx)

	b.logger.DebugContext(ctx, "subscriber added",
		logger.SubscriptionID(s.id),
		logger.Subscribers(count))

	return s
}

func (b *MemoryBroadcaster[T]) detach(s *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs, s.id)
	close(s.ch)

	if len(b.subs) == 0 && b.replay == ReplayWhileConnected {
		var zero Message[T]
		b.latest, b.hasLatest = zero, false
	}
}

// Close closes all subscribers. Subsequent broadcasts return ErrBroadcasterClosed.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBroadcasterClosed
	}
	b.closed = true
	subs := make([]*subscriber[T], 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}

	b.logger.Debug("memory broadcaster closed", logger.Subscribers(len(subs)))
	return nil
}

// Stats returns a snapshot of broadcaster counters.
func (b *MemoryBroadcaster[T]) Stats() Stats {
	b.mu.RLock()
	count := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		Subscribers: count,
		Published:   b.published.Load(),
		Delivered:   b.delivered.Load(),
		Dropped:     b.dropped.Load(),
	}
}
