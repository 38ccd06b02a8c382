package broadcast

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// subscriber is the channel-backed Subscriber shared by all backends.
// The owning backend sends on ch only while holding its own lock and only
// before detach has been called.
type subscriber[T any] struct {
	id     string
	ch     chan Message[T]
	done   chan struct{}
	once   sync.Once
	detach func(*subscriber[T])
}

func newSubscriber[T any](bufferSize int, detach func(*subscriber[T])) *subscriber[T] {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &subscriber[T]{
		id:     uuid.New().String(),
		ch:     make(chan Message[T], bufferSize),
		done:   make(chan struct{}),
		detach: detach,
	}
}

func (s *subscriber[T]) ID() string {
	return s.id
}

func (s *subscriber[T]) Receive(ctx context.Context) <-chan Message[T] {
	s.watch(ctx)
	return s.ch
}

func (s *subscriber[T]) Close() error {
	closed := false
	s.once.Do(func() {
		closed = true
		if s.detach != nil {
			s.detach(s)
		}
		close(s.done)
	})
	if !closed {
		return ErrSubscriberClosed
	}
	return nil
}

// offer enqueues msg without blocking. When the buffer is full the oldest
// queued message is evicted, so the newest message is always queued.
// Returns the number of evicted messages. Callers must hold the backend lock
// that guards closing ch.
func (s *subscriber[T]) offer(msg Message[T]) (evicted int) {
	for {
		select {
		case s.ch <- msg:
			return evicted
		default:
		}
		select {
		case <-s.ch:
			evicted++
		default:
		}
	}
}

// watch closes the subscriber when ctx is cancelled.
func (s *subscriber[T]) watch(ctx context.Context) {
	if ctx.Done() == nil {
		return
	}
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()
}
