package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dmitrymomot/dispatcher/core/logger"
	"github.com/dmitrymomot/dispatcher/pkg/broadcast"
)

// channel is one broadcast primitive with its terminal state.
// Non-terminal writes share the read lock; terminal writes and the terminal
// check in Subscribe exclude each other, so a subscriber either joins before
// termination and receives the terminal event, or observes it immediately.
type channel[S any] struct {
	name   string
	bus    broadcast.Broadcaster[Event[S]]
	logger *slog.Logger

	mu       sync.RWMutex
	terminal *Event[S]
}

func newChannel[S any](o options) *channel[S] {
	name := o.name
	if name == "" {
		name = reflect.TypeFor[S]().String()
	}

	var bus broadcast.Broadcaster[Event[S]]
	if o.broadcaster != nil {
		b, ok := o.broadcaster.(broadcast.Broadcaster[Event[S]])
		if !ok {
			panic(fmt.Sprintf("dispatcher: %s: %s", ErrBroadcasterMismatch, name))
		}
		bus = b
	} else {
		bus = broadcast.NewMemoryBroadcaster[Event[S]](o.bufferSize,
			broadcast.WithReplay(o.replay),
			broadcast.WithLogger(o.logger),
		)
	}

	return &channel[S]{
		name:   name,
		bus:    bus,
		logger: o.logger,
	}
}

func (c *channel[S]) On(ctx context.Context, evt Event[S]) error {
	// Terminal events end this channel only; they must never be replayed
	// to channels opened later on a shared backend.
	msg := broadcast.Message[Event[S]]{Data: evt, Transient: evt.IsTerminal()}

	if !evt.IsTerminal() {
		c.mu.RLock()
		defer c.mu.RUnlock()

		if c.terminal != nil {
			return ErrDispatcherClosed
		}
		if err := c.bus.Broadcast(ctx, msg); err != nil {
			if errors.Is(err, broadcast.ErrBroadcasterClosed) {
				return ErrDispatcherClosed
			}
			return fmt.Errorf("dispatch %s: %w", c.name, err)
		}
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminal != nil {
		return ErrDispatcherClosed
	}
	c.terminal = &evt

	var errs []error
	if err := c.bus.Broadcast(ctx, msg); err != nil {
		errs = append(errs, fmt.Errorf("dispatch %s: %w", c.name, err))
	}
	if err := c.bus.Close(); err != nil && !errors.Is(err, broadcast.ErrBroadcasterClosed) {
		errs = append(errs, err)
	}

	c.logger.DebugContext(ctx, "dispatcher channel terminated",
		logger.Channel(c.name),
		logger.EventKind(evt.Kind.String()),
		logger.Error(evt.Err))

	return errors.Join(errs...)
}

func (c *channel[S]) Close() error {
	return c.On(context.Background(), Complete[S]())
}

func (c *channel[S]) Subscribe(ctx context.Context, obs Observer[S]) (Subscription, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	if t := c.terminal; t != nil {
		c.mu.RUnlock()
		s := &subscription{id: uuid.New().String(), done: make(chan struct{})}
		c.deliver(ctx, s.id, obs, *t)
		close(s.done)
		return s, nil
	}
	sub := c.bus.Subscribe(ctx)
	c.mu.RUnlock()

	s := &subscription{
		id:     sub.ID(),
		cancel: sub.Close,
		done:   make(chan struct{}),
	}
	go c.pump(ctx, s, sub, obs)

	c.logger.DebugContext(ctx, "subscribed",
		logger.Channel(c.name),
		logger.SubscriptionID(s.id))

	return s, nil
}

func (c *channel[S]) pump(ctx context.Context, s *subscription, sub broadcast.Subscriber[Event[S]], obs Observer[S]) {
	defer close(s.done)
	defer func() { _ = sub.Close() }()

	for msg := range sub.Receive(ctx) {
		// Queued messages are discarded once the subscription is cancelled.
		if s.cancelled.Load() || ctx.Err() != nil {
			return
		}
		c.deliver(ctx, s.id, obs, msg.Data)
		if msg.Data.IsTerminal() {
			return
		}
	}

	// The bus closed without handing us the terminal event (for example
	// because the buffer was full); deliver it unless we were cancelled.
	if s.cancelled.Load() || ctx.Err() != nil {
		return
	}
	c.mu.RLock()
	t := c.terminal
	c.mu.RUnlock()
	if t != nil {
		c.deliver(ctx, s.id, obs, *t)
	}
}

func (c *channel[S]) deliver(ctx context.Context, id string, obs Observer[S], evt Event[S]) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.ErrorContext(ctx, "observer panicked",
				logger.Channel(c.name),
				logger.SubscriptionID(id),
				logger.Panic(r))
		}
	}()

	if err := obs.On(ctx, evt); err != nil {
		c.logger.WarnContext(ctx, "observer failed",
			logger.Channel(c.name),
			logger.SubscriptionID(id),
			logger.EventKind(evt.Kind.String()),
			logger.Error(err))
	}
}

func (c *channel[S]) stats() broadcast.Stats {
	if s, ok := c.bus.(interface{ Stats() broadcast.Stats }); ok {
		return s.Stats()
	}
	return broadcast.Stats{}
}

type subscription struct {
	id        string
	cancel    func() error
	cancelled atomic.Bool
	done      chan struct{}
}

func (s *subscription) ID() string { return s.id }

func (s *subscription) Unsubscribe() error {
	if !s.cancelled.CompareAndSwap(false, true) || s.cancel == nil {
		return nil
	}
	if err := s.cancel(); err != nil && !errors.Is(err, broadcast.ErrSubscriberClosed) {
		return err
	}
	return nil
}

func (s *subscription) Done() <-chan struct{} { return s.done }

// writeView and readView expose a single half of a channel.
type writeView[S any] struct{ c *channel[S] }

func (w writeView[S]) On(ctx context.Context, evt Event[S]) error { return w.c.On(ctx, evt) }

type readView[S any] struct{ c *channel[S] }

func (r readView[S]) Subscribe(ctx context.Context, obs Observer[S]) (Subscription, error) {
	return r.c.Subscribe(ctx, obs)
}

var _ io.Closer = (*channel[any])(nil)
