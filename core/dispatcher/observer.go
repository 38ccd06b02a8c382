package dispatcher

import "context"

// Observer is the write side of a channel: it accepts events.
// Subscribers implement the same interface to receive events.
type Observer[S any] interface {
	On(ctx context.Context, evt Event[S]) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc[S any] func(ctx context.Context, evt Event[S]) error

// On calls f(ctx, evt).
func (f ObserverFunc[S]) On(ctx context.Context, evt Event[S]) error {
	return f(ctx, evt)
}

// OnNext adapts a value handler to Observer. Terminal events are ignored.
func OnNext[S any](fn func(ctx context.Context, v S) error) Observer[S] {
	return ObserverFunc[S](func(ctx context.Context, evt Event[S]) error {
		if evt.Kind != KindNext {
			return nil
		}
		return fn(ctx, evt.Value)
	})
}

// ObserverDispatcher is a type-erased write endpoint of a Dispatchable.
// It only forwards events; all delivery is done by the underlying channel.
type ObserverDispatcher[S any] struct {
	state Observer[S]
}

var _ Observer[any] = (*ObserverDispatcher[any])(nil)

// NewObserverDispatcher captures the write endpoint of d.
// Panics if d is nil.
//
// Example:
//
//	visibility := dispatcher.NewObserverDispatcher[Visibility](visibilityDispatcher)
//	err := visibility.Dispatch(ctx, Visibility{Hidden: true})
func NewObserverDispatcher[S any](d Dispatchable[S]) *ObserverDispatcher[S] {
	if d == nil {
		panic("dispatcher: nil Dispatchable")
	}
	return &ObserverDispatcher[S]{state: d.Observer()}
}

// On forwards evt to the channel.
func (o *ObserverDispatcher[S]) On(ctx context.Context, evt Event[S]) error {
	return o.state.On(ctx, evt)
}

// Dispatch publishes v as a next event.
func (o *ObserverDispatcher[S]) Dispatch(ctx context.Context, v S) error {
	return o.On(ctx, Next(v))
}
