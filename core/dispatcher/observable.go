package dispatcher

import "context"

// Observable is the read side of a channel.
type Observable[S any] interface {
	// Subscribe delivers events to obs until ctx is cancelled, the
	// subscription is cancelled, or the channel terminates.
	Subscribe(ctx context.Context, obs Observer[S]) (Subscription, error)
}

// Subscription is a handle to an active subscription.
type Subscription interface {
	// ID returns the subscription identifier.
	ID() string

	// Unsubscribe stops delivery: once it returns, no further event reaches
	// the observer beyond one already being handled. Safe to call multiple times.
	Unsubscribe() error

	// Done is closed once no further events will be delivered.
	Done() <-chan struct{}
}

// ObservableDispatcher is a type-erased read endpoint of a Dispatchable.
type ObservableDispatcher[S any] struct {
	state Observable[S]
}

var _ Observable[any] = (*ObservableDispatcher[any])(nil)

// NewObservableDispatcher captures the read endpoint of d.
// Panics if d is nil.
//
// Example:
//
//	visibility := dispatcher.NewObservableDispatcher[Visibility](visibilityDispatcher)
//	sub, err := visibility.SubscribeFunc(ctx, func(ctx context.Context, v Visibility) error {
//	    view.SetHidden(v.Hidden)
//	    return nil
//	})
//	defer sub.Unsubscribe()
func NewObservableDispatcher[S any](d Dispatchable[S]) *ObservableDispatcher[S] {
	if d == nil {
		panic("dispatcher: nil Dispatchable")
	}
	return &ObservableDispatcher[S]{state: d.Observable()}
}

// Subscribe forwards the subscription request to the channel.
func (o *ObservableDispatcher[S]) Subscribe(ctx context.Context, obs Observer[S]) (Subscription, error) {
	return o.state.Subscribe(ctx, obs)
}

// SubscribeFunc subscribes a value handler. Terminal events only end the subscription.
func (o *ObservableDispatcher[S]) SubscribeFunc(ctx context.Context, fn func(ctx context.Context, v S) error) (Subscription, error) {
	return o.Subscribe(ctx, OnNext(fn))
}
