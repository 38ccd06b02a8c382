package dispatcher

import (
	"io"

	"github.com/dmitrymomot/dispatcher/pkg/broadcast"
)

// Dispatchable is implemented by any type that owns a broadcast channel for
// a state type S. Embedding *Dispatcher[S] satisfies it.
type Dispatchable[S any] interface {
	// Observer returns the write endpoint of the channel.
	Observer() Observer[S]

	// Observable returns the read endpoint of the channel.
	Observable() Observable[S]
}

// Properties allocates one broadcast channel and returns its write and read
// halves, plus a closer that completes the channel.
// Both halves always refer to the same channel.
//
// Example:
//
//	type Visibility struct{ Hidden bool }
//
//	type VisibilityDispatcher struct {
//	    observer   dispatcher.Observer[Visibility]
//	    observable dispatcher.Observable[Visibility]
//	}
//
//	func NewVisibilityDispatcher() *VisibilityDispatcher {
//	    d := &VisibilityDispatcher{}
//	    d.observer, d.observable, _ = dispatcher.Properties[Visibility]()
//	    return d
//	}
func Properties[S any](opts ...Option) (Observer[S], Observable[S], io.Closer) {
	c := newChannel[S](newOptions(opts))
	return writeView[S]{c}, readView[S]{c}, c
}

// Dispatcher is the default Dispatchable: one channel, replaying the latest
// value to new subscribers while connected.
//
// Example:
//
//	d := dispatcher.New[Visibility](dispatcher.WithLogger(logger))
//	defer d.Close()
//
//	in := dispatcher.NewObserverDispatcher[Visibility](d)
//	out := dispatcher.NewObservableDispatcher[Visibility](d)
type Dispatcher[S any] struct {
	ch         *channel[S]
	observer   Observer[S]
	observable Observable[S]
}

var _ Dispatchable[any] = (*Dispatcher[any])(nil)

// New creates a dispatcher with its own channel.
// Panics if WithBroadcaster was given a broadcaster of a different state type.
func New[S any](opts ...Option) *Dispatcher[S] {
	c := newChannel[S](newOptions(opts))
	return &Dispatcher[S]{
		ch:         c,
		observer:   writeView[S]{c},
		observable: readView[S]{c},
	}
}

// Observer returns the write endpoint.
func (d *Dispatcher[S]) Observer() Observer[S] { return d.observer }

// Observable returns the read endpoint.
func (d *Dispatcher[S]) Observable() Observable[S] { return d.observable }

// Name returns the channel name.
func (d *Dispatcher[S]) Name() string { return d.ch.name }

// Stats returns broadcaster counters, if the broadcaster exposes them.
func (d *Dispatcher[S]) Stats() broadcast.Stats { return d.ch.stats() }

// Close completes the channel. Subscribers receive a completion event and
// further writes return ErrDispatcherClosed. Returns ErrDispatcherClosed if
// the channel already terminated.
func (d *Dispatcher[S]) Close() error { return d.ch.Close() }
