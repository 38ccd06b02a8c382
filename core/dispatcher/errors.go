package dispatcher

import "errors"

var (
	// ErrDispatcherClosed is returned when writing to a channel that already
	// received a terminal event or was closed.
	ErrDispatcherClosed = errors.New("dispatcher is closed")

	// ErrNilObserver is returned when subscribing with a nil observer.
	ErrNilObserver = errors.New("observer is nil")

	// ErrObserverPanic wraps a panic recovered from an observer.
	ErrObserverPanic = errors.New("observer panicked")

	// ErrBroadcasterMismatch is reported when a broadcaster supplied via
	// WithBroadcaster does not carry events of the dispatcher's state type.
	ErrBroadcasterMismatch = errors.New("broadcaster does not match dispatcher state type")
)
