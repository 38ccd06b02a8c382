// Package dispatcher provides typed state channels for broadcasting state
// changes to observers.
//
// A dispatcher owns exactly one broadcast channel for a state type S. The
// channel has a write endpoint (Observer) and a read endpoint (Observable).
// New subscribers receive the most recent value first, as long as the channel
// has at least one subscriber connected; when the last subscriber leaves the
// cached value is dropped.
//
// # Defining a Dispatcher
//
// Declare the state type and embed *Dispatcher[S]:
//
//	type Visibility struct {
//	    Enabled bool
//	    Hidden  bool
//	}
//
//	type VisibilityDispatcher struct {
//	    *dispatcher.Dispatcher[Visibility]
//	}
//
//	func NewVisibilityDispatcher(opts ...dispatcher.Option) VisibilityDispatcher {
//	    return VisibilityDispatcher{dispatcher.New[Visibility](opts...)}
//	}
//
// # Publishing and Subscribing
//
// The write and read endpoints are usually handed to different parts of the
// application through the type-erasing adapters:
//
//	in := dispatcher.NewObserverDispatcher[Visibility](d)
//	out := dispatcher.NewObservableDispatcher[Visibility](d)
//
//	sub, err := out.SubscribeFunc(ctx, func(ctx context.Context, v Visibility) error {
//	    return render(v)
//	})
//	if err != nil {
//	    return err
//	}
//	defer sub.Unsubscribe()
//
//	err = in.Dispatch(ctx, Visibility{Enabled: true})
//
// Values are delivered asynchronously, in write order, on one goroutine per
// subscription. Observer errors and panics are logged and never reach the
// publisher or other subscribers. A subscriber that falls behind loses its
// oldest queued values; the latest value always arrives. Unsubscribe discards
// whatever is still queued.
//
// # Shared Instances
//
// There are no package-level singletons. A Registry holds at most one
// instance per type and is owned by the application:
//
//	reg := dispatcher.NewRegistry()
//	defer reg.Reset()
//
//	a := dispatcher.For[Visibility](reg)
//	b := dispatcher.For[Visibility](reg) // a == b
//
// Reset closes every shared dispatcher and forgets it, which gives tests a
// clean slate. If an init function panics nothing is stored and the next
// access runs init again.
//
// # Termination
//
// Fail and Complete events end the channel. Every subscriber receives the
// terminal event and its subscription finishes; later writes return
// ErrDispatcherClosed and later subscribers receive the terminal event
// immediately. Dispatcher.Close sends Complete.
//
// # Backends
//
// The default channel is an in-memory broadcast.MemoryBroadcaster. Use
// WithBroadcaster to share a channel across processes:
//
//	bus := broadcast.NewRedisBroadcaster[dispatcher.Event[Visibility]](client, "visibility",
//	    broadcast.WithReplay(broadcast.ReplayWhileConnected),
//	)
//	d := dispatcher.New[Visibility](dispatcher.WithBroadcaster[Visibility](bus))
//
// # Decorators
//
// Observers can be wrapped with Logging, Recover, Filter and
// DistinctUntilChanged via ApplyDecorators.
package dispatcher
