package dispatcher

import (
	"errors"
	"io"
	"reflect"
	"sync"
)

// Registry owns shared instances, at most one per Go type.
// It replaces process-wide singletons: create one registry at startup and
// pass it to the code that needs shared dispatchers.
//
// Example:
//
//	reg := dispatcher.NewRegistry()
//	defer reg.Reset()
//
//	visibility := dispatcher.For[Visibility](reg)
//	same := dispatcher.For[Visibility](reg) // visibility == same
type Registry struct {
	mu      sync.Mutex
	entries map[reflect.Type]*registryEntry
	order   []reflect.Type
}

type registryEntry struct {
	once  sync.Once
	value any
	ok    bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[reflect.Type]*registryEntry)}
}

// Shared returns the instance of type D held by r, calling init to create
// it on first access. Concurrent first accesses call init once.
// init must not call Shared for the same type. If init panics, the panic
// propagates and the next access calls init again.
func Shared[D any](r *Registry, init func() D) D {
	key := reflect.TypeFor[D]()

	for {
		e := r.entry(key)
		e.once.Do(func() {
			defer func() {
				if !e.ok {
					r.forget(key, e)
				}
			}()
			e.value = init()
			e.ok = true
		})

		// An entry finished without a value was reset before init ran, or
		// init panicked; either way it is no longer registered.
		if e.ok {
			v, _ := e.value.(D)
			return v
		}
	}
}

func (r *Registry) entry(key reflect.Type) *registryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		e = &registryEntry{}
		r.entries[key] = e
		r.order = append(r.order, key)
	}
	return e
}

func (r *Registry) forget(key reflect.Type, e *registryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries[key] != e {
		return
	}
	delete(r.entries, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// For returns the shared *Dispatcher[S], creating it with opts on first access.
// Options are ignored once the dispatcher exists.
func For[S any](r *Registry, opts ...Option) *Dispatcher[S] {
	return Shared(r, func() *Dispatcher[S] { return New[S](opts...) })
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Reset forgets every instance, closing those that implement io.Closer in
// reverse creation order. The next access creates fresh instances.
func (r *Registry) Reset() error {
	r.mu.Lock()
	entries := r.entries
	order := r.order
	r.entries = make(map[reflect.Type]*registryEntry)
	r.order = nil
	r.mu.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		e := entries[order[i]]
		// Waits for an in-flight init; marks never-initialized entries done
		// so a racing Shared retries on the fresh map.
		e.once.Do(func() {})
		if !e.ok {
			continue
		}

		c, ok := e.value.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && !errors.Is(err, ErrDispatcherClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
