package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/dispatcher/core/logger"
)

// Decorator wraps an Observer to add cross-cutting behavior. Decorators work
// on both sides of a channel: around a subscriber, or around a write endpoint.
type Decorator[S any] func(Observer[S]) Observer[S]

// ApplyDecorators wraps obs with decorators. The first decorator becomes the
// outermost wrapper and runs first.
//
// Example:
//
//	obs := dispatcher.ApplyDecorators(
//	    dispatcher.OnNext(render),
//	    dispatcher.Logging[Visibility](logger),
//	    dispatcher.Recover[Visibility](),
//	    dispatcher.Distinct[Visibility](),
//	)
//
// Execution order: Logging -> Recover -> Distinct -> render
func ApplyDecorators[S any](obs Observer[S], decorators ...Decorator[S]) Observer[S] {
	for i := len(decorators) - 1; i >= 0; i-- {
		obs = decorators[i](obs)
	}
	return obs
}

// Logging logs every event at debug level and failures at error level.
func Logging[S any](log *slog.Logger) Decorator[S] {
	return func(next Observer[S]) Observer[S] {
		return ObserverFunc[S](func(ctx context.Context, evt Event[S]) error {
			start := time.Now()
			err := next.On(ctx, evt)
			if err != nil {
				log.ErrorContext(ctx, "event handling failed",
					logger.EventKind(evt.Kind.String()),
					logger.Elapsed(start),
					logger.Error(err))
				return err
			}
			log.DebugContext(ctx, "event handled",
				logger.EventKind(evt.Kind.String()),
				logger.Elapsed(start))
			return nil
		})
	}
}

// Recover converts a panic in the wrapped observer into an error wrapping ErrObserverPanic.
func Recover[S any]() Decorator[S] {
	return func(next Observer[S]) Observer[S] {
		return ObserverFunc[S](func(ctx context.Context, evt Event[S]) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %v", ErrObserverPanic, r)
				}
			}()
			return next.On(ctx, evt)
		})
	}
}

// Filter forwards next events whose value satisfies keep. Terminal events always pass.
func Filter[S any](keep func(S) bool) Decorator[S] {
	return func(next Observer[S]) Observer[S] {
		return ObserverFunc[S](func(ctx context.Context, evt Event[S]) error {
			if evt.Kind == KindNext && !keep(evt.Value) {
				return nil
			}
			return next.On(ctx, evt)
		})
	}
}

// DistinctUntilChanged suppresses next events equal to the previously forwarded value.
// Each decorated observer keeps its own last value.
func DistinctUntilChanged[S any](equal func(a, b S) bool) Decorator[S] {
	return func(next Observer[S]) Observer[S] {
		var (
			mu   sync.Mutex
			last S
			seen bool
		)
		return ObserverFunc[S](func(ctx context.Context, evt Event[S]) error {
			if evt.Kind == KindNext {
				mu.Lock()
				if seen && equal(last, evt.Value) {
					mu.Unlock()
					return nil
				}
				last, seen = evt.Value, true
				mu.Unlock()
			}
			return next.On(ctx, evt)
		})
	}
}

// Distinct is DistinctUntilChanged for comparable states.
func Distinct[S comparable]() Decorator[S] {
	return DistinctUntilChanged(func(a, b S) bool { return a == b })
}
