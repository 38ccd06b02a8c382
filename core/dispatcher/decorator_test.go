package dispatcher_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatcher/core/dispatcher"
)

func TestApplyDecorators_Order(t *testing.T) {
	t.Parallel()

	var trace []string
	mark := func(name string) dispatcher.Decorator[int] {
		return func(next dispatcher.Observer[int]) dispatcher.Observer[int] {
			return dispatcher.ObserverFunc[int](func(ctx context.Context, evt dispatcher.Event[int]) error {
				trace = append(trace, name)
				return next.On(ctx, evt)
			})
		}
	}

	obs := dispatcher.ApplyDecorators(
		dispatcher.OnNext(func(context.Context, int) error {
			trace = append(trace, "handler")
			return nil
		}),
		mark("first"),
		mark("second"),
	)

	require.NoError(t, obs.On(context.Background(), dispatcher.Next(1)))
	assert.Equal(t, []string{"first", "second", "handler"}, trace)
}

func TestRecover(t *testing.T) {
	t.Parallel()

	obs := dispatcher.ApplyDecorators(
		dispatcher.OnNext(func(context.Context, int) error { panic("boom") }),
		dispatcher.Recover[int](),
	)

	err := obs.On(context.Background(), dispatcher.Next(1))
	assert.ErrorIs(t, err, dispatcher.ErrObserverPanic)
	assert.Contains(t, err.Error(), "boom")
}

func TestFilter(t *testing.T) {
	t.Parallel()

	r := newRecorder[int]()
	obs := dispatcher.ApplyDecorators[int](r, dispatcher.Filter(func(v int) bool { return v%2 == 0 }))

	ctx := context.Background()
	for i := 1; i <= 4; i++ {
		require.NoError(t, obs.On(ctx, dispatcher.Next(i)))
	}
	require.NoError(t, obs.On(ctx, dispatcher.Complete[int]()))

	assert.Equal(t, 2, r.next(t).Value)
	assert.Equal(t, 4, r.next(t).Value)
	assert.Equal(t, dispatcher.KindCompleted, r.next(t).Kind)
}

func TestDistinct(t *testing.T) {
	t.Parallel()

	r := newRecorder[Visibility]()
	obs := dispatcher.ApplyDecorators[Visibility](r, dispatcher.Distinct[Visibility]())

	ctx := context.Background()
	for _, v := range []Visibility{{Hidden: true}, {Hidden: true}, {Enabled: true}, {Hidden: true}} {
		require.NoError(t, obs.On(ctx, dispatcher.Next(v)))
	}

	assert.Equal(t, Visibility{Hidden: true}, r.next(t).Value)
	assert.Equal(t, Visibility{Enabled: true}, r.next(t).Value)
	assert.Equal(t, Visibility{Hidden: true}, r.next(t).Value)
	r.none(t)
}

func TestLogging(t *testing.T) {
	t.Parallel()

	logs := &syncBuffer{}
	log := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fail := errors.New("render failed")
	obs := dispatcher.ApplyDecorators(
		dispatcher.OnNext(func(_ context.Context, v int) error {
			if v < 0 {
				return fail
			}
			return nil
		}),
		dispatcher.Logging[int](log),
	)

	ctx := context.Background()
	require.NoError(t, obs.On(ctx, dispatcher.Next(1)))
	assert.ErrorIs(t, obs.On(ctx, dispatcher.Next(-1)), fail)

	out := logs.String()
	assert.Contains(t, out, "event handled")
	assert.Contains(t, out, "event handling failed")
	assert.Contains(t, out, "render failed")
	assert.Contains(t, out, "event_kind=next")
}

func TestDecoratedWriteEndpoint(t *testing.T) {
	t.Parallel()

	d := dispatcher.New[int]()
	defer d.Close()

	ctx := context.Background()
	r := newRecorder[int]()
	_, err := d.Observable().Subscribe(ctx, r)
	require.NoError(t, err)

	in := dispatcher.ApplyDecorators(d.Observer(), dispatcher.Distinct[int]())
	for _, v := range []int{1, 1, 2} {
		require.NoError(t, in.On(ctx, dispatcher.Next(v)))
	}

	assert.Equal(t, 1, r.next(t).Value)
	assert.Equal(t, 2, r.next(t).Value)
	r.none(t)
}
