package broadcast_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatcher/pkg/broadcast"
)

func receive[T any](t *testing.T, ch <-chan broadcast.Message[T]) T {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return msg.Data
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
	var zero T
	return zero
}

func assertNoMessage[T any](t *testing.T, ch <-chan broadcast.Message[T]) {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if ok {
			t.Fatalf("unexpected message: %v", msg.Data)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func assertClosed[T any](t *testing.T, ch <-chan broadcast.Message[T]) {
	t.Helper()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryBroadcaster_FanOut(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[string](10)
	defer b.Close()

	ctx := context.Background()
	s1 := b.Subscribe(ctx)
	s2 := b.Subscribe(ctx)
	assert.NotEqual(t, s1.ID(), s2.ID())

	require.NoError(t, b.Broadcast(ctx, broadcast.Message[string]{Data: "a"}))
	require.NoError(t, b.Broadcast(ctx, broadcast.Message[string]{Data: "b"}))

	for _, s := range []broadcast.Subscriber[string]{s1, s2} {
		ch := s.Receive(ctx)
		assert.Equal(t, "a", receive(t, ch))
		assert.Equal(t, "b", receive(t, ch))
	}

	stats := b.Stats()
	assert.Equal(t, 2, stats.Subscribers)
	assert.Equal(t, int64(2), stats.Published)
	assert.Equal(t, int64(4), stats.Delivered)
	assert.Zero(t, stats.Dropped)
}

func TestMemoryBroadcaster_ReplayPolicies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](10)
		defer b.Close()

		first := b.Subscribe(ctx)
		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 1}))
		assert.Equal(t, 1, receive(t, first.Receive(ctx)))

		late := b.Subscribe(ctx)
		assertNoMessage(t, late.Receive(ctx))
	})

	t.Run("while connected replays latest", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](10, broadcast.WithReplay(broadcast.ReplayWhileConnected))
		defer b.Close()

		first := b.Subscribe(ctx)
		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 1}))
		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 2}))

		late := b.Subscribe(ctx)
		assert.Equal(t, 2, receive(t, late.Receive(ctx)))
		assertNoMessage(t, late.Receive(ctx))

		_ = first
	})

	t.Run("while connected drops cache on disconnect", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](10, broadcast.WithReplay(broadcast.ReplayWhileConnected))
		defer b.Close()

		first := b.Subscribe(ctx)
		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 1}))
		require.NoError(t, first.Close())

		late := b.Subscribe(ctx)
		assertNoMessage(t, late.Receive(ctx))
	})

	t.Run("while connected ignores messages without subscribers", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](10, broadcast.WithReplay(broadcast.ReplayWhileConnected))
		defer b.Close()

		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 1}))
		late := b.Subscribe(ctx)
		assertNoMessage(t, late.Receive(ctx))
	})

	t.Run("always keeps latest", func(t *testing.T) {
		t.Parallel()
		b := broadcast.NewMemoryBroadcaster[int](10, broadcast.WithReplay(broadcast.ReplayAlways))
		defer b.Close()

		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 7}))
		late := b.Subscribe(ctx)
		assert.Equal(t, 7, receive(t, late.Receive(ctx)))
	})
}

func TestMemoryBroadcaster_SlowConsumerKeepsLatest(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](4)
	defer b.Close()

	ctx := context.Background()
	sub := b.Subscribe(ctx)

	for i := 1; i <= 20; i++ {
		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: i}))
	}

	var got []int
	for range 4 {
		got = append(got, receive(t, sub.Receive(ctx)))
	}
	assertNoMessage(t, sub.Receive(ctx))

	assert.Equal(t, []int{17, 18, 19, 20}, got)
	stats := b.Stats()
	assert.Equal(t, int64(16), stats.Dropped)
	assert.Equal(t, int64(20), stats.Delivered)
}

func TestMemoryBroadcaster_TransientMessagesAreNotReplayed(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](10, broadcast.WithReplay(broadcast.ReplayAlways))
	defer b.Close()

	ctx := context.Background()
	first := b.Subscribe(ctx)

	require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 1}))
	require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 2, Transient: true}))
	assert.Equal(t, 1, receive(t, first.Receive(ctx)))
	assert.Equal(t, 2, receive(t, first.Receive(ctx)))

	late := b.Subscribe(ctx)
	assert.Equal(t, 1, receive(t, late.Receive(ctx)))
	assertNoMessage(t, late.Receive(ctx))
}

func TestMemoryBroadcaster_ContextCancellationUnsubscribes(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](10)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := b.Subscribe(ctx)
	require.Equal(t, 1, b.Stats().Subscribers)

	cancel()

	assertClosed(t, sub.Receive(context.Background()))
	assert.Equal(t, 0, b.Stats().Subscribers)
}

func TestMemoryBroadcaster_Close(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](10)
	ctx := context.Background()
	sub := b.Subscribe(ctx)

	require.NoError(t, b.Close())
	assertClosed(t, sub.Receive(ctx))

	assert.ErrorIs(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 1}), broadcast.ErrBroadcasterClosed)
	assert.ErrorIs(t, b.Close(), broadcast.ErrBroadcasterClosed)
	assert.ErrorIs(t, sub.Close(), broadcast.ErrSubscriberClosed)

	late := b.Subscribe(ctx)
	assertClosed(t, late.Receive(ctx))
}

func TestMemoryBroadcaster_CancelledContext(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](10)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 1}), context.Canceled)
	assert.Zero(t, b.Stats().Published)
}

func TestMemoryBroadcaster_ConcurrentUse(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](1000)
	defer b.Close()

	ctx := context.Background()
	subs := make([]broadcast.Subscriber[int], 5)
	for i := range subs {
		subs[i] = b.Subscribe(ctx)
	}

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = b.Broadcast(ctx, broadcast.Message[int]{Data: i})
			}
		}()
	}

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := b.Subscribe(ctx)
			_ = s.Close()
		}()
	}
	wg.Wait()

	for _, s := range subs {
		assert.Len(t, s.Receive(ctx), 200)
	}
}

func TestParseReplayPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    broadcast.ReplayPolicy
		wantErr bool
	}{
		{"none", broadcast.ReplayNone, false},
		{"", broadcast.ReplayNone, false},
		{"while_connected", broadcast.ReplayWhileConnected, false},
		{"While-Connected", broadcast.ReplayWhileConnected, false},
		{"always", broadcast.ReplayAlways, false},
		{"sometimes", broadcast.ReplayNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := broadcast.ParseReplayPolicy(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, broadcast.ErrUnknownReplayPolicy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.String(), func() string {
				text, _ := got.MarshalText()
				return string(text)
			}())
		})
	}
}
