package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestPublishThenWatch(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr() + "/0"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := run(t, ctx, "publish", "--redis-url", url, "visibility", `{"hidden": true}`)
	require.NoError(t, err)
	assert.Equal(t, "published to visibility\n", out)

	out, err = run(t, ctx, "watch", "--redis-url", url, "--count", "1", "visibility")
	require.NoError(t, err)
	assert.Equal(t, `{"hidden":true}`+"\n", out)
}

func TestWatch_StreamsNewValues(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr() + "/0"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := run(t, ctx, "watch", "--redis-url", url, "--prefix", "test", "-n", "2", "counter")
		done <- result{out, err}
	}()

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("test:counter")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	for _, v := range []string{"1", "2"} {
		_, err := run(t, ctx, "publish", "--redis-url", url, "--prefix", "test", "counter", v)
		require.NoError(t, err)
	}

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, []string{"1", "2"}, strings.Fields(r.out))
	case <-ctx.Done():
		t.Fatal("watch did not stop after --count values")
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := run(t, ctx, "watch", "--redis-url", "redis://"+mr.Addr()+"/0", "idle")
		done <- err
	}()

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("dispatch:idle")) == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop on cancellation")
	}
}

func TestCommandErrors(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr() + "/0"
	ctx := context.Background()

	tests := []struct {
		name string
		args []string
		err  error
	}{
		{"invalid json", []string{"publish", "--redis-url", url, "ch", "{nope"}, ErrInvalidJSON},
		{"negative count", []string{"watch", "--redis-url", url, "--count", "-1", "ch"}, ErrInvalidFlag},
		{"missing args", []string{"publish", "--redis-url", url, "ch"}, nil},
		{"bad url", []string{"publish", "--redis-url", "http://" + mr.Addr(), "ch", "1"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := run(t, ctx, tt.args...)
			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}
