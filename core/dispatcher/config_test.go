package dispatcher_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatcher/core/config"
	"github.com/dmitrymomot/dispatcher/core/dispatcher"
	"github.com/dmitrymomot/dispatcher/pkg/broadcast"
)

func TestConfig_FromEnvironment(t *testing.T) {
	t.Setenv("DISPATCHER_BUFFER_SIZE", "8")
	t.Setenv("DISPATCHER_REPLAY", "none")
	config.Reset()
	t.Cleanup(config.Reset)

	var cfg dispatcher.Config
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 8, cfg.BufferSize)
	assert.Equal(t, broadcast.ReplayNone, cfg.Replay)

	d := dispatcher.New[int](dispatcher.WithConfig(cfg))
	defer d.Close()

	ctx := context.Background()
	first := newRecorder[int]()
	_, err := d.Observable().Subscribe(ctx, first)
	require.NoError(t, err)
	require.NoError(t, d.Observer().On(ctx, dispatcher.Next(1)))
	first.next(t)

	late := newRecorder[int]()
	_, err = d.Observable().Subscribe(ctx, late)
	require.NoError(t, err)
	late.none(t)
}
