package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatcher/core/logger"
)

func TestGroup(t *testing.T) {
	t.Parallel()
	attr := logger.Group("sub", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "sub", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	t.Parallel()
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "0", g[0].Key)
	assert.Equal(t, "2", g[1].Key)
	assert.Equal(t, err2, g[1].Value.Any())

	assert.True(t, logger.Errors(nil, nil).Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	t.Parallel()
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestDispatcherAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "channel", logger.Channel("ui").Key)
	assert.True(t, logger.Channel("").Equal(slog.Attr{}))
	assert.Equal(t, "subscription_id", logger.SubscriptionID("abc").Key)
	assert.True(t, logger.SubscriptionID("").Equal(slog.Attr{}))
	assert.Equal(t, "next", logger.EventKind("next").Value.String())
	assert.Equal(t, int64(3), logger.Subscribers(3).Value.Int64())
	assert.True(t, logger.Panic(nil).Equal(slog.Attr{}))
	assert.Equal(t, "panic", logger.Panic("x").Key)
}

func TestTiming(t *testing.T) {
	t.Parallel()
	assert.Equal(t, time.Second, logger.Duration(time.Second).Value.Duration())

	attr := logger.Elapsed(time.Now().Add(-time.Minute))
	assert.Equal(t, "elapsed", attr.Key)
	assert.GreaterOrEqual(t, attr.Value.Duration(), time.Minute)
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("production writes json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithProduction("svc"), logger.WithOutput(&buf))
		log.Debug("hidden")
		log.Info("hello", logger.Channel("ui"))

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "hello", rec["msg"])
		assert.Equal(t, "svc", rec["service"])
		assert.Equal(t, "ui", rec["channel"])
	})

	t.Run("development logs debug", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithDevelopment("svc"), logger.WithOutput(&buf))
		log.Debug("visible")
		assert.Contains(t, buf.String(), "msg=visible")
		assert.Contains(t, buf.String(), "env=development")
	})
}
