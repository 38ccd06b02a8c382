package main

import (
	"encoding/json"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/dispatcher/core/dispatcher"
	"github.com/dmitrymomot/dispatcher/pkg/broadcast"
)

type redisConn struct {
	client goredis.UniversalClient
	app    *app
	buses  []broadcast.Broadcaster[dispatcher.Event[json.RawMessage]]
}

// channel opens a dispatcher over the named Redis channel. The latest value
// is kept in Redis so late watchers see it even after the publisher exits.
func (c *redisConn) channel(name string) *dispatcher.Dispatcher[json.RawMessage] {
	bus := broadcast.NewRedisBroadcaster[dispatcher.Event[json.RawMessage]](c.client, name,
		broadcast.WithReplay(broadcast.ReplayAlways),
		broadcast.WithKeyPrefix(c.app.cfg.KeyPrefix),
		broadcast.WithReplayTTL(c.app.cfg.ReplayTTL),
		broadcast.WithLogger(c.app.log),
	)
	c.buses = append(c.buses, bus)

	return dispatcher.New[json.RawMessage](
		dispatcher.WithName(name),
		dispatcher.WithLogger(c.app.log),
		dispatcher.WithBroadcaster[json.RawMessage](bus),
	)
}

// Close releases local subscribers and the client. Dispatchers are not
// closed: that would complete the channel for every other process.
func (c *redisConn) Close() error {
	var errs []error
	for _, bus := range c.buses {
		if err := bus.Close(); err != nil && !errors.Is(err, broadcast.ErrBroadcasterClosed) {
			errs = append(errs, err)
		}
	}
	errs = append(errs, c.client.Close())
	return errors.Join(errs...)
}
