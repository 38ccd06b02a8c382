package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/dispatcher/core/logger"
)

// publishScript publishes a message and, depending on the replay policy,
// stores it as the latest value in the same atomic step.
//
// KEYS[1] latest key; ARGV[1] channel, ARGV[2] payload, ARGV[3] policy, ARGV[4] ttl in ms.
var publishScript = redis.NewScript(`
local n = redis.call('PUBLISH', ARGV[1], ARGV[2])
if ARGV[3] == 'always' or (ARGV[3] == 'while_connected' and n > 0) then
	local ttl = tonumber(ARGV[4])
	if ttl > 0 then
		redis.call('SET', KEYS[1], ARGV[2], 'PX', ttl)
	else
		redis.call('SET', KEYS[1], ARGV[2])
	end
end
return n
`)

// RedisBroadcaster is a Broadcaster backed by Redis Pub/Sub, so subscribers
// in other processes receive the same messages. Payloads are JSON encoded.
//
// Replay uses a Redis key holding the latest payload. With ReplayWhileConnected
// the key is written only when the message reached at least one Redis
// subscriber, and it is deleted when the last local subscriber leaves and
// no other subscriber remains on the channel.
type RedisBroadcaster[T any] struct {
	client    redis.UniversalClient
	channel   string
	latestKey string

	bufferSize int
	replay     ReplayPolicy
	ttl        time.Duration
	logger     *slog.Logger

	mu     sync.Mutex
	subs   map[string]*redisSubscriber[T]
	closed bool

	published atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
}

var _ Broadcaster[any] = (*RedisBroadcaster[any])(nil)

type redisSubscriber[T any] struct {
	*subscriber[T]
	pubsub *redis.PubSub
	mu     sync.Mutex
	closed bool
}

// NewRedisBroadcaster creates a broadcaster on the named channel.
// The client is not owned by the broadcaster and is not closed by Close.
//
// Example:
//
//	b := broadcast.NewRedisBroadcaster[State](client, "ui.state",
//	    broadcast.WithReplay(broadcast.ReplayAlways),
//	    broadcast.WithReplayTTL(time.Hour),
//	)
func NewRedisBroadcaster[T any](client redis.UniversalClient, channel string, opts ...Option) *RedisBroadcaster[T] {
	if client == nil {
		panic("broadcast: redis client is nil")
	}
	o := newOptions(opts)
	return &RedisBroadcaster[T]{
		client:     client,
		channel:    o.keyPrefix + ":" + channel,
		latestKey:  o.keyPrefix + ":" + channel + ":latest",
		bufferSize: o.bufferSize,
		replay:     o.replay,
		ttl:        o.ttl,
		logger:     o.logger,
		subs:       make(map[string]*redisSubscriber[T]),
	}
}

// Channel returns the Redis Pub/Sub channel name.
func (b *RedisBroadcaster[T]) Channel() string {
	return b.channel
}

// Broadcast publishes msg to the Redis channel. Transient messages are
// published without touching the stored latest value.
func (b *RedisBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrBroadcasterClosed
	}

	payload, err := json.Marshal(msg.Data)
	if err != nil {
		return errors.Join(ErrEncodeMessage, err)
	}

	if b.replay == ReplayNone || msg.Transient {
		err = b.client.Publish(ctx, b.channel, payload).Err()
	} else {
		err = publishScript.Run(ctx, b.client,
			[]string{b.latestKey},
			b.channel, payload, b.replay.String(), b.ttl.Milliseconds(),
		).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", b.channel, err)
	}

	b.published.Add(1)
	return nil
}

// Subscribe opens a Redis subscription. When replay is enabled and a latest
// payload is stored, it is delivered first. A message published between the
// subscription and the replay read can be delivered twice.
//
// Subscription failures are logged and yield a closed subscriber.
func (b *RedisBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	rs := &redisSubscriber[T]{}
	rs.subscriber = newSubscriber(b.bufferSize, func(*subscriber[T]) { b.detach(rs) })

	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		_ = rs.Close()
		return rs
	}

	rs.pubsub = b.client.Subscribe(ctx, b.channel)
	if _, err := rs.pubsub.Receive(ctx); err != nil {
		b.logger.ErrorContext(ctx, "redis subscribe failed",
			logger.Channel(b.channel),
			logger.SubscriptionID(rs.id),
			logger.Error(err))
		_ = rs.Close()
		return rs
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = rs.Close()
		return rs
	}
	b.subs[rs.id] = rs
	b.mu.Unlock()

	if b.replay != ReplayNone {
		b.replayLatest(ctx, rs)
	}

	rs.watch(ctx)
	go b.pump(rs)

	return rs
}

func (b *RedisBroadcaster[T]) replayLatest(ctx context.Context, rs *redisSubscriber[T]) {
	payload, err := b.client.Get(ctx, b.latestKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return
	}
	if err != nil {
		b.logger.WarnContext(ctx, "failed to read latest message",
			logger.Channel(b.channel),
			logger.Error(err))
		return
	}
	b.deliver(ctx, rs, payload)
}

func (b *RedisBroadcaster[T]) pump(rs *redisSubscriber[T]) {
	ch := rs.pubsub.Channel()
	for {
		select {
		case <-rs.done:
			return
		case m, ok := <-ch:
			if !ok {
				_ = rs.Close()
				return
			}
			b.deliver(context.Background(), rs, []byte(m.Payload))
		}
	}
}

func (b *RedisBroadcaster[T]) deliver(ctx context.Context, rs *redisSubscriber[T], payload []byte) {
	var data T
	if err := json.Unmarshal(payload, &data); err != nil {
		b.logger.ErrorContext(ctx, "failed to decode broadcast message",
			logger.Channel(b.channel),
			logger.Error(err))
		return
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.closed {
		return
	}
	b.delivered.Add(1)
	if n := rs.offer(Message[T]{Data: data}); n > 0 {
		b.dropped.Add(int64(n))
		b.logger.WarnContext(ctx, "subscriber buffer full, oldest message dropped",
			logger.Channel(b.channel),
			logger.SubscriptionID(rs.id))
	}
}

func (b *RedisBroadcaster[T]) detach(rs *redisSubscriber[T]) {
	rs.mu.Lock()
	rs.closed = true
	close(rs.ch)
	rs.mu.Unlock()

	if rs.pubsub != nil {
		if err := rs.pubsub.Close(); err != nil {
			b.logger.Debug("redis pubsub close failed", logger.Error(err))
		}
	}

	b.mu.Lock()
	_, registered := b.subs[rs.id]
	delete(b.subs, rs.id)
	last := registered && len(b.subs) == 0
	b.mu.Unlock()

	if last && b.replay == ReplayWhileConnected {
		b.dropLatestIfDisconnected()
	}
}

func (b *RedisBroadcaster[T]) dropLatestIfDisconnected() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := b.client.PubSubNumSub(ctx, b.channel).Result()
	if err != nil {
		b.logger.Warn("failed to count channel subscribers", logger.Channel(b.channel), logger.Error(err))
		return
	}
	if counts[b.channel] > 0 {
		return
	}
	if err := b.client.Del(ctx, b.latestKey).Err(); err != nil {
		b.logger.Warn("failed to drop latest message", logger.Channel(b.channel), logger.Error(err))
	}
}

// Close closes all local subscribers. The Redis client stays open.
func (b *RedisBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBroadcasterClosed
	}
	b.closed = true
	subs := make([]*redisSubscriber[T], 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}

	b.logger.Debug("redis broadcaster closed", logger.Channel(b.channel), logger.Subscribers(len(subs)))
	return nil
}

// Stats returns counters for this process. Subscribers counts local subscribers only.
func (b *RedisBroadcaster[T]) Stats() Stats {
	b.mu.Lock()
	count := len(b.subs)
	b.mu.Unlock()

	return Stats{
		Subscribers: count,
		Published:   b.published.Load(),
		Delivered:   b.delivered.Load(),
		Dropped:     b.dropped.Load(),
	}
}
