// Package broadcast provides a generic pub/sub messaging system with pluggable backends.
//
// This package supports in-memory broadcasting with automatic cleanup and non-blocking
// message delivery to prevent slow consumers from affecting the entire system.
//
// # Architecture
//
// The package defines two main interfaces:
//   - Broadcaster: sends messages to multiple subscribers
//   - Subscriber: receives broadcast messages
//
// The design allows for pluggable backends while providing a consistent API.
// Two implementations are included: MemoryBroadcaster for a single process and
// RedisBroadcaster for fan-out across processes via Redis Pub/Sub.
//
// # Usage
//
// Basic broadcasting:
//
//	// Create a broadcaster with buffer size of 100 messages per subscriber
//	broadcaster := broadcast.NewMemoryBroadcaster[string](100)
//	defer broadcaster.Close()
//
//	// Subscribe to messages
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	subscriber := broadcaster.Subscribe(ctx)
//	defer subscriber.Close()
//
//	// Start receiving messages in a goroutine
//	go func() {
//		for msg := range subscriber.Receive(ctx) {
//			fmt.Printf("Received: %s\n", msg.Data)
//		}
//	}()
//
//	// Send messages
//	broadcaster.Broadcast(ctx, broadcast.Message[string]{Data: "Hello, World!"})
//	broadcaster.Broadcast(ctx, broadcast.Message[string]{Data: "Another message"})
//
// # Memory Implementation
//
// MemoryBroadcaster provides an in-memory implementation with these characteristics:
//   - Non-blocking message delivery
//   - Automatic subscriber cleanup on context cancellation
//   - Graceful handling of slow consumers
//   - Thread-safe operations
//
// Slow Consumer Handling:
//
//	// If a subscriber's buffer is full, its oldest queued message is dropped
//	// to make room rather than blocking the broadcast operation. A slow
//	// consumer skips intermediate messages but always receives the latest one.
//
// # Replay
//
// A broadcaster can hand the most recent message to late subscribers:
//
//	broadcaster := broadcast.NewMemoryBroadcaster[State](10,
//		broadcast.WithReplay(broadcast.ReplayWhileConnected),
//	)
//
// ReplayWhileConnected keeps the latest message only while at least one
// subscriber is attached; ReplayAlways keeps it until the broadcaster is closed
// (or, for Redis, until the optional TTL expires).
//
// # Redis Backend
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	broadcaster := broadcast.NewRedisBroadcaster[State](client, "ui.state",
//		broadcast.WithReplay(broadcast.ReplayAlways),
//		broadcast.WithReplayTTL(time.Hour),
//	)
//
// Payloads are JSON encoded, so T must round-trip through encoding/json.
//
// # Message Types
//
// Messages are wrapped in a generic Message[T] struct:
//
//	type Message[T any] struct {
//		Data T
//	}
//
// This allows type-safe broadcasting of any data type.
//
// # Context Integration
//
// Subscriptions are automatically cleaned up when their context is cancelled:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	subscriber := broadcaster.Subscribe(ctx)
//	// Subscription will be automatically cleaned up after 30 seconds
//
// # Performance Characteristics
//
// - Message delivery is O(n) where n is the number of active subscribers
// - Subscriber cleanup is performed asynchronously to avoid blocking broadcasts
// - Buffer sizes should be chosen based on expected message rates and processing speed
// - Recommended buffer sizes: 10-100 for low-volume, 100-1000 for high-volume
//
// # Error Handling
//
// Operations on closed resources are safe and will not panic:
//   - ErrBroadcasterClosed: Broadcast or Close on a closed broadcaster
//   - ErrSubscriberClosed: Close on a closed subscriber
//
// Subscribing to a closed broadcaster returns a subscriber whose channel is
// already closed.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use across multiple goroutines.
// MemoryBroadcaster serializes broadcasts, so every subscriber observes messages
// in the same order. Stats reads take a shared lock.
package broadcast
