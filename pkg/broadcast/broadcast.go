package broadcast

import (
	"context"
	"fmt"
	"strings"
)

// Message wraps a broadcast payload.
type Message[T any] struct {
	Data T

	// Transient messages are delivered but never kept for replay.
	Transient bool
}

// Broadcaster sends messages to multiple subscribers.
type Broadcaster[T any] interface {
	// Broadcast delivers msg to every active subscriber.
	// Returns ErrBroadcasterClosed after Close.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Subscribe registers a new subscriber. The subscription is removed
	// when ctx is cancelled or the subscriber is closed.
	Subscribe(ctx context.Context) Subscriber[T]

	// Close closes every subscriber and rejects further broadcasts.
	Close() error
}

// Subscriber receives broadcast messages.
type Subscriber[T any] interface {
	// ID returns a unique subscriber identifier.
	ID() string

	// Receive returns the message channel. The channel is closed when the
	// subscriber is closed, its broadcaster is closed, or ctx is cancelled.
	Receive(ctx context.Context) <-chan Message[T]

	// Close unsubscribes. Safe to call multiple times.
	Close() error
}

// Stats describes broadcaster activity.
type Stats struct {
	Subscribers int   `json:"subscribers"`
	Published   int64 `json:"published"`
	Delivered   int64 `json:"delivered"`
	Dropped     int64 `json:"dropped"`
}

// ReplayPolicy controls whether new subscribers receive the latest message.
type ReplayPolicy int

const (
	// ReplayNone delivers only messages broadcast after subscription.
	ReplayNone ReplayPolicy = iota

	// ReplayWhileConnected caches the latest message while at least one
	// subscriber is connected. The cache is dropped when the last subscriber
	// leaves, and messages broadcast with no subscribers are not cached.
	ReplayWhileConnected

	// ReplayAlways caches the latest message for the broadcaster lifetime.
	ReplayAlways
)

// String returns the policy name as accepted by ParseReplayPolicy.
func (p ReplayPolicy) String() string {
	switch p {
	case ReplayNone:
		return "none"
	case ReplayWhileConnected:
		return "while_connected"
	case ReplayAlways:
		return "always"
	default:
		return fmt.Sprintf("ReplayPolicy(%d)", int(p))
	}
}

// ParseReplayPolicy parses "none", "while_connected" or "always".
func ParseReplayPolicy(s string) (ReplayPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return ReplayNone, nil
	case "while_connected", "while-connected", "latest":
		return ReplayWhileConnected, nil
	case "always":
		return ReplayAlways, nil
	default:
		return ReplayNone, fmt.Errorf("%w: %q", ErrUnknownReplayPolicy, s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so the policy can be
// loaded from environment variables.
func (p *ReplayPolicy) UnmarshalText(text []byte) error {
	v, err := ParseReplayPolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p ReplayPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
