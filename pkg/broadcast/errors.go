package broadcast

import "errors"

var (
	// ErrBroadcasterClosed is returned when broadcasting on a closed broadcaster.
	ErrBroadcasterClosed = errors.New("broadcaster is closed")

	// ErrSubscriberClosed is returned when operating on a closed subscriber.
	ErrSubscriberClosed = errors.New("subscriber is closed")

	// ErrUnknownReplayPolicy is returned for unrecognized replay policy names.
	ErrUnknownReplayPolicy = errors.New("unknown replay policy")

	// ErrEncodeMessage is returned when a message cannot be serialized for a remote backend.
	ErrEncodeMessage = errors.New("failed to encode broadcast message")
)
