package dispatcher

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is the kind of an Event.
type Kind uint8

const (
	// KindNext carries a state value.
	KindNext Kind = iota
	// KindError terminates the channel with an error.
	KindError
	// KindCompleted terminates the channel normally.
	KindCompleted
)

func (k Kind) String() string {
	switch k {
	case KindNext:
		return "next"
	case KindError:
		return "error"
	case KindCompleted:
		return "completed"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "next":
		return KindNext, nil
	case "error":
		return KindError, nil
	case "completed":
		return KindCompleted, nil
	default:
		return 0, fmt.Errorf("unknown event kind %q", s)
	}
}

// Event is a single notification on a dispatcher channel.
type Event[S any] struct {
	Kind  Kind
	Value S
	Err   error
}

// Next returns an event carrying v.
func Next[S any](v S) Event[S] {
	return Event[S]{Kind: KindNext, Value: v}
}

// Fail returns a terminal error event.
func Fail[S any](err error) Event[S] {
	return Event[S]{Kind: KindError, Err: err}
}

// Complete returns a terminal completion event.
func Complete[S any]() Event[S] {
	return Event[S]{Kind: KindCompleted}
}

// IsTerminal reports whether the event ends the channel.
func (e Event[S]) IsTerminal() bool {
	return e.Kind != KindNext
}

type wireEvent[S any] struct {
	Kind  string `json:"kind"`
	Value *S     `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// MarshalJSON encodes the event as {"kind":"next","value":...} or
// {"kind":"error","error":"..."}.
func (e Event[S]) MarshalJSON() ([]byte, error) {
	w := wireEvent[S]{Kind: e.Kind.String()}
	switch e.Kind {
	case KindNext:
		v := e.Value
		w.Value = &v
	case KindError:
		if e.Err != nil {
			w.Error = e.Err.Error()
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the format produced by MarshalJSON.
// Error events are restored with an opaque error carrying the message.
func (e *Event[S]) UnmarshalJSON(data []byte) error {
	var w wireEvent[S]
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind, err := parseKind(w.Kind)
	if err != nil {
		return err
	}

	*e = Event[S]{Kind: kind}
	switch kind {
	case KindNext:
		if w.Value != nil {
			e.Value = *w.Value
		}
	case KindError:
		e.Err = errors.New(w.Error)
	}
	return nil
}
