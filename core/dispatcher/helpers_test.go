package dispatcher_test

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrymomot/dispatcher/core/dispatcher"
)

type Visibility struct {
	Enabled bool `json:"enabled"`
	Hidden  bool `json:"hidden"`
}

type recorder[S any] struct {
	events chan dispatcher.Event[S]
}

func newRecorder[S any]() *recorder[S] {
	return &recorder[S]{events: make(chan dispatcher.Event[S], 100)}
}

func (r *recorder[S]) On(_ context.Context, evt dispatcher.Event[S]) error {
	r.events <- evt
	return nil
}

func (r *recorder[S]) next(t *testing.T) dispatcher.Event[S] {
	t.Helper()
	select {
	case evt := <-r.events:
		return evt
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return dispatcher.Event[S]{}
}

func (r *recorder[S]) none(t *testing.T) {
	t.Helper()
	select {
	case evt := <-r.events:
		t.Fatalf("unexpected event: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitDone(t *testing.T, sub dispatcher.Subscription) {
	t.Helper()
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for subscription to finish")
	}
}
