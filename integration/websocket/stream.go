package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/dmitrymomot/dispatcher/core/dispatcher"
	"github.com/dmitrymomot/dispatcher/core/logger"
)

// Stream returns a handler that writes every event of obs to the client.
// Client frames are read and discarded.
func Stream[S any](obs dispatcher.Observable[S], opts ...Option) http.Handler {
	if obs == nil {
		panic("websocket: nil Observable")
	}
	cfg := newConfig(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serve[S](w, r, cfg, obs, nil)
	})
}

// Bridge returns a handler that streams the events of d to the client and
// publishes every value the client sends through d's write endpoint.
func Bridge[S any](d dispatcher.Dispatchable[S], opts ...Option) http.Handler {
	if d == nil {
		panic("websocket: nil Dispatchable")
	}
	cfg := newConfig(opts)
	obs, in := d.Observable(), d.Observer()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, cfg, obs, in)
	})
}

type conn struct {
	ws  *gws.Conn
	cfg *config
	mu  sync.Mutex
}

func (c *conn) write(msgType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.writeTimeout))
	return c.ws.WriteMessage(msgType, data)
}

func serve[S any](w http.ResponseWriter, r *http.Request, cfg *config, obs dispatcher.Observable[S], in dispatcher.Observer[S]) {
	log := cfg.logger.With(logger.Component("websocket"))

	ws, err := cfg.upgrader.Upgrade(w, r, cfg.responseHeader)
	if err != nil {
		// The upgrader has already replied with an HTTP error.
		log.WarnContext(r.Context(), "upgrade failed", logger.Error(errors.Join(ErrUpgradeFailed, err)))
		return
	}
	c := &conn{ws: ws, cfg: cfg}
	defer func() { _ = ws.Close() }()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub, err := obs.Subscribe(ctx, dispatcher.ObserverFunc[S](func(ctx context.Context, evt dispatcher.Event[S]) error {
		data, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		if err := c.write(gws.TextMessage, data); err != nil {
			cancel()
			return err
		}
		if evt.IsTerminal() {
			msg := gws.FormatCloseMessage(gws.CloseNormalClosure, evt.Kind.String())
			_ = c.write(gws.CloseMessage, msg)
		}
		return nil
	}))
	if err != nil {
		log.WarnContext(ctx, "subscribe failed", logger.Error(err))
		_ = c.write(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseGoingAway, "channel closed"))
		return
	}
	log = log.With(logger.SubscriptionID(sub.ID()))
	log.DebugContext(ctx, "client connected")

	// Unblocks the read loop once the subscription ends server-side.
	go func() {
		select {
		case <-sub.Done():
			_ = ws.SetReadDeadline(time.Now().Add(cfg.closeGrace))
		case <-ctx.Done():
		}
	}()

	readLoop(ctx, ws, in, log)

	cancel()
	_ = sub.Unsubscribe()
	<-sub.Done()
	log.DebugContext(r.Context(), "client disconnected")
}

func readLoop[S any](ctx context.Context, ws *gws.Conn, in dispatcher.Observer[S], log *slog.Logger) {
	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if in == nil {
			continue
		}
		if msgType != gws.TextMessage && msgType != gws.BinaryMessage {
			continue
		}

		var v S
		if err := json.Unmarshal(data, &v); err != nil {
			log.WarnContext(ctx, "skipping client frame", logger.Error(errors.Join(ErrInvalidFrame, err)))
			continue
		}
		if err := in.On(ctx, dispatcher.Next(v)); err != nil {
			if errors.Is(err, dispatcher.ErrDispatcherClosed) || ctx.Err() != nil {
				return
			}
			log.WarnContext(ctx, "publish failed", logger.Error(err))
		}
	}
}
