package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/dispatcher/core/dispatcher"
	"github.com/dmitrymomot/dispatcher/core/logger"
)

func newWatchCommand(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch <channel>",
		Short: "Print values published to a channel",
		Long: `Watch subscribes to a channel and prints every value as one JSON line.
The latest value, when the channel has one, is printed first.
Stops on interrupt, when the channel terminates, or after --count values.`,
		Example: `  dispatchctl watch visibility
  dispatchctl watch visibility --count 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 0 {
				return fmt.Errorf("%w: --count must not be negative", ErrInvalidFlag)
			}
			name := args[0]

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			conn, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			out := cmd.OutOrStdout()
			var (
				seen    atomic.Int64
				failure atomic.Value
			)
			observer := dispatcher.ObserverFunc[json.RawMessage](func(_ context.Context, evt dispatcher.Event[json.RawMessage]) error {
				switch evt.Kind {
				case dispatcher.KindNext:
					fmt.Fprintln(out, string(evt.Value))
					if n := seen.Add(1); count > 0 && n >= int64(count) {
						cancel()
					}
				case dispatcher.KindError:
					if evt.Err != nil {
						failure.Store(evt.Err)
					}
				}
				return nil
			})

			source := dispatcher.NewObservableDispatcher[json.RawMessage](conn.channel(name))
			sub, err := source.Subscribe(ctx, observer)
			if err != nil {
				return fmt.Errorf("watching %s: %w", name, err)
			}
			a.log.DebugContext(ctx, "watching", logger.Channel(name), logger.SubscriptionID(sub.ID()))

			<-sub.Done()
			if err, ok := failure.Load().(error); ok {
				return fmt.Errorf("%w: %s: %w", ErrChannelFailed, name, err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "exit after this many values (0 means no limit)")
	return cmd
}
