package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/dispatcher/core/dispatcher"
	"github.com/dmitrymomot/dispatcher/core/logger"
)

func newPublishCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <channel> <json>",
		Short: "Publish a JSON value to a channel",
		Example: `  dispatchctl publish visibility '{"hidden":true}'
  dispatchctl publish counter 42`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, payload := args[0], []byte(args[1])
			if !json.Valid(payload) {
				return fmt.Errorf("%w: %q", ErrInvalidJSON, args[1])
			}

			ctx := cmd.Context()
			conn, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			in := dispatcher.NewObserverDispatcher[json.RawMessage](conn.channel(name))
			if err := in.Dispatch(ctx, json.RawMessage(payload)); err != nil {
				return fmt.Errorf("publishing to %s: %w", name, err)
			}

			a.log.DebugContext(ctx, "value published", logger.Channel(name))
			fmt.Fprintf(cmd.OutOrStdout(), "published to %s\n", name)
			return nil
		},
	}
}
