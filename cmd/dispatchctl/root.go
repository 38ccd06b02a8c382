package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/dispatcher/core/config"
	"github.com/dmitrymomot/dispatcher/core/logger"
	"github.com/dmitrymomot/dispatcher/integration/database/redis"
)

// Config is the environment configuration of the CLI.
type Config struct {
	Redis     redis.Config
	KeyPrefix string        `env:"DISPATCHCTL_KEY_PREFIX" envDefault:"dispatch"`
	ReplayTTL time.Duration `env:"DISPATCHCTL_REPLAY_TTL"`
}

type globalFlags struct {
	redisURL  string
	keyPrefix string
	verbose   bool
}

type app struct {
	flags globalFlags
	cfg   Config
	log   *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "dispatchctl",
		Short: "Publish to and watch dispatcher channels over Redis",
		Long: `dispatchctl talks to dispatcher channels shared through Redis.

Values are raw JSON documents. A channel keeps its latest value, so a
watcher started after a publish still sees it.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.redisURL, "redis-url", "", "Redis connection URL (overrides REDIS_URL)")
	pf.StringVar(&a.flags.keyPrefix, "prefix", "", "Redis key prefix (overrides DISPATCHCTL_KEY_PREFIX)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newPublishCommand(a), newWatchCommand(a), newServeCommand(a))
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.Load(&a.cfg); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if a.flags.redisURL != "" {
		a.cfg.Redis.ConnectionURL = a.flags.redisURL
	}
	if a.flags.keyPrefix != "" {
		a.cfg.KeyPrefix = a.flags.keyPrefix
	}

	level := slog.LevelWarn
	if a.flags.verbose {
		level = slog.LevelDebug
	}
	a.log = logger.New(
		logger.WithOutput(cmd.ErrOrStderr()),
		logger.WithLevel(level),
		logger.WithAttr(logger.Component("dispatchctl")),
	)
	return nil
}

func (a *app) connect(ctx context.Context) (*redisConn, error) {
	client, err := redis.Connect(ctx, a.cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	a.log.DebugContext(ctx, "connected to redis")
	return &redisConn{client: client, app: a}, nil
}
