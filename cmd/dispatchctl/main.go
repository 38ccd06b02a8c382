// Command dispatchctl works with Redis-backed dispatcher channels from the shell.
//
// Usage:
//
//	dispatchctl publish visibility '{"hidden":true}'
//	dispatchctl watch visibility --count 1
//	dispatchctl serve --addr :8080
//
// The Redis server is taken from REDIS_URL (or a .env file) and can be
// overridden with --redis-url.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
