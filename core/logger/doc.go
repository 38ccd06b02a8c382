// Package logger provides structured logging utilities built on Go's standard slog package.
//
// It offers a small factory with environment presets and a set of attribute
// helpers for the values that show up in dispatcher logs: channel names,
// subscription IDs, event kinds, errors and timings.
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/dispatcher/core/logger"
//
//	// Development: text format, debug level
//	log := logger.New(logger.WithDevelopment("dispatchctl"))
//
//	// Production: JSON format, info level
//	log := logger.New(logger.WithProduction("dispatchctl"))
//
//	log.Info("subscription started",
//		logger.Channel("ui.state"),
//		logger.SubscriptionID(sub.ID()),
//	)
//
// # Nil Safety
//
// Attribute helpers return an empty slog.Attr for nil or empty input, which
// slog drops on output. This allows calls like log.Error("publish failed",
// logger.Error(err)) without explicit nil checks.
package logger
