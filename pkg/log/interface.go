// Package log provides the structured logging interface used by delaycast.
//
// The Logger interface is slog-compatible and deliberately small so the
// serving core does not depend on a concrete backend. Two backends are
// provided: one over log/slog (with cockroachdb/errors stack traces) and
// one over zerolog. Setup picks one from configuration and installs it as
// the package default.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ComponentKey, "predictor",
//	)
//	logger.Info("model trained",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 120,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key-value pairs. For Error, an error value may be
// passed as the first field; backends render it under the "error" key and
// attach its stack trace when one is available.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// splitLeadingError separates an error passed as the first field of an odd
// length field list.
func splitLeadingError(fields []any) (error, []any) {
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			return err, fields[1:]
		}
	}
	return nil, fields
}
