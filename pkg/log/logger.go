package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/YuminosukeSato/delaycast/pkg/errors"
)

// Backend names accepted by Setup.
const (
	BackendSlog    = "slog"
	BackendZerolog = "zerolog"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// Options configures Setup.
type Options struct {
	Level   string
	JSON    bool
	Backend string

	// File enables rotated file output in addition to stdout.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = NewSlogLogger(slog.Default())
)

// GetLogger returns the package default logger.
func GetLogger() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetLogger replaces the package default logger.
func SetLogger(l Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Setup builds the configured backend, installs it as the default and
// returns it together with a closer for the rotated log file (a no-op
// closer when no file is configured).
func Setup(opts Options) (Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		out = io.MultiWriter(os.Stdout, rotated)
		closer = rotated
	}

	var logger Logger
	switch strings.ToLower(opts.Backend) {
	case "", BackendSlog:
		sl := newSlog(out, level, opts.JSON)
		slog.SetDefault(sl)
		logger = NewSlogLogger(sl)
	case BackendZerolog:
		logger = NewZerologLogger(newZerolog(out, level, opts.JSON))
	default:
		return nil, nil, errors.Newf("invalid log backend: %s", opts.Backend)
	}

	SetLogger(logger)
	return logger, closer, nil
}

func newSlog(out io.Writer, level Level, json bool) *slog.Logger {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     slog.Level(level),
		// Replace attributes to convert to CloudLogging format.
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{Key: "severity", Value: attr.Value}
			case slog.MessageKey:
				attr = slog.Attr{Key: "message", Value: attr.Value}
			case slog.SourceKey:
				attr = slog.Attr{Key: "logging.googleapis.com/sourceLocation", Value: attr.Value}
			}
			return attr
		},
	}
	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(out, &ops)
	} else {
		handler = slog.NewTextHandler(out, &ops)
	}
	return slog.New(WrapByErrFmtHandler(handler))
}

func newZerolog(out io.Writer, level Level, json bool) zerolog.Logger {
	if !json {
		out = zerolog.ConsoleWriter{Out: out, NoColor: true}
	}
	return zerolog.New(out).Level(toZerologLevel(level)).With().Timestamp().Logger()
}

// ParseLevel converts a configuration string into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "info", "":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.Newf("invalid log level: %s", level)
	}
}

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
