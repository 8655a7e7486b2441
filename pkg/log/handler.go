package log

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// errorKind is implemented by every pkg/errors kind.
type errorKind interface {
	error
	MarshalZerologObject(*zerolog.Event)
}

// errorDetails describes err for the error.type and stacktrace attributes.
// The type is the first pkg/errors kind in the chain, or the innermost cause
// when there is none. The stack comes from cockroachdb/errors safe details.
func errorDetails(err error) (typ, stacktrace string) {
	var kind errorKind
	if errors.As(err, &kind) {
		typ = fmt.Sprintf("%T", kind)
	} else {
		typ = fmt.Sprintf("%T", errors.UnwrapAll(err))
	}
	if safe := errors.GetSafeDetails(err).SafeDetails; len(safe) > 0 {
		stacktrace = safe[0]
	}
	return typ, stacktrace
}

// addErrorDetails is the zerolog counterpart of ErrFmtHandler.
func addErrorDetails(e *zerolog.Event, err error) *zerolog.Event {
	typ, stacktrace := errorDetails(err)
	e = e.Str(ErrorTypeKey, typ)
	if stacktrace != "" {
		e = e.Str(StacktraceAttrKey, stacktrace)
	}
	return e
}

// ErrFmtHandler is a slog handler that annotates the "error" attribute with
// the error type and the cockroachdb/errors stacktrace.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps handler with ErrFmtHandler.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{handler: handler}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var logged error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		logged, _ = attr.Value.Any().(error)
		return false
	})
	if logged != nil {
		typ, stacktrace := errorDetails(logged)
		r.AddAttrs(slog.String(ErrorTypeKey, typ))
		if stacktrace != "" {
			r.AddAttrs(slog.String(StacktraceAttrKey, stacktrace))
		}
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}
