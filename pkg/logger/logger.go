package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/ghstore/pkg/phone"
)

// New creates a JSON logger on stdout tagged with the service name.
func New(serviceName, level string) *slog.Logger {
	return NewWithWriter(serviceName, level, os.Stdout)
}

// NewWithWriter creates a JSON logger writing to w. Source locations are
// only recorded at debug level.
func NewWithWriter(serviceName, level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl, AddSource: lvl <= slog.LevelDebug}
	return slog.New(slog.NewJSONHandler(w, opts)).With(slog.String("service", serviceName))
}

// ParseLevel maps a config string to a slog level. Unknown values fall back
// to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Phone returns an attribute carrying a masked phone number. Raw numbers are
// personal data and must never reach the logs.
func Phone(key, raw string) slog.Attr {
	return slog.String(key, phone.Mask(raw))
}

type ctxKey struct{}

type loggerCtxKey struct{}

// requestInfo is the per-request identity carried in the context. It is
// copied on every change so parent contexts never observe updates.
type requestInfo struct {
	correlationID string
	userID        string
}

func infoFrom(ctx context.Context) requestInfo {
	info, _ := ctx.Value(ctxKey{}).(requestInfo)
	return info
}

// WithCorrelationID returns a context carrying the correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	info := infoFrom(ctx)
	info.correlationID = id
	return context.WithValue(ctx, ctxKey{}, info)
}

// CorrelationIDFromContext returns the correlation ID, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return infoFrom(ctx).correlationID
}

// WithUserID returns a context carrying the shopper's user ID.
func WithUserID(ctx context.Context, id string) context.Context {
	info := infoFrom(ctx)
	info.userID = id
	return context.WithValue(ctx, ctxKey{}, info)
}

// UserIDFromContext returns the user ID, or "".
func UserIDFromContext(ctx context.Context) string {
	return infoFrom(ctx).userID
}

// NewContext stores a request-scoped logger in ctx.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, l)
}

// FromContext returns the logger stored by NewContext, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// ContextAttrs returns the request identity and trace attributes found in
// ctx. Empty values are skipped.
func ContextAttrs(ctx context.Context) []any {
	info := infoFrom(ctx)
	var attrs []any
	if info.correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", info.correlationID))
	}
	if info.userID != "" {
		attrs = append(attrs, slog.String("user_id", info.userID))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return attrs
}

// WithContext returns l annotated with ContextAttrs(ctx).
func WithContext(ctx context.Context, l *slog.Logger) *slog.Logger {
	attrs := ContextAttrs(ctx)
	if len(attrs) == 0 {
		return l
	}
	return l.With(attrs...)
}
