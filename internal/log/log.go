// Package log is the process-wide structured logger. Lines are logfmt with
// ts, level and msg keys, and carry any attributes attached to the context
// through WithAttrs.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

var (
	levelVar = new(slog.LevelVar)
	current  atomic.Pointer[slog.Logger]
)

func init() {
	levelVar.Set(slog.LevelInfo)
	current.Store(NewWriterLogger(os.Stdout))
}

// NewWriterLogger builds a logger in the process format that writes to w.
// It shares the level set through SetLevel.
func NewWriterLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       levelVar,
		ReplaceAttr: renameAttr,
	}))
}

func renameAttr(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "ts"
		if attr.Value.Kind() == slog.KindTime {
			attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
		}
	case slog.LevelKey:
		attr.Key = "level"
		attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
	case slog.MessageKey:
		attr.Key = "msg"
	}
	return attr
}

// ParseLevel maps "debug", "info", "warn" (or "warning") and "error" to a
// slog level. An empty value means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
}

// SetLevel updates the minimum level accepted by every logger built here.
func SetLevel(level string) error {
	l, err := ParseLevel(level)
	if err != nil {
		return err
	}
	levelVar.Set(l)
	return nil
}

// Logger returns the logger currently in use.
func Logger() *slog.Logger {
	return current.Load()
}

// ReplaceLogger installs l as the process logger.
func ReplaceLogger(l *slog.Logger) {
	if l == nil {
		panic("log: nil logger provided")
	}
	current.Store(l)
}

type attrsKey struct{}

// WithAttrs returns a context whose log lines carry the supplied key/value
// pairs, such as a request id or the composition being edited.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	ctx = orBackground(ctx)
	existing, _ := ctx.Value(attrsKey{}).([]any)
	merged := make([]any, 0, len(existing)+len(args))
	merged = append(merged, existing...)
	merged = append(merged, args...)
	return context.WithValue(ctx, attrsKey{}, merged)
}

func Debug(ctx context.Context, msg string, args ...any) { emit(ctx, slog.LevelDebug, msg, args) }
func Info(ctx context.Context, msg string, args ...any) { emit(ctx, slog.LevelInfo, msg, args) }
func Warn(ctx context.Context, msg string, args ...any) { emit(ctx, slog.LevelWarn, msg, args) }
func Error(ctx context.Context, msg string, args ...any) { emit(ctx, slog.LevelError, msg, args) }

func emit(ctx context.Context, level slog.Level, msg string, args []any) {
	ctx = orBackground(ctx)
	l := Logger()
	if !l.Enabled(ctx, level) {
		return
	}
	if scoped, _ := ctx.Value(attrsKey{}).([]any); len(scoped) > 0 {
		args = append(append(make([]any, 0, len(scoped)+len(args)), scoped...), args...)
	}
	l.Log(ctx, level, msg, args...)
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
