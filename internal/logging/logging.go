// Package logging builds the slog loggers used by the commands.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps debug, info, warn and error to a slog level. Anything else
// is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New returns a logger writing to w. format is "json" or "text".
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(&ComponentHandler{Handler: handler})
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(discardHandler)
}

// ComponentHandler moves a "component" attribute into a "[component] " message
// prefix. The attribute itself is not emitted.
type ComponentHandler struct {
	slog.Handler
	component string
}

func (h *ComponentHandler) WithGroup(name string) slog.Handler {
	return &ComponentHandler{Handler: h.Handler.WithGroup(name), component: h.component}
}

func (h *ComponentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	comp, rest := splitComponent(h.component, attrs)
	return &ComponentHandler{Handler: h.Handler.WithAttrs(rest), component: comp}
}

func (h *ComponentHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	comp, rest := splitComponent(h.component, attrs)
	if comp == "" && len(rest) == len(attrs) {
		return h.Handler.Handle(ctx, r)
	}

	msg := r.Message
	if comp != "" {
		msg = fmt.Sprintf("[%s] %s", comp, r.Message)
	}
	rec := slog.NewRecord(r.Time, r.Level, msg, r.PC)
	rec.AddAttrs(rest...)
	return h.Handler.Handle(ctx, rec)
}

// splitComponent returns the last component value (or current) and attrs
// without it.
func splitComponent(current string, attrs []slog.Attr) (string, []slog.Attr) {
	rest := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Key == "component" {
			current = a.Value.String()
			continue
		}
		rest = append(rest, a)
	}
	return current, rest
}
