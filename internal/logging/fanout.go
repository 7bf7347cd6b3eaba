package logging

import (
	"context"
	"errors"
	"log/slog"
)

// FanoutHandler delivers each record to every sink enabled for its level.
// A failing sink does not stop delivery to the others; Handle reports every
// sink error joined together.
type FanoutHandler struct {
	sinks []slog.Handler
}

// NewFanoutHandler builds a fan-out over the non-nil sinks
func NewFanoutHandler(sinks ...slog.Handler) *FanoutHandler {
	h := &FanoutHandler{sinks: make([]slog.Handler, 0, len(sinks))}
	for _, s := range sinks {
		if s != nil {
			h.sinks = append(h.sinks, s)
		}
	}
	return h
}

// Enabled reports whether at least one sink accepts level
func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range h.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range h.sinks {
		if !s.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.derive(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (h *FanoutHandler) derive(f func(slog.Handler) slog.Handler) *FanoutHandler {
	out := &FanoutHandler{sinks: make([]slog.Handler, len(h.sinks))}
	for i, s := range h.sinks {
		out.sinks[i] = f(s)
	}
	return out
}
