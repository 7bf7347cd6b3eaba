package logging

import (
	"context"
	"log/slog"
	"sync"
)

// ArchiveContext holds the attributes describing the export in progress,
// such as the archive uid and kind. One instance is shared by every logger
// derived from a SlogManager.
type ArchiveContext struct {
	mu    sync.RWMutex
	attrs []slog.Attr
}

// Set replaces the current attributes. No arguments clears them.
func (c *ArchiveContext) Set(attrs ...slog.Attr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attrs = append([]slog.Attr(nil), attrs...)
}

// Attrs returns a snapshot of the current attributes
func (c *ArchiveContext) Attrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attrs
}

// ContextHandler stamps records with the current archive attributes. Keys
// the record already carries are left alone.
type ContextHandler struct {
	inner   slog.Handler
	archive *ArchiveContext
}

// NewContextHandler wraps inner. A nil archive adds nothing.
func NewContextHandler(inner slog.Handler, archive *ArchiveContext) *ContextHandler {
	return &ContextHandler{inner: inner, archive: archive}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.archive == nil {
		return h.inner.Handle(ctx, r)
	}
	attrs := h.archive.Attrs()
	if len(attrs) == 0 {
		return h.inner.Handle(ctx, r)
	}

	present := make(map[string]bool, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		present[a.Key] = true
		return true
	})
	for _, a := range attrs {
		if !present[a.Key] {
			r.AddAttrs(a)
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewContextHandler(h.inner.WithAttrs(attrs), h.archive)
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return NewContextHandler(h.inner.WithGroup(name), h.archive)
}
