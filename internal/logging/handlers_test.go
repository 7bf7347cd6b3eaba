package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)

type failingSink struct {
	slog.Handler
	err error
}

func (f failingSink) Enabled(context.Context, slog.Level) bool { return true }

func (f failingSink) Handle(context.Context, slog.Record) error { return f.err }

func TestFanoutHandler_DeliversToEnabledSinks(t *testing.T) {
	var info, debug bytes.Buffer
	h := NewFanoutHandler(
		nil,
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	require.Len(t, h.sinks, 2)

	logger := slog.New(h)
	logger.Debug("progress", "fraction", 0.5)
	logger.Info("Done.")

	assert.NotContains(t, info.String(), "progress")
	assert.Contains(t, info.String(), "Done.")
	assert.Contains(t, debug.String(), "fraction=0.5")
	assert.Contains(t, debug.String(), "Done.")
}

func TestFanoutHandler_Enabled(t *testing.T) {
	ctx := context.Background()
	assert.False(t, NewFanoutHandler().Enabled(ctx, slog.LevelError))

	h := NewFanoutHandler(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}))
	assert.False(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelError))
}

func TestFanoutHandler_JoinsSinkErrors(t *testing.T) {
	var buf bytes.Buffer
	errA := errors.New("graylog unreachable")
	errB := errors.New("collector down")
	h := NewFanoutHandler(failingSink{err: errA}, slog.NewTextHandler(&buf, nil), failingSink{err: errB})

	err := h.Handle(context.Background(), slog.NewRecord(testTime, slog.LevelInfo, "saved", 0))
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Contains(t, buf.String(), "saved")
}

func TestFanoutHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	h := NewFanoutHandler(slog.NewTextHandler(&buf, nil))
	assert.Same(t, h, h.WithGroup(""))

	slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "storage")})).
		WithGroup("sqlite").Info("dumped", "path", "a.db")

	assert.Contains(t, buf.String(), "component=storage sqlite.path=a.db")
}

func TestContextHandler_KeepsRecordKeys(t *testing.T) {
	var buf bytes.Buffer
	archive := &ArchiveContext{}
	archive.Set(slog.String("archive", "a-1"), slog.String("kind", "point"))

	logger := slog.New(NewContextHandler(slog.NewTextHandler(&buf, nil), archive))
	logger.Info("merged", "archive", "a-2")

	out := buf.String()
	assert.Contains(t, out, "archive=a-2")
	assert.NotContains(t, out, "archive=a-1")
	assert.Contains(t, out, "kind=point")
}

func TestContextHandler_NilArchive(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), nil)

	slog.New(h.WithGroup("export")).Info("plain", "n", 1)
	assert.Contains(t, buf.String(), "export.n=1")
	assert.Same(t, h, h.WithGroup(""))
}

func TestArchiveContext_SetCopies(t *testing.T) {
	attrs := []slog.Attr{slog.String("archive", "a-1")}
	c := &ArchiveContext{}
	c.Set(attrs...)
	attrs[0] = slog.String("archive", "changed")

	require.Len(t, c.Attrs(), 1)
	assert.Equal(t, "a-1", c.Attrs()[0].Value.String())

	c.Set()
	assert.Empty(t, c.Attrs())
}
