package logging

import (
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGELFWriter struct {
	mu       sync.Mutex
	messages []*gelf.Message
	err      error
}

func (w *fakeGELFWriter) WriteMessage(m *gelf.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, m)
	return nil
}

func TestGELFHandler_Message(t *testing.T) {
	w := &fakeGELFWriter{}
	logger := slog.New(NewGELFHandler(w, slog.LevelInfo))

	logger.Warn("Trouble writing to out.json", "records", 3, "ok", false, "id", "x")

	require.Len(t, w.messages, 1)
	m := w.messages[0]
	assert.Equal(t, "1.1", m.Version)
	assert.Equal(t, "Trouble writing to out.json", m.Short)
	assert.Equal(t, int32(gelfWarning), m.Level)
	assert.Equal(t, int64(3), m.Extra["_records"])
	assert.Equal(t, false, m.Extra["_ok"])
	assert.Equal(t, "x", m.Extra["_record_id"])
	assert.NotZero(t, m.TimeUnix)
}

func TestGELFHandler_Levels(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  int32
	}{
		{slog.LevelDebug, gelfDebug},
		{slog.LevelInfo, gelfInfo},
		{slog.LevelWarn, gelfWarning},
		{slog.LevelError, gelfError},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, gelfLevel(tt.level))
		})
	}
}

func TestGELFHandler_FiltersBelowLevel(t *testing.T) {
	w := &fakeGELFWriter{}
	logger := slog.New(NewGELFHandler(w, slog.LevelInfo))

	logger.Debug("hidden")
	logger.Info("shown")

	require.Len(t, w.messages, 1)
	assert.Equal(t, "shown", w.messages[0].Short)
}

func TestGELFHandler_AttrsAndGroups(t *testing.T) {
	w := &fakeGELFWriter{}
	logger := slog.New(NewGELFHandler(w, slog.LevelInfo)).
		With("archive", "a-1").
		WithGroup("export").
		With("kind", "shape")

	logger.Info("done", "records", 2, slog.Group("image", "sizeT", 10))

	require.Len(t, w.messages, 1)
	extra := w.messages[0].Extra
	assert.Equal(t, "a-1", extra["_archive"])
	assert.Equal(t, "shape", extra["_export.kind"])
	assert.Equal(t, int64(2), extra["_export.records"])
	assert.Equal(t, int64(10), extra["_export.image.sizeT"])
}

func TestGELFHandler_InFanout(t *testing.T) {
	w := &fakeGELFWriter{err: errors.New("unreachable")}
	ok := &fakeGELFWriter{}
	logger := slog.New(NewFanoutHandler(NewGELFHandler(w, slog.LevelInfo), NewGELFHandler(ok, slog.LevelInfo)))

	logger.Info("still delivered")

	assert.Empty(t, w.messages)
	require.Len(t, ok.messages, 1)
}
