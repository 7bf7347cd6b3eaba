package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const instrumentationName = "mars-export"

// console receives records when Setup is given no file; swapped by tests
var console io.Writer = os.Stdout

// SlogManager owns the process logger: one text sink (file or console), the
// optional OTel bridge, any extra sinks, and the archive context stamped on
// every record.
type SlogManager struct {
	logger      *slog.Logger
	logProvider *sdklog.LoggerProvider
	archive     *ArchiveContext
}

// NewSlogManager creates a manager; Logger falls back to slog.Default until
// Setup is called.
func NewSlogManager() *SlogManager {
	return &SlogManager{archive: &ArchiveContext{}}
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// utcTimestamps renders record times as RFC 3339 in UTC
func utcTimestamps(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	if t, ok := a.Value.Any().(time.Time); ok {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
	}
	return a
}

// Setup (re)builds the logger. Records go to file when it is non-nil and to
// the console otherwise. A nil provider disables the OTel bridge; extra sinks
// such as the Graylog handler receive every record too. The archive context
// survives repeated calls.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider, extra ...slog.Handler) {
	m.logProvider = provider

	out := file
	if out == nil {
		out = console
	}
	sinks := []slog.Handler{
		slog.NewTextHandler(out, &slog.HandlerOptions{
			Level:       parseLevel(level),
			ReplaceAttr: utcTimestamps,
		}),
	}
	if provider != nil {
		sinks = append(sinks, otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider)))
	}
	sinks = append(sinks, extra...)

	m.logger = slog.New(NewContextHandler(NewFanoutHandler(sinks...), m.archive))
	m.logger.Info("Logging initialized", "level", level)
}

// SetContext replaces the attributes attached to every record, typically the
// archive being exported. Call with no arguments to clear them.
func (m *SlogManager) SetContext(attrs ...slog.Attr) {
	m.archive.Set(attrs...)
}

// Logger returns the configured logger
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush pushes buffered OTel records to their exporters
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider == nil {
		return nil
	}
	return m.logProvider.ForceFlush(ctx)
}
