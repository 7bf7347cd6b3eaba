package host

import (
	"log/slog"
	"strings"
	"sync"
)

// SlogLogger implements Logger on top of slog. Progress is reported at debug
// level and clamped so it never moves backwards within one status phase.
type SlogLogger struct {
	logger *slog.Logger

	mu       sync.Mutex
	status   string
	progress float64
}

// NewSlogLogger wraps the given logger. A nil logger uses slog.Default.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// Log writes an informational message
func (l *SlogLogger) Log(msg string) {
	l.logger.Info(strings.TrimSpace(msg))
}

// Error writes an error message
func (l *SlogLogger) Error(msg string) {
	l.logger.Error(strings.TrimSpace(msg))
}

// SetStatus records the current status line and resets progress
func (l *SlogLogger) SetStatus(status string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.status = status
	l.progress = 0
	if status != "" {
		l.logger.Info("status", "status", status)
	}
}

// SetProgress records the completed fraction of the current phase
func (l *SlogLogger) SetProgress(fraction float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if fraction < l.progress {
		return
	}
	l.progress = fraction
	l.logger.Debug("progress", "status", l.status, "fraction", fraction)
}

// Progress returns the last reported fraction
func (l *SlogLogger) Progress() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.progress
}
