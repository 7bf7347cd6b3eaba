// Package host defines what the exporter needs from the tracking application
// that invokes it: the track model, a string logging sink, a save prompt and a
// command runner. Implementations live next to the contracts.
package host

import (
	"context"
	"errors"

	"github.com/marsarchive/trackmate-export/pkg/core"
)

// ErrCancelled is returned by a SavePrompt when the user dismisses it
var ErrCancelled = errors.New("save cancelled")

// Model exposes the host's computed tracks and run settings
type Model interface {
	// Tracks returns the host's tracks, optionally only those marked visible
	Tracks(visibleOnly bool) []core.Track
	// Run returns the run-level settings of the current session
	Run() core.RunContext
}

// Logger is the host's logging and status surface
type Logger interface {
	Log(msg string)
	Error(msg string)
	SetStatus(status string)
	SetProgress(fraction float64)
}

// SavePrompt confirms or overrides a destination file before writing
type SavePrompt interface {
	AskForFileForSaving(suggested string) (string, error)
}

// CommandRunner runs a named host operation synchronously and returns its outputs
type CommandRunner interface {
	Run(ctx context.Context, name string, inputs map[string]any) (map[string]any, error)
}
