// Package action implements the "Go to Mars" host action: it exports the
// visible tracks of the host model as a molecule archive and saves it through
// the configured storage backend.
package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/marsarchive/trackmate-export/internal/config"
	"github.com/marsarchive/trackmate-export/internal/dispatcher"
	"github.com/marsarchive/trackmate-export/internal/exporter"
	"github.com/marsarchive/trackmate-export/internal/host"
	"github.com/marsarchive/trackmate-export/internal/influx"
	"github.com/marsarchive/trackmate-export/internal/storage"
	"github.com/marsarchive/trackmate-export/pkg/core"
)

// Descriptor is what the host shows in its action menu
type Descriptor struct {
	Key  string
	Name string
	Info string
}

// Info describes the export action
var Info = Descriptor{
	Key:  "EXPORT_TRACKS_TO_MARS",
	Name: "Go to Mars",
	Info: "<html>Export the visible tracks to a Mars MoleculeArchive. " +
		"Each track becomes one molecule record holding a table of its spots. " +
		"Tracks whose spots carry outlines are exported as objects with one shape per frame.</html>",
}

// Input and output parameter names used through the dispatcher
const (
	InputModel    = "model"
	OutputArchive = "archive"
)

// Telemetry records the outcome of each export run
type Telemetry interface {
	RecordExport(stats influx.ExportStats) error
}

// ContextSetter attaches attributes to every subsequent log record
type ContextSetter interface {
	SetContext(attrs ...slog.Attr)
}

// Dependencies holds the collaborators of the action. Runner, Telemetry and
// Context are optional.
type Dependencies struct {
	Backend     storage.Backend
	BackendType string
	OutputDir   string
	Export      config.ExportConfig
	Logger      host.Logger
	Prompt      host.SavePrompt
	Runner      host.CommandRunner
	Telemetry   Telemetry
	Context     ContextSetter
}

// Action exports host tracks
type Action struct {
	deps     Dependencies
	exporter *exporter.Exporter
}

// New validates the export settings and creates the action
func New(deps Dependencies) (*Action, error) {
	if deps.Backend == nil {
		return nil, errors.New("action: storage backend is required")
	}
	if deps.Logger == nil {
		return nil, errors.New("action: host logger is required")
	}
	if deps.Prompt == nil {
		deps.Prompt = host.FixedPrompt{}
	}

	policy, err := exporter.ParseShapePolicy(deps.Export.ShapePolicy)
	if err != nil {
		return nil, err
	}

	return &Action{
		deps: deps,
		exporter: exporter.New(exporter.Options{
			Workers:     deps.Export.Workers,
			ShapePolicy: policy,
			Comments:    deps.Export.Comments,
		}, deps.Logger),
	}, nil
}

// Execute runs the export and discards the archive
func (a *Action) Execute(ctx context.Context, model host.Model) error {
	_, err := a.Run(ctx, model)
	return err
}

// Run exports the visible tracks of model. A nil archive with a nil error
// means there was nothing to do or the user cancelled the save.
func (a *Action) Run(ctx context.Context, model host.Model) (*core.Archive, error) {
	log := a.deps.Logger
	start := time.Now()

	log.Log("Exporting tracks to Mars MoleculeArchive.")

	tracks := model.Tracks(true)
	stats := influx.ExportStats{
		Backend: a.deps.BackendType,
		Tracks:  len(tracks),
		Spots:   countSpots(tracks),
	}
	if stats.Spots == 0 {
		log.Log("No visible track found. Aborting.")
		return nil, nil
	}

	run := model.Run()
	if run.Provenance == "" {
		run.Provenance = a.deps.Export.Provenance
	}

	log.Log("  building archive.")
	archive, err := a.exporter.Export(ctx, tracks, run)
	if errors.Is(err, exporter.ErrNothingToExport) {
		log.Log("No visible track found. Aborting.")
		return nil, nil
	}
	if err != nil {
		log.Error(fmt.Sprintf("Could not build archive: %v", err))
		a.record(stats, start, err)
		return nil, err
	}

	stats.ArchiveUID = archive.Properties.UID
	stats.Kind = archive.Properties.Kind
	stats.Records = archive.Len()
	if a.deps.Context != nil {
		a.deps.Context.SetContext(
			slog.String("archive", archive.Properties.UID),
			slog.String("kind", archive.Properties.Kind),
		)
	}

	target := "storage backend " + a.deps.BackendType
	if fb, ok := a.deps.Backend.(storage.FileBacked); ok {
		suggested := a.defaultPath(run.Image, fb.Extension())
		path, err := a.deps.Prompt.AskForFileForSaving(suggested)
		if errors.Is(err, host.ErrCancelled) {
			return nil, nil
		}
		if err != nil {
			log.Error(fmt.Sprintf("Could not choose a file for %s: %v", suggested, err))
			a.record(stats, start, err)
			return nil, err
		}
		fb.SetOutputPath(path)
		target = path
		log.Log("  Writing to file.")
	}

	if err := a.deps.Backend.SaveArchive(ctx, archive); err != nil {
		log.Error(fmt.Sprintf("Trouble writing to %s:\n%s", target, err))
		a.record(stats, start, err)
		return nil, fmt.Errorf("saving archive: %w", err)
	}

	if err := a.publish(ctx, archive); err != nil {
		log.Error(fmt.Sprintf("Could not publish archive: %v", err))
		a.record(stats, start, err)
		return nil, err
	}

	a.record(stats, start, nil)
	log.Log("Done.")
	return archive, nil
}

func (a *Action) defaultPath(info *core.ImageInfo, ext string) string {
	if a.deps.OutputDir == "" {
		return exporter.DefaultPath(info, a.deps.Export.FileSuffix, ext)
	}
	var name string
	if info != nil {
		name = info.FileName
	}
	return filepath.Join(a.deps.OutputDir, exporter.DefaultFileName(name, a.deps.Export.FileSuffix, ext))
}

// publish hands the archive to the configured downstream command
func (a *Action) publish(ctx context.Context, archive *core.Archive) error {
	cmd := a.deps.Export.PublishCommand
	if a.deps.Runner == nil || cmd == "" {
		return nil
	}
	if _, err := a.deps.Runner.Run(ctx, cmd, map[string]any{OutputArchive: archive}); err != nil {
		return fmt.Errorf("running %s: %w", cmd, err)
	}
	return nil
}

func (a *Action) record(stats influx.ExportStats, start time.Time, err error) {
	if a.deps.Telemetry == nil {
		return
	}
	stats.Duration = time.Since(start)
	stats.Err = err
	stats.At = time.Now()
	if werr := a.deps.Telemetry.RecordExport(stats); werr != nil {
		slog.Warn("failed to record export telemetry", "error", werr)
	}
}

// Register binds the action to its key. The event must carry the host model
// under InputModel; the exported archive is returned under OutputArchive.
func (a *Action) Register(d *dispatcher.Dispatcher) {
	d.Register(Info.Key, func(ctx context.Context, e dispatcher.Event) (any, error) {
		model, ok := e.Inputs[InputModel].(host.Model)
		if !ok {
			return nil, fmt.Errorf("%s: input %q is not a track model", Info.Key, InputModel)
		}
		archive, err := a.Run(ctx, model)
		if err != nil {
			return nil, err
		}
		if archive == nil {
			return nil, nil
		}
		return map[string]any{OutputArchive: archive}, nil
	}, dispatcher.Logged())
}

func countSpots(tracks []core.Track) int {
	n := 0
	for _, t := range tracks {
		n += len(t.Spots)
	}
	return n
}
