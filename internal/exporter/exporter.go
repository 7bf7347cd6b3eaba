// Package exporter converts the host's tracks into a molecule archive: one
// record per track holding a frame-sorted table, plus run metadata and an
// optional structural description of the source image.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marsarchive/trackmate-export/internal/geo"
	"github.com/marsarchive/trackmate-export/internal/host"
	"github.com/marsarchive/trackmate-export/pkg/core"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNothingToExport is returned when there are no non-empty tracks.
	// Callers treat it as a normal early exit.
	ErrNothingToExport = errors.New("nothing to export")

	// ErrMissingRunMetadata is returned when required run settings are absent
	ErrMissingRunMetadata = errors.New("missing required run metadata")

	// ErrMixedShapes is returned under ShapePolicyReject for mixed input
	ErrMixedShapes = errors.New("spots mix outlines and plain points")
)

// Options configures an Exporter
type Options struct {
	// Workers is the number of tracks processed concurrently; values below 2
	// process tracks sequentially.
	Workers     int
	ShapePolicy ShapePolicy
	Comments    string
}

// Exporter builds archives from host tracks
type Exporter struct {
	opts   Options
	log    host.Logger
	newUID func() string
	now    func() time.Time
}

// New creates an Exporter reporting progress to log
func New(opts Options, log host.Logger) *Exporter {
	if opts.ShapePolicy == "" {
		opts.ShapePolicy = ShapePolicyReject
	}
	return &Exporter{
		opts:   opts,
		log:    log,
		newUID: uuid.NewString,
		now:    time.Now,
	}
}

// ValidateRun checks the run settings every export depends on
func ValidateRun(run core.RunContext) error {
	if run.SpaceUnits == "" {
		return fmt.Errorf("%w: space units", ErrMissingRunMetadata)
	}
	if math.IsNaN(run.FrameInterval) || run.FrameInterval <= 0 {
		return fmt.Errorf("%w: frame interval", ErrMissingRunMetadata)
	}
	return nil
}

// Export builds an archive with one record per non-empty track, in input order.
func (e *Exporter) Export(ctx context.Context, tracks []core.Track, run core.RunContext) (*core.Archive, error) {
	nonEmpty := make([]core.Track, 0, len(tracks))
	for _, t := range tracks {
		if len(t.Spots) > 0 {
			nonEmpty = append(nonEmpty, t)
		}
	}
	if len(nonEmpty) == 0 {
		return nil, ErrNothingToExport
	}

	if err := ValidateRun(run); err != nil {
		return nil, err
	}

	schema, err := SelectSchema(nonEmpty, e.opts.ShapePolicy)
	if err != nil {
		return nil, err
	}

	generatedAt := run.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = e.now()
	}

	e.log.SetStatus("Marshalling...")
	records, err := e.buildRecords(ctx, nonEmpty, newLayout(run.Catalog), schema)
	if err != nil {
		e.log.SetStatus("")
		return nil, err
	}

	archive := core.NewArchive(core.ArchiveProperties{
		UID:           e.newUID(),
		GeneratedAt:   generatedAt,
		SpaceUnits:    run.SpaceUnits,
		FrameInterval: run.FrameInterval,
		TimeUnits:     run.TimeUnits,
		Kind:          schema.Label(),
		Provenance:    run.Provenance,
		Comments:      e.opts.Comments,
	})
	for _, r := range records {
		if err := archive.Add(r); err != nil {
			e.log.SetStatus("")
			return nil, err
		}
	}

	if run.Image != nil {
		archive.Image = BuildImageMetadata(run.Image, run.FrameInterval, e.newUID())
	}

	e.log.SetStatus("")
	e.log.SetProgress(1)
	return archive, nil
}

// buildRecords converts every track, optionally on a bounded worker pool.
// Results are stored by track index so record order follows input order.
func (e *Exporter) buildRecords(ctx context.Context, tracks []core.Track, l layout, schema Schema) ([]*core.Record, error) {
	records := make([]*core.Record, len(tracks))
	total := float64(len(tracks))

	var mu sync.Mutex
	done := 0
	advance := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		e.log.SetProgress(float64(done) / total)
	}

	g, gctx := errgroup.WithContext(ctx)
	workers := e.opts.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i := range tracks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := e.buildRecord(tracks[i], l, schema.KindFor(tracks[i]))
			if err != nil {
				return err
			}
			records[i] = r
			advance()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// buildRecord converts one track into a record of the given kind
func (e *Exporter) buildRecord(t core.Track, l layout, kind core.RecordKind) (*core.Record, error) {
	sorted := sortedSpots(t.Spots)

	r := &core.Record{
		UID:   e.newUID(),
		Kind:  kind,
		Table: l.table(sorted),
		Parameters: map[string]float64{
			core.ParamTrackID:       float64(t.ID),
			core.ParamNumberOfSpots: float64(len(sorted)),
		},
		Notes: t.Name,
	}

	if kind != core.KindShape {
		return r, nil
	}

	r.Shapes = make(map[int]core.ShapePosition, len(sorted))
	for _, spot := range sorted {
		if !spot.HasShape() {
			continue
		}
		outline, err := geo.Outline(spot.Position, spot.Shape)
		if errors.Is(err, geo.ErrInvalidContour) {
			e.log.Log(fmt.Sprintf("  skipping outline of spot %d in track %d: %v", spot.ID, t.ID, err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("track %d spot %d: %w", t.ID, spot.ID, err)
		}
		r.Shapes[spot.Frame-1] = outline
	}
	return r, nil
}
