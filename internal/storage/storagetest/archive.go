// Package storagetest builds small archives shared by backend tests.
package storagetest

import (
	"math"
	"time"

	"github.com/marsarchive/trackmate-export/pkg/core"
)

// GeneratedAt is the fixed timestamp of every sample archive
var GeneratedAt = time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)

// Table returns a three-row table with a missing QUALITY cell in the last row
func Table() core.Table {
	return core.Table{
		Columns: []core.Column{
			{Name: "T", Type: core.ColumnInt},
			{Name: "x", Type: core.ColumnReal},
			{Name: "y", Type: core.ColumnReal},
			{Name: "z", Type: core.ColumnReal},
			{Name: "QUALITY", Type: core.ColumnReal},
			{Name: "VISIBILITY", Type: core.ColumnInt},
		},
		Rows: [][]float64{
			{0, 1.5, 2.5, 0, 10, 1},
			{1, 1.75, 2.25, 0, 12.5, 1},
			{3, 2, 2, 0, math.NaN(), 0},
		},
	}
}

// PointArchive returns an archive of two point records and image metadata
func PointArchive() *core.Archive {
	a := core.NewArchive(core.ArchiveProperties{
		UID:           "archive-1",
		GeneratedAt:   GeneratedAt,
		SpaceUnits:    "µm",
		FrameInterval: 0.5,
		TimeUnits:     "s",
		Kind:          core.KindPoint.String(),
		Provenance:    "TrackMate v7.11.1",
		Comments:      "sample",
	})
	a.Image = &core.ImageMetadata{
		UID:             "image-1",
		SourceDirectory: "/data",
		SourceName:      "cells.tif",
		SizeX:           64,
		SizeY:           32,
		SizeC:           1,
		SizeZ:           1,
		SizeT:           2,
		DimensionOrder:  "XYZCT",
		PhysicalSizeX:   0.16,
		PhysicalSizeY:   0.16,
		PhysicalSizeZ:   1,
		Channels:        []core.Channel{{Index: 0, Name: "Channel 0"}},
		Planes: []core.Plane{
			{Z: 0, C: 0, T: 0, DeltaT: 0},
			{Z: 0, C: 0, T: 1, DeltaT: 0.5},
		},
	}
	for i, uid := range []string{"rec-1", "rec-2"} {
		_ = a.Add(&core.Record{
			UID:   uid,
			Kind:  core.KindPoint,
			Table: Table(),
			Parameters: map[string]float64{
				core.ParamTrackID:       float64(i),
				core.ParamNumberOfSpots: 3,
			},
			Notes: "Track_" + uid,
		})
	}
	return a
}

// ShapeArchive returns an archive holding one shape record without image metadata
func ShapeArchive() *core.Archive {
	a := core.NewArchive(core.ArchiveProperties{
		UID:           "archive-2",
		GeneratedAt:   GeneratedAt,
		SpaceUnits:    "pixel",
		FrameInterval: 1,
		TimeUnits:     "frame",
		Kind:          core.KindShape.String(),
	})
	_ = a.Add(&core.Record{
		UID:   "obj-1",
		Kind:  core.KindShape,
		Table: Table(),
		Parameters: map[string]float64{
			core.ParamTrackID:       7,
			core.ParamNumberOfSpots: 3,
		},
		Shapes: map[int]core.ShapePosition{
			0: {X: []float64{0, 1, 1}, Y: []float64{0, 0, 1}},
			3: {X: []float64{2, 3, 3}, Y: []float64{2, 2, 3}},
		},
	})
	return a
}
