package v1

import (
	"math"
	"time"

	"github.com/marsarchive/trackmate-export/pkg/core"
)

// Archive and record type names understood by the loader
const (
	TypeSingleMoleculeArchive = "SingleMoleculeArchive"
	TypeObjectArchive         = "ObjectArchive"
	TypeMolecule              = "SingleMolecule"
	TypeObject                = "MartianObject"
)

// Column type names
const (
	ColumnTypeInteger = "integer"
	ColumnTypeReal    = "real"
)

// Build creates an Export from an archive
func Build(a *core.Archive) Export {
	props := a.Properties
	export := Export{
		Type: archiveType(props.Kind),
		Properties: Properties{
			UID:                props.UID,
			GenerationDateTime: props.GeneratedAt.UTC().Format(time.RFC3339),
			NumberOfMolecules:  props.NumberOfRecords,
			SpaceUnits:         props.SpaceUnits,
			FrameInterval:      props.FrameInterval,
			TimeUnits:          props.TimeUnits,
			Kind:               props.Kind,
			From:               props.Provenance,
			Comments:           props.Comments,
		},
		ImageMetadata: make([]ImageMetadata, 0, 1),
	}

	imageUID := ""
	if a.Image != nil {
		export.ImageMetadata = append(export.ImageMetadata, buildImage(a.Image))
		imageUID = a.Image.UID
	}
	export.Properties.NumImageMetadata = len(export.ImageMetadata)

	records := a.Records()
	export.Molecules = make([]Molecule, 0, len(records))
	for _, r := range records {
		export.Molecules = append(export.Molecules, buildMolecule(r, imageUID))
	}

	return export
}

// shape and mixed runs both need the object flavour to hold outlines
func archiveType(kind string) string {
	if kind == core.KindPoint.String() {
		return TypeSingleMoleculeArchive
	}
	return TypeObjectArchive
}

func buildImage(md *core.ImageMetadata) ImageMetadata {
	out := ImageMetadata{
		UID:             md.UID,
		SourceDirectory: md.SourceDirectory,
		SourceName:      md.SourceName,
		SizeX:           md.SizeX,
		SizeY:           md.SizeY,
		SizeC:           md.SizeC,
		SizeZ:           md.SizeZ,
		SizeT:           md.SizeT,
		DimensionOrder:  md.DimensionOrder,
		PhysicalSizeX:   md.PhysicalSizeX,
		PhysicalSizeY:   md.PhysicalSizeY,
		PhysicalSizeZ:   md.PhysicalSizeZ,
		Channels:        make([]Channel, 0, len(md.Channels)),
		Planes:          make([]Plane, 0, len(md.Planes)),
	}
	for _, c := range md.Channels {
		out.Channels = append(out.Channels, Channel{Index: c.Index, Name: c.Name})
	}
	for _, p := range md.Planes {
		out.Planes = append(out.Planes, Plane{Z: p.Z, C: p.C, T: p.T, DeltaT: p.DeltaT})
	}
	return out
}

func buildMolecule(r *core.Record, imageUID string) Molecule {
	m := Molecule{
		UID:              r.UID,
		Type:             TypeMolecule,
		ImageMetadataUID: imageUID,
		Notes:            r.Notes,
		Tags:             make([]string, 0, len(r.Tags)),
		Parameters:       make(map[string]any, len(r.Parameters)),
		Table:            make([]Column, len(r.Table.Columns)),
	}
	m.Tags = append(m.Tags, r.Tags...)

	for k, v := range r.Parameters {
		m.Parameters[k] = Cell(v, core.ColumnReal)
	}

	for i, col := range r.Table.Columns {
		typ := ColumnTypeReal
		if col.Type == core.ColumnInt {
			typ = ColumnTypeInteger
		}
		values := make([]any, len(r.Table.Rows))
		for j, row := range r.Table.Rows {
			values[j] = Cell(row[i], col.Type)
		}
		m.Table[i] = Column{Title: col.Name, Type: typ, Values: values}
	}

	if r.Kind == core.KindShape {
		m.Type = TypeObject
		m.Shapes = make(map[int]Shape, len(r.Shapes))
		for frame, s := range r.Shapes {
			m.Shapes[frame] = Shape{X: s.X, Y: s.Y}
		}
	}

	return m
}

// Cell converts a table value into its JSON form. JSON has no literal for
// non-finite numbers, so they are written as the loader's marker strings.
func Cell(v float64, t core.ColumnType) any {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case t == core.ColumnInt:
		return int64(v)
	default:
		return v
	}
}
