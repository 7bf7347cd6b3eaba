// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/marsarchive/trackmate-export/internal/model"
	v1 "github.com/marsarchive/trackmate-export/internal/storage/memory/export/v1"
	"github.com/marsarchive/trackmate-export/pkg/core"
	"gorm.io/datatypes"
)

func toJSON(v any) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// tableToJSON stores a table column-wise with the archive's cell encoding
func tableToJSON(t core.Table) (datatypes.JSON, error) {
	cols := make([]v1.Column, len(t.Columns))
	for i, col := range t.Columns {
		typ := v1.ColumnTypeReal
		if col.Type == core.ColumnInt {
			typ = v1.ColumnTypeInteger
		}
		values := make([]any, len(t.Rows))
		for j, row := range t.Rows {
			values[j] = v1.Cell(row[i], col.Type)
		}
		cols[i] = v1.Column{Title: col.Name, Type: typ, Values: values}
	}
	return toJSON(cols)
}

// parametersToJSON keeps non-finite values representable
func parametersToJSON(params map[string]float64) (datatypes.JSON, error) {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v1.Cell(v, core.ColumnReal)
	}
	return toJSON(out)
}

// CoreToMoleculeRecord converts a core.Record to a GORM model.MoleculeRecord.
// position is the record's index within its archive.
func CoreToMoleculeRecord(r *core.Record, position int) (model.MoleculeRecord, error) {
	table, err := tableToJSON(r.Table)
	if err != nil {
		return model.MoleculeRecord{}, fmt.Errorf("table: %w", err)
	}
	params, err := parametersToJSON(r.Parameters)
	if err != nil {
		return model.MoleculeRecord{}, fmt.Errorf("parameters: %w", err)
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := toJSON(tags)
	if err != nil {
		return model.MoleculeRecord{}, fmt.Errorf("tags: %w", err)
	}

	m := model.MoleculeRecord{
		Position:     position,
		UID:          r.UID,
		Kind:         r.Kind.String(),
		TrackID:      int(r.Parameters[core.ParamTrackID]),
		NumberOfRows: len(r.Table.Rows),
		Notes:        r.Notes,
		Tags:         tagsJSON,
		Parameters:   params,
		Table:        table,
		Shapes:       datatypes.JSON("null"),
	}

	if r.Kind == core.KindShape {
		m.Shapes, err = toJSON(r.Shapes)
		if err != nil {
			return model.MoleculeRecord{}, fmt.Errorf("shapes: %w", err)
		}
	}
	return m, nil
}

// CoreToImageMetadata converts a core.ImageMetadata to a GORM model.ImageMetadata.
func CoreToImageMetadata(md *core.ImageMetadata) (model.ImageMetadata, error) {
	channels, err := toJSON(md.Channels)
	if err != nil {
		return model.ImageMetadata{}, err
	}
	planes, err := toJSON(md.Planes)
	if err != nil {
		return model.ImageMetadata{}, err
	}

	return model.ImageMetadata{
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
		Channels:        channels,
		Planes:          planes,
	}, nil
}

// CoreToArchiveRun converts a whole archive, records in insertion order.
func CoreToArchiveRun(a *core.Archive) (model.ArchiveRun, error) {
	props := a.Properties
	run := model.ArchiveRun{
		UID:             props.UID,
		GeneratedAt:     props.GeneratedAt,
		NumberOfRecords: props.NumberOfRecords,
		SpaceUnits:      props.SpaceUnits,
		FrameInterval:   props.FrameInterval,
		TimeUnits:       props.TimeUnits,
		Kind:            props.Kind,
		Provenance:      props.Provenance,
		Comments:        props.Comments,
	}

	if a.Image != nil {
		img, err := CoreToImageMetadata(a.Image)
		if err != nil {
			return model.ArchiveRun{}, fmt.Errorf("image metadata: %w", err)
		}
		run.Image = &img
	}

	records := a.Records()
	run.Records = make([]model.MoleculeRecord, 0, len(records))
	for i, r := range records {
		m, err := CoreToMoleculeRecord(r, i)
		if err != nil {
			return model.ArchiveRun{}, fmt.Errorf("record %s: %w", r.UID, err)
		}
		run.Records = append(run.Records, m)
	}
	return run, nil
}
