package convert

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/marsarchive/trackmate-export/internal/model"
	v1 "github.com/marsarchive/trackmate-export/internal/storage/memory/export/v1"
	"github.com/marsarchive/trackmate-export/pkg/core"
)

// cellValue decodes one stored cell
func cellValue(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		switch x {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
	case nil:
		return math.NaN(), nil
	}
	return 0, fmt.Errorf("unexpected cell value %v", v)
}

func tableFromJSON(data []byte) (core.Table, error) {
	var cols []v1.Column
	if err := json.Unmarshal(data, &cols); err != nil {
		return core.Table{}, err
	}

	t := core.Table{Columns: make([]core.Column, len(cols))}
	rows := 0
	for i, c := range cols {
		typ := core.ColumnReal
		if c.Type == v1.ColumnTypeInteger {
			typ = core.ColumnInt
		}
		t.Columns[i] = core.Column{Name: c.Title, Type: typ}
		if i == 0 {
			rows = len(c.Values)
		} else if len(c.Values) != rows {
			return core.Table{}, fmt.Errorf("column %s has %d values, want %d", c.Title, len(c.Values), rows)
		}
	}

	t.Rows = make([][]float64, rows)
	for r := range t.Rows {
		row := make([]float64, len(cols))
		for i, c := range cols {
			v, err := cellValue(c.Values[r])
			if err != nil {
				return core.Table{}, fmt.Errorf("column %s row %d: %w", c.Title, r, err)
			}
			row[i] = v
		}
		t.Rows[r] = row
	}
	return t, nil
}

func parametersFromJSON(data []byte) (map[string]float64, error) {
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		f, err := cellValue(v)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", k, err)
		}
		out[k] = f
	}
	return out, nil
}

// MoleculeRecordToCore converts a GORM model.MoleculeRecord to a core.Record.
func MoleculeRecordToCore(m model.MoleculeRecord) (*core.Record, error) {
	table, err := tableFromJSON(m.Table)
	if err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	params, err := parametersFromJSON(m.Parameters)
	if err != nil {
		return nil, err
	}

	r := &core.Record{
		UID:        m.UID,
		Kind:       core.KindPoint,
		Table:      table,
		Parameters: params,
		Notes:      m.Notes,
	}
	if len(m.Tags) > 0 {
		if err := json.Unmarshal(m.Tags, &r.Tags); err != nil {
			return nil, fmt.Errorf("tags: %w", err)
		}
	}

	if m.Kind == core.KindShape.String() {
		r.Kind = core.KindShape
		if err := json.Unmarshal(m.Shapes, &r.Shapes); err != nil {
			return nil, fmt.Errorf("shapes: %w", err)
		}
	}
	return r, nil
}

// ImageMetadataToCore converts a GORM model.ImageMetadata to a core.ImageMetadata.
func ImageMetadataToCore(m model.ImageMetadata) (*core.ImageMetadata, error) {
	md := &core.ImageMetadata{
		UID:             m.UID,
		SourceDirectory: m.SourceDirectory,
		SourceName:      m.SourceName,
		SizeX:           m.SizeX,
		SizeY:           m.SizeY,
		SizeC:           m.SizeC,
		SizeZ:           m.SizeZ,
		SizeT:           m.SizeT,
		DimensionOrder:  m.DimensionOrder,
		PhysicalSizeX:   m.PhysicalSizeX,
		PhysicalSizeY:   m.PhysicalSizeY,
		PhysicalSizeZ:   m.PhysicalSizeZ,
	}
	if err := json.Unmarshal(m.Channels, &md.Channels); err != nil {
		return nil, fmt.Errorf("channels: %w", err)
	}
	if err := json.Unmarshal(m.Planes, &md.Planes); err != nil {
		return nil, fmt.Errorf("planes: %w", err)
	}
	return md, nil
}

// ArchiveRunToCore rebuilds an archive; records are ordered by Position.
func ArchiveRunToCore(run model.ArchiveRun) (*core.Archive, error) {
	a := core.NewArchive(core.ArchiveProperties{
		UID:           run.UID,
		GeneratedAt:   run.GeneratedAt,
		SpaceUnits:    run.SpaceUnits,
		FrameInterval: run.FrameInterval,
		TimeUnits:     run.TimeUnits,
		Kind:          run.Kind,
		Provenance:    run.Provenance,
		Comments:      run.Comments,
	})

	if run.Image != nil {
		md, err := ImageMetadataToCore(*run.Image)
		if err != nil {
			return nil, fmt.Errorf("image metadata: %w", err)
		}
		a.Image = md
	}

	records := append([]model.MoleculeRecord(nil), run.Records...)
	sort.SliceStable(records, func(i, j int) bool { return records[i].Position < records[j].Position })
	for _, m := range records {
		r, err := MoleculeRecordToCore(m)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", m.UID, err)
		}
		if err := a.Add(r); err != nil {
			return nil, err
		}
	}
	return a, nil
}
