package exporter

import (
	"math"
	"sort"
	"strings"

	"github.com/marsarchive/trackmate-export/pkg/core"
)

// Fixed leading column names of every exported table
const (
	ColumnFrame = core.ColumnFrame
	ColumnX     = core.ColumnX
	ColumnY     = core.ColumnY
	ColumnZ     = core.ColumnZ
)

var positionKeys = map[string]bool{
	core.FeatureFrame:     true,
	core.FeaturePositionX: true,
	core.FeaturePositionY: true,
	core.FeaturePositionZ: true,
}

// layout is the column plan shared by every record of a run
type layout struct {
	columns  []core.Column
	features []core.Feature
}

// newLayout builds the column set once from the run's feature catalog:
// T, x, y, z first, then every other catalog feature in catalog order.
func newLayout(catalog core.FeatureCatalog) layout {
	l := layout{
		columns: []core.Column{
			{Name: ColumnFrame, Type: core.ColumnInt},
			{Name: ColumnX, Type: core.ColumnReal},
			{Name: ColumnY, Type: core.ColumnReal},
			{Name: ColumnZ, Type: core.ColumnReal},
		},
	}

	seen := make(map[string]bool, len(catalog))
	for _, f := range catalog {
		if positionKeys[f.Key] || isFixedColumn(f.Key) || seen[f.Key] {
			continue
		}
		seen[f.Key] = true

		colType := core.ColumnReal
		if f.IsInt {
			colType = core.ColumnInt
		}
		l.columns = append(l.columns, core.Column{Name: f.Key, Type: colType})
		l.features = append(l.features, f)
	}
	return l
}

func isFixedColumn(key string) bool {
	switch strings.ToLower(key) {
	case "t", "frame", ColumnX, ColumnY, ColumnZ:
		return true
	}
	return false
}

// sortedSpots returns the spots ordered by frame. Equal frames keep host order.
func sortedSpots(spots []core.Spot) []core.Spot {
	sorted := make([]core.Spot, len(spots))
	copy(sorted, spots)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Frame < sorted[j].Frame
	})
	return sorted
}

// row converts one spot into table cells
func (l layout) row(spot core.Spot) []float64 {
	cells := make([]float64, 0, len(l.columns))
	cells = append(cells,
		float64(spot.Frame-1),
		spot.Position.X,
		spot.Position.Y,
		spot.Position.Z,
	)

	for _, f := range l.features {
		v, ok := spot.Feature(f.Key)
		switch {
		case !ok || math.IsNaN(v):
			cells = append(cells, math.NaN())
		case f.IsInt:
			cells = append(cells, math.Trunc(v))
		default:
			cells = append(cells, v)
		}
	}
	return cells
}

// table builds the table for already sorted spots
func (l layout) table(sorted []core.Spot) core.Table {
	t := core.Table{
		Columns: append([]core.Column(nil), l.columns...),
		Rows:    make([][]float64, 0, len(sorted)),
	}
	for _, spot := range sorted {
		t.Rows = append(t.Rows, l.row(spot))
	}
	return t
}
