package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/marsarchive/trackmate-export/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrInvalidContour is returned when an outline cannot form a polygon
var ErrInvalidContour = errors.New("invalid contour")

// ParseContour parses a whitespace separated "x0 y0 x1 y1 ..." vertex list,
// the encoding trackers use for ROI contours in their XML files.
func ParseContour(input string) ([]core.Position2D, error) {
	fields := strings.Fields(input)
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of values (%d)", ErrInvalidContour, len(fields))
	}

	vertices := make([]core.Position2D, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		x, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: vertex %d x: %v", ErrInvalidContour, i/2, err)
		}
		y, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: vertex %d y: %v", ErrInvalidContour, i/2, err)
		}
		vertices = append(vertices, core.Position2D{X: x, Y: y})
	}
	return vertices, nil
}

// Ring builds the closed outline of a spot in absolute coordinates. The
// ring is closed if the last vertex does not repeat the first. Outlines with
// fewer than 3 distinct vertices or with crossing edges are rejected.
func Ring(center core.Position3D, shape *core.Shape) (geom.LineString, error) {
	vertices := openVertices(shape)
	if len(vertices) < 3 {
		return geom.LineString{}, fmt.Errorf("%w: need at least 3 vertices, got %d", ErrInvalidContour, len(vertices))
	}

	flat := make([]float64, 0, (len(vertices)+1)*2)
	for _, v := range vertices {
		flat = append(flat, center.X+v.X, center.Y+v.Y)
	}
	flat = append(flat, center.X+vertices[0].X, center.Y+vertices[0].Y)

	ring, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY), geom.NoValidate{})
	if err != nil {
		return geom.LineString{}, fmt.Errorf("%w: %v", ErrInvalidContour, err)
	}
	if !ring.IsSimple() {
		return geom.LineString{}, fmt.Errorf("%w: outline crosses itself", ErrInvalidContour)
	}
	return ring, nil
}

// Polygon wraps Ring into a single-ring polygon
func Polygon(center core.Position3D, shape *core.Shape) (geom.Polygon, error) {
	ring, err := Ring(center, shape)
	if err != nil {
		return geom.Polygon{}, err
	}
	poly, err := geom.NewPolygon([]geom.LineString{ring}, geom.NoValidate{})
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("%w: %v", ErrInvalidContour, err)
	}
	return poly, nil
}

// Outline returns the absolute vertex positions of a spot's shape, without
// the closing vertex.
func Outline(center core.Position3D, shape *core.Shape) (core.ShapePosition, error) {
	ring, err := Ring(center, shape)
	if err != nil {
		return core.ShapePosition{}, err
	}

	seq := ring.Coordinates()
	n := seq.Length() - 1
	out := core.ShapePosition{
		X: make([]float64, 0, n),
		Y: make([]float64, 0, n),
	}
	for i := 0; i < n; i++ {
		xy := seq.GetXY(i)
		out.X = append(out.X, xy.X)
		out.Y = append(out.Y, xy.Y)
	}
	return out, nil
}

// openVertices drops a trailing vertex that repeats the first
func openVertices(shape *core.Shape) []core.Position2D {
	if shape.Len() == 0 {
		return nil
	}
	v := shape.Vertices
	if len(v) > 1 && v[0] == v[len(v)-1] {
		v = v[:len(v)-1]
	}
	return v
}
