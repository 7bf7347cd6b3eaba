// pkg/core/types.go
package core

// Position3D represents a position in physical (calibrated) units
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Position2D is a planar position in physical units
type Position2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Shape is a closed polygon outlining a spot. Vertices are relative to the
// spot centre, the way the tracker stores ROI contours.
type Shape struct {
	Vertices []Position2D `json:"vertices"`
}

// Len returns the number of vertices in the outline
func (s *Shape) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Vertices)
}
