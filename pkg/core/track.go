// pkg/core/track.go
package core

// Feature keys the tracker always reports for a spot. They map onto the
// fixed leading columns of an exported table.
const (
	FeatureFrame     = "FRAME"
	FeaturePositionX = "POSITION_X"
	FeaturePositionY = "POSITION_Y"
	FeaturePositionZ = "POSITION_Z"
)

// Spot is a single timestamped observation belonging to one track.
// Frame is the host's 1-based frame index.
type Spot struct {
	ID       int
	Frame    int
	Position Position3D
	Shape    *Shape
	// Features holds named numeric values. A missing key means the value is
	// undefined for this spot.
	Features map[string]float64
}

// HasShape reports whether the spot carries an outline
func (s Spot) HasShape() bool {
	return s.Shape.Len() > 0
}

// Feature returns the named value and whether it is defined
func (s Spot) Feature(key string) (float64, bool) {
	if s.Features == nil {
		return 0, false
	}
	v, ok := s.Features[key]
	return v, ok
}

// Track is the time series of spots the tracker linked together
type Track struct {
	ID      int
	Name    string
	Visible bool
	Spots   []Spot
}

// Feature describes one entry in the run's feature catalog
type Feature struct {
	Key   string
	Name  string
	Units string
	IsInt bool
}

// FeatureCatalog lists every spot feature known to the run, in the order the
// host reports them
type FeatureCatalog []Feature
