package exporter

import (
	"fmt"

	"github.com/marsarchive/trackmate-export/pkg/core"
)

// ShapePolicy decides what happens when some spots carry shapes and others do not
type ShapePolicy string

const (
	// ShapePolicyReject fails the export on mixed input
	ShapePolicyReject ShapePolicy = "reject"
	// ShapePolicyPerRecord lets every track pick its own record kind
	ShapePolicyPerRecord ShapePolicy = "per-record"
)

// ParseShapePolicy maps a config value onto a policy, defaulting to reject
func ParseShapePolicy(s string) (ShapePolicy, error) {
	switch ShapePolicy(s) {
	case "", ShapePolicyReject:
		return ShapePolicyReject, nil
	case ShapePolicyPerRecord:
		return ShapePolicyPerRecord, nil
	default:
		return "", fmt.Errorf("unknown shape policy %q", s)
	}
}

// Schema is the record kind decision for one export run
type Schema struct {
	Kind      core.RecordKind
	PerRecord bool
}

// Label is the kind written into the archive properties
func (s Schema) Label() string {
	if s.PerRecord {
		return "mixed"
	}
	return s.Kind.String()
}

// KindFor returns the record kind used for the given track
func (s Schema) KindFor(t core.Track) core.RecordKind {
	if !s.PerRecord {
		return s.Kind
	}
	for _, spot := range t.Spots {
		if spot.HasShape() {
			return core.KindShape
		}
	}
	return core.KindPoint
}

// SelectSchema inspects every spot once and decides the run's record kind.
// Uniform input yields a run-wide kind; mixed input is resolved by policy.
func SelectSchema(tracks []core.Track, policy ShapePolicy) (Schema, error) {
	var withShape, withoutShape int
	for _, t := range tracks {
		for _, spot := range t.Spots {
			if spot.HasShape() {
				withShape++
			} else {
				withoutShape++
			}
		}
	}

	switch {
	case withShape > 0 && withoutShape == 0:
		return Schema{Kind: core.KindShape}, nil
	case withShape == 0:
		return Schema{Kind: core.KindPoint}, nil
	}

	if policy == ShapePolicyPerRecord {
		return Schema{Kind: core.KindShape, PerRecord: true}, nil
	}
	return Schema{}, fmt.Errorf("%w: %d spots with shapes, %d without", ErrMixedShapes, withShape, withoutShape)
}
