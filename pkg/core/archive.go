// pkg/core/archive.go
package core

import (
	"fmt"
	"sync"
	"time"
)

// RecordKind selects the record schema written to the archive
type RecordKind int

const (
	// KindPoint records hold only the per-spot table
	KindPoint RecordKind = iota
	// KindShape records additionally hold one outline per frame
	KindShape
)

func (k RecordKind) String() string {
	switch k {
	case KindShape:
		return "shape"
	default:
		return "point"
	}
}

// ColumnType tells the writer how to render a column's cells
type ColumnType int

const (
	ColumnReal ColumnType = iota
	ColumnInt
)

// Leading columns of every record table
const (
	ColumnFrame = "T"
	ColumnX     = "x"
	ColumnY     = "y"
	ColumnZ     = "z"
)

// Column is one named table column
type Column struct {
	Name string
	Type ColumnType
}

// Table is the per-record data table. Missing cells hold NaN.
type Table struct {
	Columns []Column
	Rows    [][]float64
}

// ColumnIndex returns the position of the named column, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns every value of the named column in row order
func (t *Table) Column(name string) []float64 {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out
}

// ShapePosition is an outline stored as absolute vertex coordinates
type ShapePosition struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Record is the per-track unit of exported data
type Record struct {
	UID        string
	Kind       RecordKind
	Table      Table
	Parameters map[string]float64
	Tags       []string
	Notes      string
	// Shapes is keyed by zero-based frame and only set for KindShape
	Shapes map[int]ShapePosition
}

// Record parameter names
const (
	ParamTrackID       = "TrackID"
	ParamNumberOfSpots = "NumberOfSpots"
)

// ArchiveProperties is the run-level metadata of an archive
type ArchiveProperties struct {
	UID             string
	GeneratedAt     time.Time
	NumberOfRecords int
	SpaceUnits      string
	FrameInterval   float64
	TimeUnits       string
	Kind            string
	Provenance      string
	Comments        string
}

// Channel describes one channel of the source image
type Channel struct {
	Index int
	Name  string
}

// Plane is one (z, channel, time) slice of the source image
type Plane struct {
	Z      int
	C      int
	T      int
	DeltaT float64
}

// ImageMetadata is the structural description of the source image
type ImageMetadata struct {
	UID             string
	SourceDirectory string
	SourceName      string
	SizeX           int
	SizeY           int
	SizeC           int
	SizeZ           int
	SizeT           int
	DimensionOrder  string
	// Physical voxel size in space units; zero when unknown
	PhysicalSizeX float64
	PhysicalSizeY float64
	PhysicalSizeZ float64
	Channels      []Channel
	Planes        []Plane
}

// ErrDuplicateRecord is returned when a record UID is already present
var ErrDuplicateRecord = fmt.Errorf("duplicate record uid")

// Archive owns the exported records and the metadata describing the run
type Archive struct {
	Properties ArchiveProperties
	Image      *ImageMetadata

	mu      sync.RWMutex
	records map[string]*Record
	order   []string
}

// NewArchive creates an empty archive
func NewArchive(props ArchiveProperties) *Archive {
	return &Archive{
		Properties: props,
		records:    make(map[string]*Record),
	}
}

// Add stores a record under its UID
func (a *Archive) Add(r *Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.records[r.UID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRecord, r.UID)
	}
	a.records[r.UID] = r
	a.order = append(a.order, r.UID)
	a.Properties.NumberOfRecords = len(a.order)
	return nil
}

// Get looks up a record by UID
func (a *Archive) Get(uid string) (*Record, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	r, ok := a.records[uid]
	return r, ok
}

// Records returns the records in insertion order
func (a *Archive) Records() []*Record {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]*Record, 0, len(a.order))
	for _, uid := range a.order {
		out = append(out, a.records[uid])
	}
	return out
}

// Len returns the number of records
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.order)
}

// Merge appends every record of other. Nothing is added when any UID collides.
func (a *Archive) Merge(other *Archive) error {
	incoming := other.Records()

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, r := range incoming {
		if _, ok := a.records[r.UID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateRecord, r.UID)
		}
	}
	for _, r := range incoming {
		a.records[r.UID] = r
		a.order = append(a.order, r.UID)
	}
	a.Properties.NumberOfRecords = len(a.order)
	return nil
}
