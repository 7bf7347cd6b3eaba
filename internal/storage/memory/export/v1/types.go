// Package v1 contains the v1 JSON layout of a molecule archive, as read by
// the Mars archive loader.
package v1

// Export is the root JSON structure for v1 format
type Export struct {
	Type          string          `json:"type"`
	Properties    Properties      `json:"MoleculeArchiveProperties"`
	ImageMetadata []ImageMetadata `json:"ImageMetadata"`
	Molecules     []Molecule      `json:"Molecules"`
}

// Properties is the run-level metadata block
type Properties struct {
	UID                string  `json:"UID"`
	GenerationDateTime string  `json:"generationDateTime"`
	NumberOfMolecules  int     `json:"numberOfMolecules"`
	NumImageMetadata   int     `json:"numImageMetadata"`
	SpaceUnits         string  `json:"spaceUnits"`
	FrameInterval      float64 `json:"frameInterval"`
	TimeUnits          string  `json:"timeUnits"`
	Kind               string  `json:"kind"`
	From               string  `json:"from,omitempty"`
	Comments           string  `json:"Comments,omitempty"`
}

// ImageMetadata describes the source image
type ImageMetadata struct {
	UID             string    `json:"UID"`
	SourceDirectory string    `json:"SourceDirectory"`
	SourceName      string    `json:"SourceName"`
	SizeX           int       `json:"SizeX"`
	SizeY           int       `json:"SizeY"`
	SizeC           int       `json:"SizeC"`
	SizeZ           int       `json:"SizeZ"`
	SizeT           int       `json:"SizeT"`
	DimensionOrder  string    `json:"DimensionOrder"`
	PhysicalSizeX   float64   `json:"PhysicalSizeX,omitempty"`
	PhysicalSizeY   float64   `json:"PhysicalSizeY,omitempty"`
	PhysicalSizeZ   float64   `json:"PhysicalSizeZ,omitempty"`
	Channels        []Channel `json:"Channels"`
	Planes          []Plane   `json:"Planes"`
}

// Channel is one entry of the image channel list
type Channel struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// Plane is one (z, c, t) entry of the image plane list
type Plane struct {
	Z      int     `json:"Z"`
	C      int     `json:"C"`
	T      int     `json:"T"`
	DeltaT float64 `json:"DeltaT"`
}

// Column is one table column. Values hold float64, int64 or a non-finite
// marker string.
type Column struct {
	Title  string `json:"title"`
	Type   string `json:"type"`
	Values []any  `json:"values"`
}

// Shape is an outline as absolute vertex coordinates
type Shape struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Molecule is one record
type Molecule struct {
	UID              string         `json:"UID"`
	Type             string         `json:"type"`
	ImageMetadataUID string         `json:"ImageMetadataUID,omitempty"`
	Notes            string         `json:"Notes,omitempty"`
	Tags             []string       `json:"Tags"`
	Parameters       map[string]any `json:"Parameters"`
	Table            []Column       `json:"Table"`
	Shapes           map[int]Shape  `json:"Shapes,omitempty"`
}
