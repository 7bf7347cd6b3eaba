package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&ArchiveRun{},
	&ImageMetadata{},
	&MoleculeRecord{},
}

// ArchiveRun is one exported archive and its run-level metadata
type ArchiveRun struct {
	gorm.Model
	UID             string    `json:"uid" gorm:"size:36;uniqueIndex:idx_archive_run_uid"`
	GeneratedAt     time.Time `json:"generatedAt" gorm:"index:idx_archive_run_generated_at"`
	NumberOfRecords int       `json:"numberOfRecords"`
	SpaceUnits      string    `json:"spaceUnits" gorm:"size:32"`
	FrameInterval   float64   `json:"frameInterval"`
	TimeUnits       string    `json:"timeUnits" gorm:"size:32"`
	Kind            string    `json:"kind" gorm:"size:16"` // point, shape or mixed
	Provenance      string    `json:"provenance" gorm:"size:255"`
	Comments        string    `json:"comments"`

	Image   *ImageMetadata   `json:"image,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Records []MoleculeRecord `json:"records" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*ArchiveRun) TableName() string {
	return "archive_runs"
}

// ImageMetadata is the structural description of the source image of a run
type ImageMetadata struct {
	ID              uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	ArchiveRunID    uint           `json:"archiveRunId" gorm:"index:idx_image_metadata_archive_run_id"`
	UID             string         `json:"uid" gorm:"size:36"`
	SourceDirectory string         `json:"sourceDirectory"`
	SourceName      string         `json:"sourceName" gorm:"size:255"`
	SizeX           int            `json:"sizeX"`
	SizeY           int            `json:"sizeY"`
	SizeC           int            `json:"sizeC"`
	SizeZ           int            `json:"sizeZ"`
	SizeT           int            `json:"sizeT"`
	DimensionOrder  string         `json:"dimensionOrder" gorm:"size:8"`
	PhysicalSizeX   float64        `json:"physicalSizeX"`
	PhysicalSizeY   float64        `json:"physicalSizeY"`
	PhysicalSizeZ   float64        `json:"physicalSizeZ"`
	Channels        datatypes.JSON `json:"channels"` // [{index, name}]
	Planes          datatypes.JSON `json:"planes"`   // [{Z, C, T, DeltaT}]
}

func (*ImageMetadata) TableName() string {
	return "image_metadata"
}

// MoleculeRecord is one exported track. The table is stored column-wise in
// the same layout as the JSON archive, non-finite cells as marker strings.
type MoleculeRecord struct {
	ID           uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	ArchiveRunID uint           `json:"archiveRunId" gorm:"index:idx_molecule_record_archive_run_id"`
	Position     int            `json:"position"` // insertion order within the run
	UID          string         `json:"uid" gorm:"size:36;uniqueIndex:idx_molecule_record_uid"`
	Kind         string         `json:"kind" gorm:"size:16"`
	TrackID      int            `json:"trackId" gorm:"index:idx_molecule_record_track_id"`
	NumberOfRows int            `json:"numberOfRows"`
	Notes        string         `json:"notes"`
	Tags         datatypes.JSON `json:"tags"`
	Parameters   datatypes.JSON `json:"parameters"`
	Table        datatypes.JSON `json:"table"`
	Shapes       datatypes.JSON `json:"shapes"` // frame -> {x, y}; null for point records
}

func (*MoleculeRecord) TableName() string {
	return "molecule_records"
}
