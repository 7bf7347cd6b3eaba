// pkg/core/run.go
package core

import "time"

// ImageInfo describes the source image sequence the tracks were computed on
type ImageInfo struct {
	Directory    string
	FileName     string
	SizeX        int
	SizeY        int
	SizeC        int
	SizeZ        int
	SizeT        int
	PixelWidth   float64
	PixelHeight  float64
	VoxelDepth   float64
	ChannelNames []string
}

// RunContext carries the run-level settings read once per export
type RunContext struct {
	SpaceUnits    string
	FrameInterval float64
	TimeUnits     string
	Catalog       FeatureCatalog
	Image         *ImageInfo
	Provenance    string
	GeneratedAt   time.Time
}
