package exporter

import (
	"fmt"

	"github.com/marsarchive/trackmate-export/pkg/core"
)

// UnknownSource fills source fields when the host does not know the image file
const UnknownSource = "unknown"

// DimensionOrder is the axis order planes are enumerated in
const DimensionOrder = "XYZCT"

// BuildImageMetadata describes the source image structurally. One plane is
// listed per (z, channel, time) with z outermost and time innermost.
func BuildImageMetadata(info *core.ImageInfo, frameInterval float64, uid string) *core.ImageMetadata {
	md := &core.ImageMetadata{
		UID:             uid,
		SourceDirectory: UnknownSource,
		SourceName:      UnknownSource,
		SizeX:           info.SizeX,
		SizeY:           info.SizeY,
		SizeC:           atLeastOne(info.SizeC),
		SizeZ:           atLeastOne(info.SizeZ),
		SizeT:           atLeastOne(info.SizeT),
		DimensionOrder:  DimensionOrder,
		PhysicalSizeX:   info.PixelWidth,
		PhysicalSizeY:   info.PixelHeight,
		PhysicalSizeZ:   info.VoxelDepth,
	}
	if info.FileName != "" {
		md.SourceName = info.FileName
		if info.Directory != "" {
			md.SourceDirectory = info.Directory
		}
	}

	md.Channels = make([]core.Channel, md.SizeC)
	for c := range md.Channels {
		name := fmt.Sprintf("Channel %d", c)
		if c < len(info.ChannelNames) && info.ChannelNames[c] != "" {
			name = info.ChannelNames[c]
		}
		md.Channels[c] = core.Channel{Index: c, Name: name}
	}

	md.Planes = make([]core.Plane, 0, md.SizeZ*md.SizeC*md.SizeT)
	for z := 0; z < md.SizeZ; z++ {
		for c := 0; c < md.SizeC; c++ {
			for t := 0; t < md.SizeT; t++ {
				md.Planes = append(md.Planes, core.Plane{
					Z:      z,
					C:      c,
					T:      t,
					DeltaT: float64(t) * frameInterval,
				})
			}
		}
	}
	return md
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
