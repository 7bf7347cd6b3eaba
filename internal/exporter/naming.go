package exporter

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/marsarchive/trackmate-export/pkg/core"
)

// DefaultBaseName is used when the source image name is unknown
const DefaultBaseName = "Tracks"

// DefaultFileName derives the archive file name from the source image name.
// Everything after the first dot is dropped and suffix is appended, so
// "cells.ome.tif" becomes "cells_Tracks.json". Without an image name the
// result is DefaultBaseName plus ext.
func DefaultFileName(imageFileName, suffix, ext string) string {
	base := filepath.Base(imageFileName)
	if imageFileName == "" || base == "." || base == string(filepath.Separator) {
		return DefaultBaseName + ext
	}
	if dot := strings.Index(base, "."); dot >= 0 {
		base = base[:dot]
	}
	if base == "" {
		return DefaultBaseName + ext
	}
	return base + suffix + ext
}

// DefaultDirectory returns the source image directory, falling back to two
// levels above the working directory.
func DefaultDirectory(info *core.ImageInfo) string {
	if info != nil && info.Directory != "" {
		return info.Directory
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return filepath.Dir(filepath.Dir(wd))
}

// DefaultPath joins DefaultDirectory and DefaultFileName
func DefaultPath(info *core.ImageInfo, suffix, ext string) string {
	var name string
	if info != nil {
		name = info.FileName
	}
	return filepath.Join(DefaultDirectory(info), DefaultFileName(name, suffix, ext))
}
