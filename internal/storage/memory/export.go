// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	v1 "github.com/marsarchive/trackmate-export/internal/storage/memory/export/v1"
	"github.com/marsarchive/trackmate-export/pkg/core"
)

// exportJSON writes the archive to path, gzipped when configured
func (b *Backend) exportJSON(path string, a *core.Archive) error {
	export := v1.Build(a)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(path, export)
	} else {
		err = writeJSON(path, export)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = path
	return nil
}

func writeJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	encoder := json.NewEncoder(f)
	if err := encoder.Encode(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	return f.Close()
}

func writeGzipJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		f.Close()
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return f.Close()
}
