// internal/storage/memory/memory.go
package memory

import (
	"context"
	"sync"

	"github.com/marsarchive/trackmate-export/internal/config"
	"github.com/marsarchive/trackmate-export/pkg/core"
)

// Backend keeps saved archives in memory and, when an output path is set,
// exports each one as a JSON document.
type Backend struct {
	cfg config.MemoryConfig

	archives       []*core.Archive
	outputPath     string
	lastExportPath string

	mu sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// Extension is ".json", or ".json.gz" with compression enabled
func (b *Backend) Extension() string {
	if b.cfg.CompressOutput {
		return ".json.gz"
	}
	return ".json"
}

// SetOutputPath sets the file the next archive is written to
func (b *Backend) SetOutputPath(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outputPath = path
}

// GetExportedFilePath returns the path of the last written file
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// SaveArchive writes the archive when an output path is set and stores it
// once the write succeeded. A successful write consumes the path.
func (b *Backend) SaveArchive(ctx context.Context, a *core.Archive) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.outputPath != "" {
		if err := b.exportJSON(b.outputPath, a); err != nil {
			return err
		}
		b.outputPath = ""
	}
	b.archives = append(b.archives, a)
	return nil
}

// Archives returns every saved archive in save order
func (b *Backend) Archives() []*core.Archive {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]*core.Archive(nil), b.archives...)
}

// Latest returns the most recently saved archive, or nil
func (b *Backend) Latest() *core.Archive {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.archives) == 0 {
		return nil
	}
	return b.archives[len(b.archives)-1]
}
