// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/marsarchive/trackmate-export/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// SaveArchive persists one finished archive
	SaveArchive(ctx context.Context, a *core.Archive) error
}

// FileBacked is an optional interface for backends that write one file per
// archive. The caller picks the path before saving.
type FileBacked interface {
	// Extension is the file extension including the leading dot
	Extension() string
	SetOutputPath(path string)
	GetExportedFilePath() string
}
