// Package sqlitestorage implements the storage.Backend interface using an
// in-memory SQLite database dumped to the archive file via VACUUM INTO.
// It wraps the GORM backend; the SQLite-specific concerns are creating the
// in-memory DB and writing the file.
package sqlitestorage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/marsarchive/trackmate-export/internal/config"
	"github.com/marsarchive/trackmate-export/internal/database"
	gormstorage "github.com/marsarchive/trackmate-export/internal/storage/gorm"
	"github.com/marsarchive/trackmate-export/pkg/core"
	"github.com/rs/zerolog"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg config.SQLiteConfig
	db  *database.Manager
	log zerolog.Logger

	mu             sync.Mutex
	outputPath     string
	lastExportPath string
}

// New creates a new SQLite storage backend. The database is opened in Init.
func New(cfg config.SQLiteConfig) *Backend {
	return NewWithLogger(cfg, zerolog.Nop())
}

// NewWithLogger creates a backend logging database events to log.
func NewWithLogger(cfg config.SQLiteConfig, log zerolog.Logger) *Backend {
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{Logger: log}),
		cfg:     cfg,
		db:      database.NewManager(log),
		log:     log,
	}
}

// Init creates the in-memory database and migrates the schema.
func (b *Backend) Init() error {
	if err := b.db.ConnectSqlite(""); err != nil {
		return fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}
	if err := b.db.Setup(); err != nil {
		return err
	}
	b.Backend.SetDB(b.db.DB)
	return b.Backend.Init()
}

// Close closes the in-memory database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Extension is ".db"
func (b *Backend) Extension() string {
	return ".db"
}

// SetOutputPath sets the file the next archive is written to
func (b *Backend) SetOutputPath(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outputPath = path
}

// GetExportedFilePath returns the path of the last written file
func (b *Backend) GetExportedFilePath() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastExportPath
}

// SaveArchive writes the archive into a fresh database file holding only
// that archive.
func (b *Backend) SaveArchive(ctx context.Context, a *core.Archive) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.outputPath == "" {
		return errors.New("sqlite backend: no output path set")
	}

	if err := b.db.Reset(); err != nil {
		return err
	}
	if err := b.Backend.SaveArchive(ctx, a); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(b.outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := b.db.DumpMemoryToDisk(b.outputPath); err != nil {
		return err
	}

	b.log.Info().Str("path", b.outputPath).Int("records", a.Len()).Msg("Archive written")
	b.lastExportPath = b.outputPath
	b.outputPath = ""
	return nil
}
