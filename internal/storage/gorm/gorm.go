// Package gormstorage writes archives into the relational schema of
// internal/model. The sqlite and postgres backends embed it.
package gormstorage

import (
	"context"
	"errors"
	"fmt"

	"github.com/marsarchive/trackmate-export/internal/model"
	"github.com/marsarchive/trackmate-export/internal/model/convert"
	"github.com/marsarchive/trackmate-export/pkg/core"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ErrNoDatabase is returned when the backend has no database attached
var ErrNoDatabase = errors.New("no database attached")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger zerolog.Logger
}

// Backend writes archives through gorm
type Backend struct {
	db  *gorm.DB
	log zerolog.Logger
}

// New creates a GORM backend
func New(deps Dependencies) *Backend {
	return &Backend{db: deps.DB, log: deps.Logger}
}

// Init checks that a database is attached
func (b *Backend) Init() error {
	if b.db == nil {
		return ErrNoDatabase
	}
	return nil
}

// Close is a no-op; the connection belongs to the caller
func (b *Backend) Close() error {
	return nil
}

// SetDB replaces the database, used by wrappers that connect in Init
func (b *Backend) SetDB(db *gorm.DB) {
	b.db = db
}

// SaveArchive inserts the archive, its image metadata and records in one
// transaction.
func (b *Backend) SaveArchive(ctx context.Context, a *core.Archive) error {
	if b.db == nil {
		return ErrNoDatabase
	}

	run, err := convert.CoreToArchiveRun(a)
	if err != nil {
		return fmt.Errorf("failed to convert archive %s: %w", a.Properties.UID, err)
	}

	err = b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&run).Error
	})
	if err != nil {
		return fmt.Errorf("failed to insert archive %s: %w", a.Properties.UID, err)
	}

	b.log.Debug().
		Str("archive", run.UID).
		Int("records", len(run.Records)).
		Msg("Archive stored")
	return nil
}

// LoadArchive reads an archive back by UID.
func (b *Backend) LoadArchive(ctx context.Context, uid string) (*core.Archive, error) {
	if b.db == nil {
		return nil, ErrNoDatabase
	}

	var run model.ArchiveRun
	err := b.db.WithContext(ctx).
		Preload("Image").
		Preload("Records", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("uid = ?", uid).
		First(&run).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load archive %s: %w", uid, err)
	}
	return convert.ArchiveRunToCore(run)
}

// ListArchives returns the stored archive UIDs, newest first.
func (b *Backend) ListArchives(ctx context.Context) ([]string, error) {
	if b.db == nil {
		return nil, ErrNoDatabase
	}

	var uids []string
	err := b.db.WithContext(ctx).
		Model(&model.ArchiveRun{}).
		Order("generated_at DESC").
		Order("id DESC").
		Pluck("uid", &uids).Error
	if err != nil {
		return nil, err
	}
	return uids, nil
}
