// Package postgres implements the storage.Backend interface on a shared
// PostgreSQL database. Archives accumulate; nothing is written to disk.
package postgres

import (
	"fmt"

	"github.com/marsarchive/trackmate-export/internal/config"
	"github.com/marsarchive/trackmate-export/internal/database"
	gormstorage "github.com/marsarchive/trackmate-export/internal/storage/gorm"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Dependencies holds an already opened database, bypassing Connect.
type Dependencies struct {
	DB     *gorm.DB
	Logger zerolog.Logger
}

// Backend wraps the GORM backend with the Postgres connection lifecycle.
type Backend struct {
	*gormstorage.Backend
	cfg config.DBConfig
	db  *database.Manager
	pre *gorm.DB
}

// New creates a backend connecting with cfg in Init.
func New(cfg config.DBConfig) *Backend {
	return NewWithLogger(cfg, zerolog.Nop())
}

// NewWithLogger creates a backend logging database events to log.
func NewWithLogger(cfg config.DBConfig, log zerolog.Logger) *Backend {
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{Logger: log}),
		cfg:     cfg,
		db:      database.NewManager(log),
	}
}

// NewWithDB creates a backend on an existing database.
func NewWithDB(deps Dependencies) *Backend {
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{Logger: deps.Logger}),
		db:      database.NewManager(deps.Logger),
		pre:     deps.DB,
	}
}

// Init connects and migrates the schema.
func (b *Backend) Init() error {
	var err error
	if b.pre != nil {
		err = b.db.Attach(b.pre)
	} else {
		err = b.db.ConnectPostgres(b.cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to archive database: %w", err)
	}

	if err := b.db.Setup(); err != nil {
		return err
	}
	b.Backend.SetDB(b.db.DB)
	return b.Backend.Init()
}

// Close closes the connection pool it opened.
func (b *Backend) Close() error {
	if b.pre != nil {
		return nil
	}
	return b.db.Close()
}
