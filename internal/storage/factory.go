// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/marsarchive/trackmate-export/internal/config"
	"github.com/marsarchive/trackmate-export/internal/storage/memory"
	"github.com/marsarchive/trackmate-export/internal/storage/postgres"
	sqlitestorage "github.com/marsarchive/trackmate-export/internal/storage/sqlite"
	"github.com/marsarchive/trackmate-export/internal/storage/xml"
	"github.com/rs/zerolog"
)

// NewBackend creates a storage backend based on configuration.
// Database-backed stores log through log.
func NewBackend(cfg config.StorageConfig, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.NewWithLogger(cfg.Postgres, log), nil
	case "sqlite":
		return sqlitestorage.NewWithLogger(cfg.SQLite, log), nil
	case "xml":
		return xml.New(cfg.XML), nil
	case "memory", "json":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// OutputDir returns the configured output directory of the selected
// file-backed backend, or "" when the default location should be used.
func OutputDir(cfg config.StorageConfig) string {
	switch cfg.Type {
	case "sqlite":
		return cfg.SQLite.OutputDir
	case "xml":
		return cfg.XML.OutputDir
	case "memory", "json":
		return cfg.Memory.OutputDir
	default:
		return ""
	}
}
