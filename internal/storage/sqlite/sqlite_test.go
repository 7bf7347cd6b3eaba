package sqlitestorage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/marsarchive/trackmate-export/internal/config"
	"github.com/marsarchive/trackmate-export/internal/database"
	gormstorage "github.com/marsarchive/trackmate-export/internal/storage/gorm"
	"github.com/marsarchive/trackmate-export/internal/storage/storagetest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := New(config.SQLiteConfig{})
	require.NoError(t, b.Init())
	t.Cleanup(func() { b.Close() })
	return b
}

func openArchiveFile(t *testing.T, path string) *gormstorage.Backend {
	t.Helper()
	m := database.NewManager(zerolog.Nop())
	require.NoError(t, m.ConnectSqlite(path))
	t.Cleanup(func() { m.Close() })
	return gormstorage.New(gormstorage.Dependencies{DB: m.DB})
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".db", New(config.SQLiteConfig{}).Extension())
}

func TestSaveArchive_NoOutputPath(t *testing.T) {
	b := newTestBackend(t)

	err := b.SaveArchive(context.Background(), storagetest.PointArchive())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no output path")
}

func TestSaveArchive_WritesFile(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "cells_Tracks.db")

	b.SetOutputPath(path)
	require.NoError(t, b.SaveArchive(ctx, storagetest.PointArchive()))
	assert.Equal(t, path, b.GetExportedFilePath())

	_, err := os.Stat(path)
	require.NoError(t, err)

	got, err := openArchiveFile(t, path).LoadArchive(ctx, "archive-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}

func TestSaveArchive_OneArchivePerFile(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	dir := t.TempDir()

	b.SetOutputPath(filepath.Join(dir, "first.db"))
	require.NoError(t, b.SaveArchive(ctx, storagetest.PointArchive()))

	second := filepath.Join(dir, "second.db")
	b.SetOutputPath(second)
	require.NoError(t, b.SaveArchive(ctx, storagetest.ShapeArchive()))

	uids, err := openArchiveFile(t, second).ListArchives(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"archive-2"}, uids)
}

func TestSaveArchive_OverwritesExistingFile(t *testing.T) {
	b := newTestBackend(t)
	path := filepath.Join(t.TempDir(), "cells_Tracks.db")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0644))

	b.SetOutputPath(path)
	require.NoError(t, b.SaveArchive(context.Background(), storagetest.ShapeArchive()))

	got, err := openArchiveFile(t, path).LoadArchive(context.Background(), "archive-2")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}
