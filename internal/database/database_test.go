package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marsarchive/trackmate-export/internal/config"
	"github.com/marsarchive/trackmate-export/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(zerolog.Nop())
	require.NoError(t, m.ConnectSqlite(""))
	t.Cleanup(func() { m.Close() })
	require.NoError(t, m.Setup())
	return m
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.DBConfig{
		Host:     "db",
		Port:     "5433",
		Username: "mars",
		Password: "secret",
		Database: "archives",
	})
	assert.Equal(t, "host=db port=5433 user=mars password=secret dbname=archives sslmode=disable", dsn)

	dsn = PostgresDSN(config.DBConfig{SSLMode: "require"})
	assert.Contains(t, dsn, "sslmode=require")
}

func TestSetup_NotConnected(t *testing.T) {
	m := NewManager(zerolog.Nop())
	assert.ErrorIs(t, m.Setup(), ErrNotConnected)
	assert.ErrorIs(t, m.Reset(), ErrNotConnected)
	assert.NoError(t, m.Close())
}

func TestSetup_MigratesTables(t *testing.T) {
	m := newTestManager(t)

	for _, table := range model.DatabaseModels {
		assert.True(t, m.DB.Migrator().HasTable(table), "%T", table)
	}
}

func TestInMemoryDatabasesAreIsolated(t *testing.T) {
	a := newTestManager(t)
	b := newTestManager(t)

	require.NoError(t, a.DB.Create(&model.ArchiveRun{UID: "only-in-a"}).Error)

	var count int64
	require.NoError(t, b.DB.Model(&model.ArchiveRun{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReset(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.DB.Create(&model.ArchiveRun{
		UID:     "run-1",
		Records: []model.MoleculeRecord{{UID: "rec-1"}},
	}).Error)

	require.NoError(t, m.Reset())

	var runs, records int64
	require.NoError(t, m.DB.Model(&model.ArchiveRun{}).Count(&runs).Error)
	require.NoError(t, m.DB.Model(&model.MoleculeRecord{}).Count(&records).Error)
	assert.Zero(t, runs)
	assert.Zero(t, records)
}

func TestDumpMemoryToDisk(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.DB.Create(&model.ArchiveRun{UID: "run-1"}).Error)

	path := filepath.Join(t.TempDir(), "archive.db")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	require.NoError(t, m.DumpMemoryToDisk(path))

	disk := NewManager(zerolog.Nop())
	require.NoError(t, disk.ConnectSqlite(path))
	defer disk.Close()

	var run model.ArchiveRun
	require.NoError(t, disk.DB.First(&run).Error)
	assert.Equal(t, "run-1", run.UID)
}

func TestDumpMemoryToDisk_FileDatabase(t *testing.T) {
	m := NewManager(zerolog.Nop())
	require.NoError(t, m.ConnectSqlite(filepath.Join(t.TempDir(), "file.db")))
	defer m.Close()

	assert.Error(t, m.DumpMemoryToDisk(filepath.Join(t.TempDir(), "out.db")))
}

func TestDumpMemoryDBToDisk_EmptyPath(t *testing.T) {
	m := newTestManager(t)
	assert.Error(t, DumpMemoryDBToDisk(m.DB, ""))
}
