package xml

import (
	"bytes"
	"context"
	encxml "encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marsarchive/trackmate-export/internal/config"
	"github.com/marsarchive/trackmate-export/internal/storage/storagetest"
	"github.com/marsarchive/trackmate-export/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	doc, err := Build(storagetest.PointArchive())
	require.NoError(t, err)

	assert.Equal(t, 2, doc.NTracks)
	assert.Equal(t, "µm", doc.SpaceUnits)
	assert.Equal(t, "0.5", doc.FrameInterval)
	assert.Equal(t, "s", doc.TimeUnits)
	assert.Equal(t, "Wed, 4 Mar 2026 10:30:00", doc.GenerationDateTime)
	assert.Equal(t, "TrackMate v7.11.1", doc.From)

	require.Len(t, doc.Particles, 2)
	p := doc.Particles[0]
	assert.Equal(t, 3, p.NSpots)
	assert.Equal(t, []Detection{
		{T: 0, X: 1.5, Y: 2.5, Z: 0},
		{T: 1, X: 1.75, Y: 2.25, Z: 0},
		{T: 3, X: 2, Y: 2, Z: 0},
	}, p.Detections)
}

func TestBuild_MissingColumn(t *testing.T) {
	a := core.NewArchive(core.ArchiveProperties{})
	require.NoError(t, a.Add(&core.Record{
		UID:   "r",
		Table: core.Table{Columns: []core.Column{{Name: core.ColumnFrame}}},
	}))

	_, err := Build(a)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestEncode_RoundTripsAttributes(t *testing.T) {
	doc, err := Build(storagetest.PointArchive())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc, true))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `<Tracks nTracks="2" spaceUnits="µm" frameInterval="0.5"`)
	assert.Contains(t, out, `<particle nSpots="3">`)
	assert.Contains(t, out, `<detection t="1" x="1.75" y="2.25" z="0"></detection>`)

	var decoded Document
	require.NoError(t, encxml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, doc.Particles, decoded.Particles)
}

func TestBackend_SaveArchive(t *testing.T) {
	b := New(config.XMLConfig{Indent: true})
	require.NoError(t, b.Init())
	defer b.Close()

	assert.Equal(t, ".xml", b.Extension())

	path := filepath.Join(t.TempDir(), "cells_Tracks.xml")
	b.SetOutputPath(path)
	require.NoError(t, b.SaveArchive(context.Background(), storagetest.PointArchive()))

	assert.Equal(t, path, b.GetExportedFilePath())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<Tracks")
}

func TestBackend_NoOutputPath(t *testing.T) {
	b := New(config.XMLConfig{})

	err := b.SaveArchive(context.Background(), storagetest.PointArchive())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no output path")
}

func TestBackend_UnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	b := New(config.XMLConfig{})
	b.SetOutputPath(filepath.Join(blocker, "out.xml"))

	assert.Error(t, b.SaveArchive(context.Background(), storagetest.PointArchive()))
	assert.Empty(t, b.GetExportedFilePath())
}
