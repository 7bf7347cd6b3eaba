package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSession = "../../internal/host/trackmate/testdata/sample.xml"

func writeConfig(t *testing.T, dir, storageType string) {
	t.Helper()
	cfg := fmt.Sprintf(`{
		"logLevel": "debug",
		"logsDir": %q,
		"storage": {"type": %q}
	}`, filepath.Join(dir, "logs"), storageType)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mars_export.cfg.json"), []byte(cfg), 0644))
}

func TestRun_Version(t *testing.T) {
	t.Cleanup(viper.Reset)

	var out bytes.Buffer
	require.NoError(t, run([]string{"--version"}, strings.NewReader(""), &out))
	assert.Contains(t, out.String(), AppName)
}

func TestRun_Usage(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := run(nil, strings.NewReader(""), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage")
}

func TestRun_ExportsJSON(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	writeConfig(t, dir, "memory")
	target := filepath.Join(dir, "out", "cells.json")

	var out bytes.Buffer
	err := run([]string{"--config-dir", dir, "-o", target, "--summary", sampleSession}, strings.NewReader(""), &out)
	require.NoError(t, err)

	assert.FileExists(t, target)
	assert.Contains(t, out.String(), "1 point records")
	assert.Contains(t, out.String(), target)

	logs, err := filepath.Glob(filepath.Join(dir, "logs", "mars_export.*.log"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	content, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "Exporting tracks to Mars MoleculeArchive.")
}

func TestRun_ExportsXMLInteractively(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	writeConfig(t, dir, "xml")
	target := filepath.Join(dir, "tracks.xml")

	var out bytes.Buffer
	err := run([]string{"--config-dir", dir, sampleSession}, strings.NewReader(target+"\n"), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Save archive to [")
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<Tracks nTracks="1"`)
}

func TestRun_StorageFlagOverridesConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	writeConfig(t, dir, "memory")

	err := run([]string{"--config-dir", dir, "--storage", "carrier-pigeon", "-y", sampleSession}, strings.NewReader(""), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")
}
