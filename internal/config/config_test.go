package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ".ctxhub", cfg.DataDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 3, cfg.Memory.TopK)
	assert.Equal(t, 60, cfg.Memory.KRRF)
	assert.Equal(t, 4, cfg.Memory.Overfetch)
	assert.True(t, cfg.Maintenance.Enabled)
}

func TestDBPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/ctxhub"

	assert.Equal(t, filepath.Join("/var/lib/ctxhub", "memory.sqlite"), cfg.MemoryDBPath())
	assert.Equal(t, filepath.Join("/var/lib/ctxhub", "agenda.sqlite"), cfg.AgendaDBPath())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Memory, cfg.Memory)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ctxhub.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"data_dir": "/tmp/ctxhub-test",
		"memory": {"top_k": 7},
		"logging": {"level": "debug"}
	}`), 0644))

	cfg, err := NewLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/ctxhub-test", cfg.DataDir)
	assert.Equal(t, 7, cfg.Memory.TopK)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, 60, cfg.Memory.KRRF)
	assert.Equal(t, "memory.sqlite", cfg.Memory.DBFile)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := NewLoader().Load("/definitely/not/here.json")
	assert.Error(t, err)
}
