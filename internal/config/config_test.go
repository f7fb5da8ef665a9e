package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"dataset": {
			"path": "data/crashes.csv",
			"columns": {"Jahr": "year"},
			"strict": true,
			"dedup": "first"
		},
		"server": {"addr": ":9090"},
		"reload": {"watch": true, "cron": "@hourly"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "data/crashes.csv", cfg.Dataset.Path)
	assert.Equal(t, "year", cfg.Dataset.Columns["Jahr"])
	assert.True(t, cfg.Dataset.Strict)
	assert.Equal(t, "first", cfg.Dataset.Dedup)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.Reload.Watch)
	assert.Equal(t, "@hourly", cfg.Reload.Cron)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"dataset": {"path": "crashes.csv"}}`))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Dataset.Strict)
	assert.Empty(t, cfg.Dataset.Dedup)
}

func TestLoadConfigMissingPath(t *testing.T) {
	_, err := Load(writeConfig(t, `{"server": {"addr": ":8080"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset.path")
}

func TestLoadConfigBadDedup(t *testing.T) {
	_, err := Load(writeConfig(t, `{"dataset": {"path": "x.csv", "dedup": "merge"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dedup")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
