package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, QR_IMAGE_SIZE, cfg.QRSize)
	assert.True(t, cfg.MetricsEnabled)
	assert.Nil(t, cfg.Storage.Remote)
	require.NotNil(t, cfg.Storage.Local)
	assert.Equal(t, getConfigPath()+"/data/instruments.db", cfg.Storage.Local.Path)
	assert.Same(t, cfg, Cfg)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BASE_URL", "https://lab.example.com/")
	t.Setenv("STORAGE_REMOTE_DSN", "postgres://tracker@db:5432/instruments")
	t.Setenv("STORAGE_LOCAL_PATH", ":memory:")
	t.Setenv("QR_SIZE", "-1")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://lab.example.com", cfg.BaseURL)
	require.NotNil(t, cfg.Storage.Remote)
	assert.Equal(t, "postgres://tracker@db:5432/instruments", cfg.Storage.Remote.DSN)
	require.NotNil(t, cfg.Storage.Local)
	assert.Equal(t, ":memory:", cfg.Storage.Local.Path)
	assert.Equal(t, QR_IMAGE_SIZE, cfg.QRSize)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("listen: \":9090\"\nstorage:\n  local:\n    path: /var/lib/tracker/instruments.db\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "/var/lib/tracker/instruments.db", cfg.Storage.Local.Path)
}
