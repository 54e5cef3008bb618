package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Catalog.Source)
	assert.Nil(t, cfg.Log.Level)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	require.Error(t, err)
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[catalog]
source = "http"
url = "http://localhost:9000"
timeout = "3s"
retries = 4

[server]
addr = ":9000"

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Catalog.Source)
	assert.Equal(t, "http", *cfg.Catalog.Source)
	require.NotNil(t, cfg.Catalog.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Catalog.Timeout.Duration)
	require.NotNil(t, cfg.Catalog.Retries)
	assert.Equal(t, 4, *cfg.Catalog.Retries)
	assert.Nil(t, cfg.Catalog.DB)
	require.NotNil(t, cfg.Server.Addr)
	assert.Equal(t, ":9000", *cfg.Server.Addr)
	require.NotNil(t, cfg.Log.Level)
	assert.Equal(t, "debug", *cfg.Log.Level)
}

func TestLoadConfigInvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[catalog]\ntimeout = \"soon\"\n"), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")
	assert.Equal(t, filepath.Join("/cfg", "coursepick", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/data", "coursepick", "coursepick.db"), DefaultDBPath())
	assert.Equal(t, filepath.Join("/state", "coursepick", "coursepick.log"), DefaultLogPath())
}
