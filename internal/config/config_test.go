package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".recur"), cfg.DataDir)
	assert.Equal(t, "json", cfg.Backend)
	assert.Equal(t, time.Second, cfg.Tick)
	assert.True(t, cfg.Notify.Enabled)
	assert.Equal(t, "icon-192.png", cfg.Notify.Icon)
	assert.Equal(t, "127.0.0.1:8787", cfg.Serve.Addr)
	assert.Equal(t, "recur-v1", cfg.Cache.Name)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data_dir: /tmp/recur-data
backend: sqlite
tick: 250ms
notify:
  enabled: false
  bell: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("RECUR_THEME", "neon")
	t.Setenv("RECUR_SERVE_ADDR", ":9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/recur-data", cfg.DataDir)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Tick)
	assert.False(t, cfg.Notify.Enabled)
	assert.True(t, cfg.Notify.Bell)
	assert.Equal(t, "neon", cfg.Theme)
	assert.Equal(t, ":9999", cfg.Serve.Addr)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, "x"), ExpandHome("~/x"))
	assert.Equal(t, "/abs", ExpandHome("/abs"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}
