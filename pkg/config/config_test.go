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
	assert.Equal(t, 1, cfg.Processing.DerivativeWindow)
	assert.Equal(t, 13, cfg.Processing.SmoothWindow)
	assert.Equal(t, 9, cfg.Processing.SmoothOrder)
	assert.Equal(t, 15, cfg.Isosurface.TickCount)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Profile.Step, cfg.Profile.Step)
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "plotmodel.yaml")
	cfg := DefaultConfig()
	cfg.Processing.MedianWindow = 7
	cfg.Logging.Level = "debug"

	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Processing.MedianWindow)
	assert.Equal(t, "debug", loaded.Logging.Level)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	data := []byte("processing:\n  smoothWindow: 5\n  smoothOrder: 9\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("processing: [unclosed"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSpectrumPatterns(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.IsXDataset("photon_energy"))
	assert.True(t, cfg.IsXDataset("Energy"))
	assert.False(t, cfg.IsXDataset("counts"))
	assert.True(t, cfg.IsYDataset("total_counts"))
	assert.False(t, cfg.IsYDataset("energy"))
}
