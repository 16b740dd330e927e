package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSweep(t *testing.T) {
	cfg := Default()
	cfg.BaseDir = "artifacts"
	require.NoError(t, cfg.Validate())

	sweep, err := cfg.Sweep()
	require.NoError(t, err)
	assert.Len(t, sweep, 19)
	assert.Equal(t, float32(0.05), sweep[0])
	assert.Equal(t, float32(0.95), sweep[18])
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
baseDir: /data/patches
thresholdLow: 0.2
thresholdHigh: 0.8
thresholdSteps: 7
workers: 3
resultsDB: results.db
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/patches", cfg.BaseDir)
	assert.Equal(t, float32(0.2), cfg.ThresholdLow)
	assert.Equal(t, float32(0.8), cfg.ThresholdHigh)
	assert.Equal(t, 7, cfg.ThresholdSteps)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "results.db", cfg.ResultsDB)
	// Untouched fields keep their defaults.
	assert.Equal(t, "results", cfg.OutputDir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("baseDir: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate(), "baseDir is required")

	cfg.BaseDir = "artifacts"
	cfg.Workers = 0
	assert.Error(t, cfg.Validate())

	cfg.Workers = 1
	cfg.ThresholdLow = 0.9
	cfg.ThresholdHigh = 0.1
	assert.Error(t, cfg.Validate())
}
