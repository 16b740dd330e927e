// Package config - Explicit run configuration for the evaluation pipeline.
//
// All paths and sweep bounds are carried in a Config value handed to each
// component at construction. There is no process-wide mutable state.
package config

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/glacier-ml/segeval/metrics"
)

// Config holds everything an evaluation run needs.
type Config struct {
	// BaseDir is the artifact directory containing train/ and test/ splits.
	BaseDir string `json:"baseDir"        yaml:"baseDir"`
	// OutputDir receives exported CSV tables.
	OutputDir string `json:"outputDir"      yaml:"outputDir"`
	// ThresholdLow is the inclusive lower bound of the threshold sweep.
	ThresholdLow float32 `json:"thresholdLow"   yaml:"thresholdLow"`
	// ThresholdHigh is the inclusive upper bound of the threshold sweep.
	ThresholdHigh float32 `json:"thresholdHigh"  yaml:"thresholdHigh"`
	// ThresholdSteps is the number of thresholds in the sweep.
	ThresholdSteps int `json:"thresholdSteps" yaml:"thresholdSteps"`
	// Workers bounds how many sample triples are evaluated (and therefore
	// resident in memory) at once. Tiles run to tens of megabytes each.
	Workers int `json:"workers"        yaml:"workers"`
	// ResultsDB, when set, is the path of a sqlite database to persist
	// records and aggregates into.
	ResultsDB string `json:"resultsDB"      yaml:"resultsDB"`
	// ModelPath is the ONNX segmentation model used by the predict stage.
	ModelPath string `json:"modelPath"      yaml:"modelPath"`
	// ONNXLibrary overrides the onnxruntime shared library location.
	ONNXLibrary string `json:"onnxLibrary"    yaml:"onnxLibrary"`
}

// Default returns the baseline configuration. BaseDir has no sensible
// default and must be supplied.
func Default() Config {
	return Config{
		OutputDir:      "results",
		ThresholdLow:   0.05,
		ThresholdHigh:  0.95,
		ThresholdSteps: 19,
		Workers:        runtime.NumCPU(),
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// Validate checks the fields every run needs.
func (c Config) Validate() error {
	if c.BaseDir == "" {
		return errors.New("baseDir is required")
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if _, err := c.Sweep(); err != nil {
		return err
	}
	return nil
}

// Sweep builds the threshold sweep from the configured bounds.
func (c Config) Sweep() (metrics.Sweep, error) {
	return metrics.NewSweep(c.ThresholdLow, c.ThresholdHigh, c.ThresholdSteps)
}
