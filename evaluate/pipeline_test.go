package evaluate

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/glacier-ml/segeval/arrayio"
	"github.com/glacier-ml/segeval/config"
	"github.com/glacier-ml/segeval/metrics"
)

func testConfig(baseDir string) config.Config {
	cfg := config.Default()
	cfg.BaseDir = baseDir
	cfg.ThresholdLow = 0.25
	cfg.ThresholdHigh = 0.75
	cfg.ThresholdSteps = 3
	cfg.Workers = 2
	return cfg
}

// writeSample saves a full x/y/y_hat triple of 2-class 2x2 tiles.
func writeSample(t *testing.T, dir string, index int, y, yhat []float32) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	save := func(prefix string, data []float32) {
		dense := tensor.New(tensor.WithShape(2, 2, 2), tensor.Of(tensor.Float32), tensor.WithBacking(data))
		require.NoError(t, arrayio.Save(filepath.Join(dir, prefix+strconv.Itoa(index)+".npy"), dense))
	}
	save("x", make([]float32, 8))
	save("y", y)
	save("y_hat", yhat)
}

func TestPipelineRun(t *testing.T) {
	base := t.TempDir()
	trainDir := filepath.Join(base, "train")
	testDir := filepath.Join(base, "test")

	perfect := []float32{1, 0, 0, 1, 0, 0, 0, 0}
	confident := []float32{0.9, 0.1, 0.2, 0.8, 0.1, 0.1, 0.1, 0.1}
	writeSample(t, trainDir, 0, perfect, confident)
	writeSample(t, trainDir, 1, perfect, perfect)
	writeSample(t, testDir, 0, perfect, confident)

	// Incomplete triple: input only.
	xOnly := tensor.New(tensor.WithShape(2, 2, 2), tensor.Of(tensor.Float32), tensor.WithBacking(make([]float32, 8)))
	require.NoError(t, arrayio.Save(filepath.Join(trainDir, "x5.npy"), xOnly))

	// Corrupt prediction artifact: the sample fails, the batch survives.
	writeSample(t, testDir, 1, perfect, confident)
	require.NoError(t, os.WriteFile(filepath.Join(testDir, "y_hat1.npy"), []byte("corrupt"), 0o644))

	pipeline, err := New(testConfig(base))
	require.NoError(t, err)

	result, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	// 3 scoreable samples x 2 classes x 3 thresholds.
	assert.Len(t, result.Records, 18)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 5, result.Skipped[0].Index)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "test", result.Failures[0].Split)
	assert.Equal(t, 1, result.Failures[0].Sample)

	// Deterministic record order: train before test, then sample, class,
	// threshold ascending.
	r := result.Records
	assert.Equal(t, "train", r[0].Split)
	assert.Equal(t, 0, r[0].Sample)
	assert.Equal(t, 0, r[0].Class)
	assert.Equal(t, float32(0.25), r[0].Threshold)
	assert.Equal(t, 1, r[3].Class)
	assert.Equal(t, "train", r[6].Split)
	assert.Equal(t, 1, r[6].Sample)
	assert.Equal(t, "test", r[12].Split)

	// 3 samples x 2 classes grouped.
	assert.Len(t, result.Aggregates, 6)
	assert.Len(t, result.Ranking, 12)

	// Class 0 on train/0: probabilities match the label exactly at every
	// threshold in the sweep.
	agg := metrics.FilterSplit(result.Aggregates, "train")[0]
	assert.Equal(t, float32(1), agg.MeanPrecision)
	assert.Equal(t, float32(1), agg.MeanRecall)
}

func TestPipelineRunTwiceIdentical(t *testing.T) {
	base := t.TempDir()
	perfect := []float32{1, 0, 0, 1, 0, 0, 0, 0}
	confident := []float32{0.9, 0.1, 0.2, 0.8, 0.1, 0.1, 0.1, 0.1}
	writeSample(t, filepath.Join(base, "train"), 0, perfect, confident)

	pipeline, err := New(testConfig(base))
	require.NoError(t, err)

	first, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	second, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	if diff := cmp.Diff(first.Records, second.Records, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("records changed between runs (-first +second):\n%s", diff)
	}
}

func TestPipelineCancellation(t *testing.T) {
	base := t.TempDir()
	perfect := []float32{1, 0, 0, 1, 0, 0, 0, 0}
	for i := 0; i < 8; i++ {
		writeSample(t, filepath.Join(base, "train"), i, perfect, perfect)
	}

	pipeline, err := New(testConfig(base))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = pipeline.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipelineRejectsBadConfig(t *testing.T) {
	cfg := testConfig("")
	_, err := New(cfg)
	assert.Error(t, err, "baseDir is required")

	cfg = testConfig(t.TempDir())
	cfg.ThresholdSteps = 0
	_, err = New(cfg)
	assert.Error(t, err)
}
