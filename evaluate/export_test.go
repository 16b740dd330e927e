package evaluate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glacier-ml/segeval/metrics"
)

func TestWriteRecordsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	records := []metrics.Record{
		{Split: "train", Sample: 0, Class: 0, Threshold: 0.5, Precision: 1, Recall: 0.5},
		{Split: "train", Sample: 0, Class: 1, Threshold: 0.5, Precision: metrics.Undefined(), Recall: 0},
	}

	require.NoError(t, WriteRecordsCSV(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "split,sample,class,threshold,precision,recall", lines[0])
	assert.Equal(t, "train,0,0,0.5,1,0.5", lines[1])
	// Undefined precision exports as an empty field, never a number.
	assert.Equal(t, "train,0,1,0.5,,0", lines[2])
}

func TestWriteAggregatesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aggregates.csv")
	aggregates := []metrics.Aggregate{
		{Split: "test", Sample: 3, Class: 0, MeanPrecision: 0.75, MeanRecall: metrics.Undefined()},
	}

	require.NoError(t, WriteAggregatesCSV(path, aggregates))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "split,sample,class,mean_precision,mean_recall", lines[0])
	assert.Equal(t, "test,3,0,0.75,", lines[1])
}

func TestWriteCSVBadPath(t *testing.T) {
	err := WriteRecordsCSV(filepath.Join(t.TempDir(), "missing", "records.csv"), nil)
	assert.Error(t, err)
}
