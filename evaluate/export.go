package evaluate

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/glacier-ml/segeval/metrics"
)

// WriteRecordsCSV exports metric records as a delimited table for external
// plotting tooling. Undefined values become empty fields so consumers never
// mistake them for real scores.
func WriteRecordsCSV(path string, records []metrics.Record) error {
	return writeCSV(path, []string{"split", "sample", "class", "threshold", "precision", "recall"},
		len(records), func(i int) []string {
			r := records[i]
			return []string{
				r.Split,
				strconv.Itoa(r.Sample),
				strconv.Itoa(r.Class),
				formatFloat(r.Threshold),
				formatMetric(r.Precision),
				formatMetric(r.Recall),
			}
		})
}

// WriteAggregatesCSV exports the per-sample aggregates.
func WriteAggregatesCSV(path string, aggregates []metrics.Aggregate) error {
	return writeCSV(path, []string{"split", "sample", "class", "mean_precision", "mean_recall"},
		len(aggregates), func(i int) []string {
			a := aggregates[i]
			return []string{
				a.Split,
				strconv.Itoa(a.Sample),
				strconv.Itoa(a.Class),
				formatMetric(a.MeanPrecision),
				formatMetric(a.MeanRecall),
			}
		})
}

func writeCSV(path string, header []string, n int, row func(int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "export %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return errors.Wrapf(err, "export %s", path)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return errors.Wrapf(err, "export %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrapf(err, "export %s", path)
	}
	return nil
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func formatMetric(v float32) string {
	if !metrics.Defined(v) {
		return ""
	}
	return formatFloat(v)
}
