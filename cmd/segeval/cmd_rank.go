package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/glacier-ml/segeval/metrics"
	"github.com/glacier-ml/segeval/store"
)

var rankFlags struct {
	dbPath string
	class  int
	kind   string
	split  string
	limit  int
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Query ranked sample aggregates from a results database",
	RunE:  runRank,
}

func init() {
	rankCmd.Flags().StringVar(&rankFlags.dbPath, "db", "", "Results database written by evaluate --db")
	rankCmd.Flags().IntVar(&rankFlags.class, "class", 0, "Class channel to rank")
	rankCmd.Flags().StringVar(&rankFlags.kind, "kind", string(metrics.KindPrecision), "Metric kind (precision or recall)")
	rankCmd.Flags().StringVar(&rankFlags.split, "split", "", "Restrict to one split (train or test)")
	rankCmd.Flags().IntVar(&rankFlags.limit, "limit", 10, "Number of entries to show (0 for all)")
}

func runRank(cmd *cobra.Command, args []string) error {
	if rankFlags.dbPath == "" {
		return errors.New("--db is required")
	}
	kind := metrics.Kind(rankFlags.kind)
	if kind != metrics.KindPrecision && kind != metrics.KindRecall {
		return errors.Errorf("unknown metric kind %q", rankFlags.kind)
	}

	db, err := store.Open(rankFlags.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.TopAggregates(rankFlags.split, rankFlags.class, kind, rankFlags.limit)
	if err != nil {
		return err
	}
	for i, e := range entries {
		mean := "undefined"
		if metrics.Defined(e.Mean) {
			mean = fmt.Sprintf("%.4f", e.Mean)
		}
		fmt.Printf("%2d. %s/%d class %d mean %s %s\n", i+1, e.Split, e.Sample, e.Class, string(e.Kind), mean)
	}
	return nil
}
