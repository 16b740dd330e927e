package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/glacier-ml/segeval/evaluate"
	"github.com/glacier-ml/segeval/store"
)

var evaluateFlags struct {
	baseDir   string
	outputDir string
	tLow      float64
	tHigh     float64
	steps     int
	workers   int
	dbPath    string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run the evaluation pipeline and export metric tables",
	Long: "Evaluate scans the artifact directory, computes per-class precision/recall\n" +
		"across the threshold sweep for every complete sample triple, and writes\n" +
		"records.csv and aggregates.csv to the output directory.",
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluateFlags.baseDir, "base-dir", "", "Artifact directory containing train/ and test/ splits")
	evaluateCmd.Flags().StringVar(&evaluateFlags.outputDir, "output-dir", "", "Directory for exported CSV tables")
	evaluateCmd.Flags().Float64Var(&evaluateFlags.tLow, "threshold-low", 0, "Lower threshold bound (overrides config)")
	evaluateCmd.Flags().Float64Var(&evaluateFlags.tHigh, "threshold-high", 0, "Upper threshold bound (overrides config)")
	evaluateCmd.Flags().IntVar(&evaluateFlags.steps, "threshold-steps", 0, "Number of thresholds in the sweep (overrides config)")
	evaluateCmd.Flags().IntVar(&evaluateFlags.workers, "workers", 0, "Concurrent sample evaluations (overrides config)")
	evaluateCmd.Flags().StringVar(&evaluateFlags.dbPath, "db", "", "Also persist results to this sqlite database")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if evaluateFlags.baseDir != "" {
		cfg.BaseDir = evaluateFlags.baseDir
	}
	if evaluateFlags.outputDir != "" {
		cfg.OutputDir = evaluateFlags.outputDir
	}
	if cmd.Flags().Changed("threshold-low") {
		cfg.ThresholdLow = float32(evaluateFlags.tLow)
	}
	if cmd.Flags().Changed("threshold-high") {
		cfg.ThresholdHigh = float32(evaluateFlags.tHigh)
	}
	if evaluateFlags.steps > 0 {
		cfg.ThresholdSteps = evaluateFlags.steps
	}
	if evaluateFlags.workers > 0 {
		cfg.Workers = evaluateFlags.workers
	}
	if evaluateFlags.dbPath != "" {
		cfg.ResultsDB = evaluateFlags.dbPath
	}

	pipeline, err := evaluate.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return err
	}
	recordsPath := filepath.Join(cfg.OutputDir, "records.csv")
	if err := evaluate.WriteRecordsCSV(recordsPath, result.Records); err != nil {
		return err
	}
	aggregatesPath := filepath.Join(cfg.OutputDir, "aggregates.csv")
	if err := evaluate.WriteAggregatesCSV(aggregatesPath, result.Aggregates); err != nil {
		return err
	}

	if cfg.ResultsDB != "" {
		db, err := store.Open(cfg.ResultsDB)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveRecords(result.Records); err != nil {
			return err
		}
		if err := db.SaveAggregates(result.Aggregates); err != nil {
			return err
		}
	}

	fmt.Printf("wrote %s and %s (%d records, %d skipped, %d failed)\n",
		recordsPath, aggregatesPath, len(result.Records), len(result.Skipped), len(result.Failures))
	return nil
}
