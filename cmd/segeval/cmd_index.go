package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glacier-ml/segeval/catalog"
)

var indexFlags struct {
	baseDir string
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "List the artifact catalogue and report incomplete triples",
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexFlags.baseDir, "base-dir", "", "Artifact directory containing train/ and test/ splits")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if indexFlags.baseDir != "" {
		cfg.BaseDir = indexFlags.baseDir
	}

	entries, incomplete, err := catalog.Scan(cfg.BaseDir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		fmt.Printf("%s/%d\n  x:     %s\n  y:     %s\n  y_hat: %s\n", e.Split, e.Index, e.Input, e.Label, e.Prob)
	}
	for _, inc := range incomplete {
		fmt.Printf("INCOMPLETE %v\n", inc)
	}
	fmt.Printf("%d complete, %d incomplete\n", len(entries), len(incomplete))
	return nil
}
