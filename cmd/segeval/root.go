package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/glacier-ml/segeval/config"
	"github.com/glacier-ml/segeval/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

var rootCmd = &cobra.Command{
	Use:   "segeval",
	Short: "Threshold-sweep evaluation of segmentation predictions",
	Long: "Segeval pairs saved input/label/prediction artifacts, computes per-class\n" +
		"precision/recall curves across a threshold sweep, and ranks samples by\n" +
		"prediction quality for qualitative inspection.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, rootFlags.logFormat)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.Version = version
}

// loadConfig resolves the run configuration: file (when --config is given)
// over defaults, then any command-line overrides applied by the caller.
func loadConfig() (config.Config, error) {
	if rootFlags.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(rootFlags.configPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
