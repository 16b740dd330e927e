package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/glacier-ml/segeval/arrayio"
	"github.com/glacier-ml/segeval/catalog"
	"github.com/glacier-ml/segeval/inference"
	"github.com/glacier-ml/segeval/logging"
)

var predictFlags struct {
	baseDir   string
	modelPath string
	onnxLib   string
	overwrite bool
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Generate y_hat probability maps from saved input patches",
	Long: "Predict runs the ONNX segmentation model over every catalogued input patch\n" +
		"and writes a y_hat<index>.npy probability map next to it, completing the\n" +
		"triples the evaluate command consumes.",
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&predictFlags.baseDir, "base-dir", "", "Artifact directory containing train/ and test/ splits")
	predictCmd.Flags().StringVar(&predictFlags.modelPath, "model", "", "ONNX segmentation model path")
	predictCmd.Flags().StringVar(&predictFlags.onnxLib, "onnx-lib", "", "onnxruntime shared library path")
	predictCmd.Flags().BoolVar(&predictFlags.overwrite, "overwrite", false, "Regenerate predictions that already exist")
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if predictFlags.baseDir != "" {
		cfg.BaseDir = predictFlags.baseDir
	}
	if predictFlags.modelPath != "" {
		cfg.ModelPath = predictFlags.modelPath
	}
	if predictFlags.onnxLib != "" {
		cfg.ONNXLibrary = predictFlags.onnxLib
	}
	if cfg.ModelPath == "" {
		return errors.New("a model path is required (--model or modelPath in config)")
	}

	log := logging.New("predict")

	entries, incomplete, err := catalog.Scan(cfg.BaseDir)
	if err != nil {
		return err
	}

	// Complete triples are re-predicted only on request; incomplete triples
	// that still have an input patch are exactly the ones a predictor pass
	// can finish.
	var inputs []catalog.Entry
	if predictFlags.overwrite {
		inputs = append(inputs, entries...)
	}
	for _, inc := range incomplete {
		if inc.Input != "" && inc.Prob == "" {
			inputs = append(inputs, inc.Entry)
		}
	}

	predictor, err := inference.NewPredictor(inference.Config{
		ModelPath:   cfg.ModelPath,
		LibraryPath: cfg.ONNXLibrary,
	})
	if err != nil {
		return err
	}
	defer predictor.Close()

	written := 0
	for _, entry := range inputs {
		x, err := arrayio.Load(entry.Input)
		if err != nil {
			log.Error("load input failed", "split", entry.Split, "sample", entry.Index, "error", err)
			continue
		}
		yhat, err := predictor.Predict(x)
		if err != nil {
			log.Error("prediction failed", "split", entry.Split, "sample", entry.Index, "error", err)
			continue
		}
		out := filepath.Join(filepath.Dir(entry.Input), "y_hat"+strconv.Itoa(entry.Index)+".npy")
		if err := arrayio.Save(out, yhat); err != nil {
			log.Error("save prediction failed", "split", entry.Split, "sample", entry.Index, "error", err)
			continue
		}
		written++
	}

	fmt.Printf("wrote %d probability maps\n", written)
	return nil
}
