// Package inference - ONNX segmentation inference producing probability maps.
//
// Evaluation compares saved predictions against saved labels; this package
// is the producer side, run once per trained model to materialize y_hat
// artifacts next to the inputs they were generated from. Keeping the
// realized input and its prediction together is what lets the evaluation
// stage stay a pure comparison of co-generated artifacts.
package inference

import (
	"os"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"
)

// Config selects the model and runtime for a predictor.
type Config struct {
	// ModelPath is the ONNX segmentation model.
	ModelPath string `json:"modelPath"   yaml:"modelPath"`
	// LibraryPath overrides the onnxruntime shared library location. Empty
	// means the platform default under third_party/.
	LibraryPath string `json:"libraryPath" yaml:"libraryPath"`
	// InputName is the model's input tensor name. Defaults to "input".
	InputName string `json:"inputName"   yaml:"inputName"`
	// OutputName is the model's output tensor name. Defaults to "output".
	OutputName string `json:"outputName"  yaml:"outputName"`
}

// Predictor runs a segmentation network over input patches.
type Predictor struct {
	session *ort.DynamicAdvancedSession
}

// NewPredictor initializes the ONNX runtime and opens a session for the
// configured model.
func NewPredictor(cfg Config) (*Predictor, error) {
	libPath := cfg.LibraryPath
	if libPath == "" {
		libPath = GetSharedLibPath()
	}
	if _, err := os.Stat(libPath); err != nil {
		return nil, errors.Wrapf(err, "onnxruntime library not found at %s", libPath)
	}

	if !ort.IsInitialized() {
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.Wrap(err, "initialize onnxruntime environment")
		}
	}

	inputName := cfg.InputName
	if inputName == "" {
		inputName = "input"
	}
	outputName := cfg.OutputName
	if outputName == "" {
		outputName = "output"
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, []string{inputName}, []string{outputName}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open session for %s", cfg.ModelPath)
	}
	return &Predictor{session: session}, nil
}

// Predict runs one channels x height x width input patch through the model
// and returns per-class probabilities of the same spatial dimensions.
// Network outputs are treated as logits and squashed with a sigmoid.
func (p *Predictor) Predict(x *tensor.Dense) (*tensor.Dense, error) {
	if x.Dims() != 3 {
		return nil, errors.Errorf("expected channels x height x width input, got %d dimensions", x.Dims())
	}
	data, ok := x.Data().([]float32)
	if !ok {
		return nil, errors.Errorf("input tensor is %v, want float32", x.Dtype())
	}

	shape := x.Shape()
	inputShape := ort.NewShape(1, int64(shape[0]), int64(shape[1]), int64(shape[2]))
	input, err := ort.NewTensor(inputShape, data)
	if err != nil {
		return nil, errors.Wrap(err, "create input tensor")
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := p.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, errors.Wrap(err, "run inference")
	}
	output, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.New("model produced a non-float32 output")
	}
	defer output.Destroy()

	outShape := output.GetShape()
	if len(outShape) != 4 || outShape[0] != 1 {
		return nil, errors.Errorf("expected batch x classes x height x width output, got %v", outShape)
	}

	logits := output.GetData()
	probs := make([]float32, len(logits))
	for i, v := range logits {
		probs[i] = sigmoid(v)
	}
	return tensor.New(
		tensor.WithShape(int(outShape[1]), int(outShape[2]), int(outShape[3])),
		tensor.Of(tensor.Float32),
		tensor.WithBacking(probs),
	), nil
}

// Close destroys the session. The runtime environment stays initialized for
// the rest of the process.
func (p *Predictor) Close() error {
	return p.session.Destroy()
}

func sigmoid(v float32) float32 {
	return 1 / (1 + math32.Exp(-v))
}
