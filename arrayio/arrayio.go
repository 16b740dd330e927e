// Package arrayio - NumPy .npy serialization of evaluation tensors.
//
// Artifacts are written by the training environment and read back here for
// evaluation, so the only contract is the .npy container itself: shape and
// floating-point values survive the round trip exactly. Nothing in this
// package depends on how the arrays were produced.
package arrayio

import (
	"fmt"

	"github.com/kshedden/gonpy"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// LoadError wraps a failure to read one artifact file. The triple it belongs
// to is unscoreable, but the batch carries on.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load array %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads a .npy file into a float32 dense tensor, preserving the stored
// shape. Stored float64 data is converted; other dtypes are rejected.
func Load(path string) (*tensor.Dense, error) {
	r, err := gonpy.NewFileReader(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if r.ColumnMajor {
		return nil, &LoadError{Path: path, Err: errors.New("column-major (Fortran order) arrays are not supported")}
	}

	var data []float32
	switch r.Dtype {
	case "f4":
		data, err = r.GetFloat32()
	case "f8":
		var wide []float64
		wide, err = r.GetFloat64()
		if err == nil {
			data = make([]float32, len(wide))
			for i, v := range wide {
				data[i] = float32(v)
			}
		}
	default:
		err = errors.Errorf("unsupported dtype %q, want f4 or f8", r.Dtype)
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	shape := make([]int, len(r.Shape))
	copy(shape, r.Shape)
	return tensor.New(tensor.WithShape(shape...), tensor.Of(tensor.Float32), tensor.WithBacking(data)), nil
}

// Save writes a float32 dense tensor to path as a .npy file.
func Save(path string, t *tensor.Dense) error {
	data, ok := t.Data().([]float32)
	if !ok {
		return errors.Errorf("save %s: tensor is %v, want float32", path, t.Dtype())
	}
	w, err := gonpy.NewFileWriter(path)
	if err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	w.Shape = []int(t.Shape())
	if err := w.WriteFloat32(data); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}
