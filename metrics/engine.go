package metrics

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ShapeMismatchError reports a label tensor and probability tensor whose
// shapes disagree. Shapes are never coerced; the sample is unscoreable.
type ShapeMismatchError struct {
	Label tensor.Shape
	Prob  tensor.Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("label shape %v does not match prediction shape %v", e.Label, e.Prob)
}

// Evaluate computes precision and recall for every class channel of one
// sample across the threshold sweep.
//
// y and yhat are classes x height x width float32 tensors: y holds binary
// ground truth per class, yhat per-class probabilities in [0, 1]. A pixel is
// predicted positive when yhat[k] > t (strict). Output ordering is
// deterministic: class ascending, then threshold in sweep order. Downstream
// aggregation and curve plotting rely on it.
//
// Zero-denominator cases yield the Undefined sentinel: precision when the
// model predicted no positives at that threshold, recall when the ground
// truth has no positive pixels for that class. The latter is a property of
// the data, not a scoring failure.
func Evaluate(split string, sample int, y, yhat *tensor.Dense, sweep Sweep) ([]Record, error) {
	if err := sweep.Validate(); err != nil {
		return nil, err
	}
	if !y.Shape().Eq(yhat.Shape()) {
		return nil, &ShapeMismatchError{Label: y.Shape().Clone(), Prob: yhat.Shape().Clone()}
	}
	if y.Dims() != 3 {
		return nil, errors.Errorf("expected classes x height x width tensor, got %d dimensions", y.Dims())
	}
	truth, ok := y.Data().([]float32)
	if !ok {
		return nil, errors.Errorf("label tensor is %v, want float32", y.Dtype())
	}
	probs, ok := yhat.Data().([]float32)
	if !ok {
		return nil, errors.Errorf("prediction tensor is %v, want float32", yhat.Dtype())
	}

	classes := y.Shape()[0]
	plane := y.Shape()[1] * y.Shape()[2]

	records := make([]Record, 0, classes*len(sweep))
	for k := 0; k < classes; k++ {
		yk := truth[k*plane : (k+1)*plane]
		pk := probs[k*plane : (k+1)*plane]

		var truthPos float64
		for _, v := range yk {
			truthPos += float64(v)
		}

		for _, t := range sweep {
			var predicted, intersection float64
			for i, p := range pk {
				if p > t {
					predicted++
					intersection += float64(yk[i])
				}
			}

			precision := Undefined()
			if predicted > 0 {
				precision = float32(intersection / predicted)
			}
			recall := Undefined()
			if truthPos > 0 {
				recall = float32(intersection / truthPos)
			}

			records = append(records, Record{
				Split:     split,
				Sample:    sample,
				Class:     k,
				Threshold: t,
				Precision: precision,
				Recall:    recall,
			})
		}
	}
	return records, nil
}
