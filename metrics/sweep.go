package metrics

import "github.com/pkg/errors"

// Sweep is an ordered, strictly increasing sequence of probability cutoffs
// in the open interval (0, 1), fixed for an evaluation run.
type Sweep []float32

// NewSweep builds a sweep of steps evenly spaced values from low to high
// inclusive. A single-step sweep contains only low.
func NewSweep(low, high float32, steps int) (Sweep, error) {
	if steps < 1 {
		return nil, errors.Errorf("sweep needs at least one step, got %d", steps)
	}
	if steps == 1 {
		s := Sweep{low}
		return s, s.Validate()
	}
	if low >= high {
		return nil, errors.Errorf("sweep bounds must satisfy low < high, got [%v, %v]", low, high)
	}
	s := make(Sweep, steps)
	span := high - low
	for i := range s {
		s[i] = low + span*float32(i)/float32(steps-1)
	}
	// Spaced floating-point steps can land a hair past high.
	s[steps-1] = high
	return s, s.Validate()
}

// Validate checks that the sweep is non-empty, strictly increasing, and
// stays inside (0, 1).
func (s Sweep) Validate() error {
	if len(s) == 0 {
		return errors.New("empty threshold sweep")
	}
	for i, t := range s {
		if t <= 0 || t >= 1 {
			return errors.Errorf("threshold %v at position %d outside (0, 1)", t, i)
		}
		if i > 0 && t <= s[i-1] {
			return errors.Errorf("thresholds not strictly increasing at position %d (%v <= %v)", i, t, s[i-1])
		}
	}
	return nil
}
