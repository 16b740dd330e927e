// Package metrics - Per-class precision/recall computation over a threshold sweep.
package metrics

import "github.com/chewxy/math32"

// Record is one precision/recall measurement for a single sample, class
// channel, and decision threshold.
type Record struct {
	Split     string  `json:"split"      yaml:"split"`
	Sample    int     `json:"sample"     yaml:"sample"`
	Class     int     `json:"class"      yaml:"class"`
	Threshold float32 `json:"threshold"  yaml:"threshold"`
	Precision float32 `json:"precision"  yaml:"precision"`
	Recall    float32 `json:"recall"     yaml:"recall"`
}

// Undefined returns the sentinel used when a metric has no scoreable
// denominator (no predicted positives for precision, no ground-truth
// positives for recall). It is a domain value, not a computation error,
// and is deliberately never collapsed to 0 or 1.
func Undefined() float32 {
	return math32.NaN()
}

// Defined reports whether v is a scoreable metric value.
func Defined(v float32) bool {
	return !math32.IsNaN(v)
}
