package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Aggregate summarizes one (split, sample, class) group: the mean precision
// and mean recall across the threshold axis, with undefined measurements
// excluded from both sum and count. A group whose measurements are all
// undefined aggregates to Undefined, keeping "no scoreable thresholds"
// distinct from a perfect or worst score.
type Aggregate struct {
	Split         string  `json:"split"          yaml:"split"`
	Sample        int     `json:"sample"         yaml:"sample"`
	Class         int     `json:"class"          yaml:"class"`
	MeanPrecision float32 `json:"meanPrecision"  yaml:"meanPrecision"`
	MeanRecall    float32 `json:"meanRecall"     yaml:"meanRecall"`
}

// Kind selects one of the two metrics carried by a Record.
type Kind string

const (
	// KindPrecision ranks by mean precision.
	KindPrecision Kind = "precision"
	// KindRecall ranks by mean recall.
	KindRecall Kind = "recall"
)

// RankEntry is one row of a ranking: a sample's mean value for a single
// class and metric kind.
type RankEntry struct {
	Class  int     `json:"class"   yaml:"class"`
	Kind   Kind    `json:"kind"    yaml:"kind"`
	Split  string  `json:"split"   yaml:"split"`
	Sample int     `json:"sample"  yaml:"sample"`
	Mean   float32 `json:"mean"    yaml:"mean"`
}

type groupKey struct {
	split  string
	sample int
	class  int
}

type groupVals struct {
	precisions []float64
	recalls    []float64
}

// AggregateRecords groups records by (split, sample, class) and averages
// precision and recall over the threshold axis. The result is deterministic
// for a given record set regardless of input order: groups are emitted
// sorted by split, sample, then class.
func AggregateRecords(records []Record) []Aggregate {
	groups := make(map[groupKey]*groupVals)
	for _, r := range records {
		key := groupKey{r.Split, r.Sample, r.Class}
		g, ok := groups[key]
		if !ok {
			g = &groupVals{}
			groups[key] = g
		}
		if Defined(r.Precision) {
			g.precisions = append(g.precisions, float64(r.Precision))
		}
		if Defined(r.Recall) {
			g.recalls = append(g.recalls, float64(r.Recall))
		}
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.split != b.split {
			return a.split < b.split
		}
		if a.sample != b.sample {
			return a.sample < b.sample
		}
		return a.class < b.class
	})

	aggregates := make([]Aggregate, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		aggregates = append(aggregates, Aggregate{
			Split:         k.split,
			Sample:        k.sample,
			Class:         k.class,
			MeanPrecision: definedMean(g.precisions),
			MeanRecall:    definedMean(g.recalls),
		})
	}
	return aggregates
}

func definedMean(vals []float64) float32 {
	if len(vals) == 0 {
		return Undefined()
	}
	return float32(stat.Mean(vals, nil))
}

// Rank flattens aggregates into a deterministic ranking: class ascending,
// precision entries before recall entries, mean descending with undefined
// means last, ties broken by sample index ascending.
func Rank(aggregates []Aggregate) []RankEntry {
	entries := make([]RankEntry, 0, 2*len(aggregates))
	for _, a := range aggregates {
		entries = append(entries,
			RankEntry{Class: a.Class, Kind: KindPrecision, Split: a.Split, Sample: a.Sample, Mean: a.MeanPrecision},
			RankEntry{Class: a.Class, Kind: KindRecall, Split: a.Split, Sample: a.Sample, Mean: a.MeanRecall},
		)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Class != b.Class {
			return a.Class < b.Class
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if da, db := Defined(a.Mean), Defined(b.Mean); da != db {
			return da
		} else if da && a.Mean != b.Mean {
			return a.Mean > b.Mean
		}
		return a.Sample < b.Sample
	})
	return entries
}

// FilterSplit selects the aggregates belonging to one split. It is a
// read-only view over the same records, not a recomputation.
func FilterSplit(aggregates []Aggregate, split string) []Aggregate {
	var out []Aggregate
	for _, a := range aggregates {
		if a.Split == split {
			out = append(out, a)
		}
	}
	return out
}
