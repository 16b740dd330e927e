// Package catalog - Discovery and pairing of per-sample evaluation artifacts.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind tags one of the three artifacts making up a sample triple.
type Kind string

const (
	// KindInput is the raw multispectral input patch.
	KindInput Kind = "x"
	// KindLabel is the binary per-class ground truth.
	KindLabel Kind = "y"
	// KindProb is the per-class predicted probability map.
	KindProb Kind = "y_hat"
)

// Splits is the canonical scan order of the split subdirectories.
var Splits = []string{"train", "test"}

// Entry describes one sample triple by path. It is built once at scan time;
// no component re-parses file names after that.
type Entry struct {
	// Split is the partition the sample belongs to ("train" or "test").
	Split string
	// Index is the numeric sample index embedded in the file names.
	Index int
	// Input is the path to the x artifact.
	Input string
	// Label is the path to the y artifact.
	Label string
	// Prob is the path to the y_hat artifact.
	Prob string
}

// Incomplete reports a sample whose triple is missing one or more artifact
// kinds. The paths that were found are kept so callers can decide whether
// the sample is salvageable (a missing y_hat, for example, can be produced
// by a predictor pass).
type Incomplete struct {
	Entry
	// Missing lists the absent kinds in x, y, y_hat order.
	Missing []Kind
}

func (e *Incomplete) Error() string {
	tags := make([]string, len(e.Missing))
	for i, k := range e.Missing {
		tags[i] = string(k)
	}
	return fmt.Sprintf("sample %s/%d missing artifacts: %s", e.Split, e.Index, strings.Join(tags, ", "))
}

// Scan walks baseDir/{train,test} and pairs artifact files into sample
// triples. File names embed a kind tag and a numeric index, e.g. x12.npy,
// y12.npy, y_hat12.npy. Complete triples come back sorted by split (train
// before test) then index ascending, so repeated scans of an unchanged
// directory yield an identical catalogue. Samples missing one or more kinds
// are reported separately, never silently dropped. Only directory traversal
// happens here; no array contents are loaded.
func Scan(baseDir string) ([]Entry, []*Incomplete, error) {
	if _, err := os.Stat(baseDir); err != nil {
		return nil, nil, errors.Wrapf(err, "scan %s", baseDir)
	}

	var entries []Entry
	var incomplete []*Incomplete
	seenSplit := false

	for _, split := range Splits {
		dir := filepath.Join(baseDir, split)
		files, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, nil, errors.Wrapf(err, "scan %s", dir)
		}
		seenSplit = true

		triples := make(map[int]*Entry)
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			kind, index, ok := parseName(f.Name())
			if !ok {
				continue
			}
			t, found := triples[index]
			if !found {
				t = &Entry{Split: split, Index: index}
				triples[index] = t
			}
			path := filepath.Join(dir, f.Name())
			switch kind {
			case KindInput:
				t.Input = path
			case KindLabel:
				t.Label = path
			case KindProb:
				t.Prob = path
			}
		}

		indices := make([]int, 0, len(triples))
		for i := range triples {
			indices = append(indices, i)
		}
		sort.Ints(indices)

		for _, i := range indices {
			t := triples[i]
			if missing := t.missing(); len(missing) > 0 {
				incomplete = append(incomplete, &Incomplete{Entry: *t, Missing: missing})
				continue
			}
			entries = append(entries, *t)
		}
	}

	if !seenSplit {
		return nil, nil, errors.Errorf("no split directories under %s (expected %s)", baseDir, strings.Join(Splits, " or "))
	}
	return entries, incomplete, nil
}

func (e *Entry) missing() []Kind {
	var m []Kind
	if e.Input == "" {
		m = append(m, KindInput)
	}
	if e.Label == "" {
		m = append(m, KindLabel)
	}
	if e.Prob == "" {
		m = append(m, KindProb)
	}
	return m
}

// parseName extracts the artifact kind and sample index from a file name.
// The y_hat prefix must be tried before y.
func parseName(name string) (Kind, int, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	var kind Kind
	var rest string
	switch {
	case strings.HasPrefix(stem, string(KindProb)):
		kind, rest = KindProb, stem[len(KindProb):]
	case strings.HasPrefix(stem, string(KindLabel)):
		kind, rest = KindLabel, stem[len(KindLabel):]
	case strings.HasPrefix(stem, string(KindInput)):
		kind, rest = KindInput, stem[len(KindInput):]
	default:
		return "", 0, false
	}

	index, err := strconv.Atoi(rest)
	if err != nil || index < 0 {
		return "", 0, false
	}
	return kind, index, true
}
