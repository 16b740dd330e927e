// Package evaluate - Orchestration of the index, compute, aggregate stages.
package evaluate

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/glacier-ml/segeval/arrayio"
	"github.com/glacier-ml/segeval/catalog"
	"github.com/glacier-ml/segeval/config"
	"github.com/glacier-ml/segeval/logging"
	"github.com/glacier-ml/segeval/metrics"
)

// Failure records one sample whose evaluation could not complete. Failures
// are isolated: the rest of the catalogue is still evaluated.
type Failure struct {
	Split  string
	Sample int
	Err    error
}

// Result is the full output of one evaluation run.
type Result struct {
	// Records are all metric measurements, sorted by split, sample, class,
	// then threshold.
	Records []metrics.Record
	// Aggregates are the per-(split, sample, class) threshold-axis means.
	Aggregates []metrics.Aggregate
	// Ranking orders samples by mean metric per class and kind.
	Ranking []metrics.RankEntry
	// Skipped lists samples whose artifact triple was incomplete.
	Skipped []*catalog.Incomplete
	// Failures lists samples that loaded or scored unsuccessfully.
	Failures []Failure
}

// Pipeline runs the three-stage evaluation over a directory of artifacts.
// Sample triples are independent, so the compute stage fans out across a
// bounded worker pool; each triple's arrays live only for the duration of
// its metrics call.
type Pipeline struct {
	cfg   config.Config
	sweep metrics.Sweep
	log   *slog.Logger
}

// New validates cfg and builds a pipeline.
func New(cfg config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sweep, err := cfg.Sweep()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:   cfg,
		sweep: sweep,
		log:   logging.New("evaluate"),
	}, nil
}

// Run scans the catalogue, computes metrics for every complete triple, and
// aggregates the results. Incomplete triples and per-sample failures are
// reported in the Result and logged, not fatal. Cancelling ctx abandons the
// remaining queue; no partial global state is left behind.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	entries, skipped, err := catalog.Scan(p.cfg.BaseDir)
	if err != nil {
		return nil, err
	}
	for _, inc := range skipped {
		p.log.Warn("skipping incomplete triple", "split", inc.Split, "sample", inc.Index, "missing", inc.Missing)
	}

	res := &Result{Skipped: skipped}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := p.evaluateEntry(entry)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.log.Error("sample evaluation failed", "split", entry.Split, "sample", entry.Index, "error", err)
				res.Failures = append(res.Failures, Failure{Split: entry.Split, Sample: entry.Index, Err: err})
				return nil
			}
			res.Records = append(res.Records, records...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Workers finish in arbitrary order; restore catalogue order.
	sortRecords(res.Records)
	res.Aggregates = metrics.AggregateRecords(res.Records)
	res.Ranking = metrics.Rank(res.Aggregates)

	p.log.Info("evaluation complete",
		"samples", len(entries),
		"records", len(res.Records),
		"skipped", len(res.Skipped),
		"failures", len(res.Failures))
	return res, nil
}

// evaluateEntry loads one triple's label and probability arrays and scores
// them. The tensors go out of scope when it returns, which is what bounds
// peak memory to roughly Workers concurrent triples.
func (p *Pipeline) evaluateEntry(entry catalog.Entry) ([]metrics.Record, error) {
	y, err := arrayio.Load(entry.Label)
	if err != nil {
		return nil, err
	}
	yhat, err := arrayio.Load(entry.Prob)
	if err != nil {
		return nil, err
	}
	return metrics.Evaluate(entry.Split, entry.Index, y, yhat, p.sweep)
}

// Sweep exposes the resolved threshold sweep of this pipeline.
func (p *Pipeline) Sweep() metrics.Sweep {
	return p.sweep
}

func sortRecords(records []metrics.Record) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Split != b.Split {
			return splitRank(a.Split) < splitRank(b.Split)
		}
		if a.Sample != b.Sample {
			return a.Sample < b.Sample
		}
		if a.Class != b.Class {
			return a.Class < b.Class
		}
		return a.Threshold < b.Threshold
	})
}

func splitRank(split string) int {
	for i, s := range catalog.Splits {
		if s == split {
			return i
		}
	}
	return len(catalog.Splits)
}
