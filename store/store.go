// Package store - sqlite persistence of evaluation results.
//
// External tooling (plots, notebooks) queries rankings from here without
// re-running the pipeline. Undefined metric values are stored as NULL so
// they can never be confused with a numeric score.
package store

import (
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/glacier-ml/segeval/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS metric_records (
	split     TEXT NOT NULL,
	sample    INTEGER NOT NULL,
	class     INTEGER NOT NULL,
	threshold REAL NOT NULL,
	precision REAL,
	recall    REAL
);
CREATE TABLE IF NOT EXISTS aggregates (
	split          TEXT NOT NULL,
	sample         INTEGER NOT NULL,
	class          INTEGER NOT NULL,
	mean_precision REAL,
	mean_recall    REAL,
	PRIMARY KEY (split, sample, class)
);
CREATE INDEX IF NOT EXISTS idx_records_group ON metric_records (split, sample, class);
`

// Store wraps the results database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the results database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open results db %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "init results db %s", path)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRecords inserts metric records in one transaction.
func (s *Store) SaveRecords(records []metrics.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "save records")
	}
	stmt, err := tx.Prepare(
		"INSERT INTO metric_records (split, sample, class, threshold, precision, recall) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "save records")
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.Split, r.Sample, r.Class, r.Threshold, nullable(r.Precision), nullable(r.Recall)); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "save record %s/%d class %d", r.Split, r.Sample, r.Class)
		}
	}
	return errors.Wrap(tx.Commit(), "save records")
}

// SaveAggregates upserts the per-sample aggregates.
func (s *Store) SaveAggregates(aggregates []metrics.Aggregate) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "save aggregates")
	}
	stmt, err := tx.Prepare(
		"INSERT OR REPLACE INTO aggregates (split, sample, class, mean_precision, mean_recall) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "save aggregates")
	}
	defer stmt.Close()

	for _, a := range aggregates {
		if _, err := stmt.Exec(a.Split, a.Sample, a.Class, nullable(a.MeanPrecision), nullable(a.MeanRecall)); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "save aggregate %s/%d class %d", a.Split, a.Sample, a.Class)
		}
	}
	return errors.Wrap(tx.Commit(), "save aggregates")
}

// TopAggregates returns ranked entries for one class and metric kind, best
// mean first, undefined means last, ties by sample index. An empty split
// matches both splits. limit <= 0 means no limit.
func (s *Store) TopAggregates(split string, class int, kind metrics.Kind, limit int) ([]metrics.RankEntry, error) {
	column := "mean_precision"
	if kind == metrics.KindRecall {
		column = "mean_recall"
	}

	query := "SELECT split, sample, " + column + " FROM aggregates WHERE class = ?"
	args := []any{class}
	if split != "" {
		query += " AND split = ?"
		args = append(args, split)
	}
	query += " ORDER BY " + column + " IS NULL, " + column + " DESC, sample ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query aggregates")
	}
	defer rows.Close()

	var entries []metrics.RankEntry
	for rows.Next() {
		var e metrics.RankEntry
		var mean sql.NullFloat64
		if err := rows.Scan(&e.Split, &e.Sample, &mean); err != nil {
			return nil, errors.Wrap(err, "scan aggregate")
		}
		e.Class = class
		e.Kind = kind
		e.Mean = metrics.Undefined()
		if mean.Valid {
			e.Mean = float32(mean.Float64)
		}
		entries = append(entries, e)
	}
	return entries, errors.Wrap(rows.Err(), "query aggregates")
}

// nullable maps the undefined sentinel to SQL NULL.
func nullable(v float32) any {
	if !metrics.Defined(v) {
		return nil
	}
	return float64(v)
}
