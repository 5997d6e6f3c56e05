package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound reports a lookup that matched nothing.
var ErrNotFound = errors.New("not found")

// ListRuns returns all runs, most recent first.
func (s *Store) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(
		"SELECT id, compile_db, convert, started_at, finished_at FROM runs ORDER BY started_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run by ID.
func (s *Store) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(
		"SELECT id, compile_db, convert, started_at, finished_at FROM runs WHERE id = ?",
		runID,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}

// ResultsForRun returns the run's results ordered by file path.
func (s *Store) ResultsForRun(runID string) ([]*Result, error) {
	rows, err := s.db.Query(
		"SELECT id, run_id, file, status, error, module, nodes FROM results WHERE run_id = ? ORDER BY file",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("results for run %s: %w", runID, err)
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("results for run %s: %w", runID, err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("results for run %s: %w", runID, err)
	}
	return results, nil
}

// GetResult returns one result by its content-addressed ID.
func (s *Store) GetResult(id string) (*Result, error) {
	row := s.db.QueryRow(
		"SELECT id, run_id, file, status, error, module, nodes FROM results WHERE id = ?",
		id,
	)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get result %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get result %s: %w", id, err)
	}
	return r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run      Run
		convert  int
		started  string
		finished sql.NullString
	)
	if err := row.Scan(&run.ID, &run.CompileDB, &convert, &started, &finished); err != nil {
		return nil, err
	}
	run.Convert = convert != 0
	t, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	run.StartedAt = t
	if finished.Valid {
		ft, err := time.Parse(time.RFC3339Nano, finished.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		run.FinishedAt = &ft
	}
	return &run, nil
}

func scanResult(row rowScanner) (*Result, error) {
	var (
		r       Result
		errText sql.NullString
		module  sql.NullString
	)
	if err := row.Scan(&r.ID, &r.RunID, &r.File, &r.Status, &errText, &module, &r.Nodes); err != nil {
		return nil, err
	}
	r.Error = errText.String
	r.Module = module.String
	return &r, nil
}
