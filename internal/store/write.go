package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Result statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Run is one batch invocation over a compilation database.
type Run struct {
	ID         string
	CompileDB  string
	Convert    bool
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Result records the outcome for one translation unit of a run.
type Result struct {
	ID     string
	RunID  string
	File   string
	Status string
	Error  string
	Module string
	Nodes  int64
}

// CreateRun records the start of a batch run and returns it with a
// fresh ID.
func (s *Store) CreateRun(compileDB string, convert bool) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		CompileDB: compileDB,
		Convert:   convert,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(
		"INSERT INTO runs (id, compile_db, convert, started_at) VALUES (?, ?, ?, ?)",
		run.ID, run.CompileDB, boolInt(run.Convert), run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the run's finish time.
func (s *Store) FinishRun(runID string) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		"UPDATE runs SET finished_at = ? WHERE id = ?",
		now.Format(time.RFC3339Nano), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: no run with id %s", runID)
	}
	return nil
}

// InsertResult records the outcome for one file of a run. The result
// ID is content-addressed; inserting the same outcome twice is an
// upsert, not a duplicate.
func (s *Store) InsertResult(r *Result) error {
	if r.RunID == "" || r.File == "" {
		return fmt.Errorf("insert result: run id and file are required")
	}
	if r.Status != StatusOK && r.Status != StatusError {
		return fmt.Errorf("insert result: unknown status %q", r.Status)
	}
	r.ID = ResultID(r.RunID, r.File, r.Module)
	_, err := s.db.Exec(
		`INSERT INTO results (id, run_id, file, status, error, module, nodes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, file) DO UPDATE SET
		   id = excluded.id,
		   status = excluded.status,
		   error = excluded.error,
		   module = excluded.module,
		   nodes = excluded.nodes`,
		r.ID, r.RunID, r.File, r.Status,
		nullString(r.Error), nullString(r.Module), r.Nodes,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
