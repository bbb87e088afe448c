// Package history keeps a journal of sync runs in SQLite: one row per run
// with its counts, and one row per change-log entry.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/agentstation/utc"
	_ "modernc.org/sqlite"

	"github.com/bmedia/gearsync/pkg/changelog"
	"github.com/bmedia/gearsync/pkg/constants"
	"github.com/bmedia/gearsync/pkg/errors"
)

// Run is one recorded sync.
type Run struct {
	ID          int64         `json:"id" yaml:"id"`
	RunID       string        `json:"run_id" yaml:"run_id"`
	StartedAt   utc.Time      `json:"started_at" yaml:"started_at"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
	SourceURL   string        `json:"source_url" yaml:"source_url"`
	CatalogPath string        `json:"catalog_path" yaml:"catalog_path"`
	Strategy    string        `json:"strategy" yaml:"strategy"`
	DryRun      bool          `json:"dry_run" yaml:"dry_run"`
	Wrote       bool          `json:"wrote" yaml:"wrote"`

	// SourceError is set when the page could not be read.
	SourceError string `json:"source_error,omitempty" yaml:"source_error,omitempty"`

	Summary      changelog.Summary `json:"summary" yaml:"summary"`
	Products     int               `json:"products" yaml:"products"`
	ImagesFailed int               `json:"images_failed" yaml:"images_failed"`
}

// Store is a SQLite-backed run journal.
type Store struct {
	conn *sql.DB
}

// Open opens or creates the journal at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", filepath.Dir(path), err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapResource("open", "history", path, err)
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, errors.WrapResource("open", "history", path, err)
	}

	s := &Store{conn: conn}
	if err := s.init(); err != nil {
		_ = conn.Close()
		return nil, errors.WrapResource("migrate", "history", path, err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  startedAt TEXT NOT NULL,
  durationMs INTEGER NOT NULL,
  sourceUrl TEXT NOT NULL,
  catalogPath TEXT NOT NULL,
  strategy TEXT NOT NULL,
  dryRun INTEGER NOT NULL,
  wrote INTEGER NOT NULL,
  sourceError TEXT,
  summaryJson TEXT NOT NULL,
  products INTEGER NOT NULL,
  imagesFailed INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_startedAt ON runs(startedAt);

CREATE TABLE IF NOT EXISTS changes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  seq INTEGER NOT NULL,
  kind TEXT NOT NULL,
  category TEXT NOT NULL,
  name TEXT,
  previousName TEXT,
  entryJson TEXT NOT NULL,
  FOREIGN KEY(runId) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_changes_runId ON changes(runId);
CREATE INDEX IF NOT EXISTS idx_changes_name ON changes(name);
`
	_, err := s.conn.Exec(schema)
	return err
}

// Record stores a run and its full change log in one transaction and
// returns the run's row id.
func (s *Store) Record(ctx context.Context, run Run, log *changelog.Log) (int64, error) {
	if run.StartedAt.Time.IsZero() {
		run.StartedAt = utc.Now()
	}
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return 0, errors.WrapParse("json", "summary", err)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.WrapResource("begin", "history", "", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
INSERT INTO runs(runId, startedAt, durationMs, sourceUrl, catalogPath, strategy, dryRun, wrote, sourceError, summaryJson, products, imagesFailed)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.StartedAt.Time.UTC().Format(time.RFC3339Nano),
		run.Duration.Milliseconds(),
		run.SourceURL,
		run.CatalogPath,
		run.Strategy,
		boolInt(run.DryRun),
		boolInt(run.Wrote),
		nullString(run.SourceError),
		string(summary),
		run.Products,
		run.ImagesFailed,
	)
	if err != nil {
		return 0, errors.WrapResource("insert", "run", run.RunID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.WrapResource("insert", "run", run.RunID, err)
	}

	if log != nil {
		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO changes(runId, seq, kind, category, name, previousName, entryJson)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, errors.WrapResource("prepare", "change", "", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, e := range log.Entries {
			raw, err := json.Marshal(e)
			if err != nil {
				return 0, errors.WrapParse("json", "change", err)
			}
			if _, err := stmt.ExecContext(ctx, id, i, string(e.Kind), e.Category, e.Name, e.PreviousName, string(raw)); err != nil {
				return 0, errors.WrapResource("insert", "change", e.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.WrapResource("commit", "history", "", err)
	}
	return id, nil
}

const runColumns = `id, runId, startedAt, durationMs, sourceUrl, catalogPath, strategy, dryRun, wrote, sourceError, summaryJson, products, imagesFailed`

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}
	rows, err := s.conn.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.WrapResource("list", "runs", "", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("list", "runs", "", err)
	}
	return out, nil
}

// Get returns one run with its stored change entries in log order.
func (s *Store) Get(ctx context.Context, id int64) (*Run, []changelog.Entry, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, errors.NewNotFoundError("run", strconv.FormatInt(id, 10))
		}
		return nil, nil, err
	}

	rows, err := s.conn.QueryContext(ctx, `SELECT entryJson FROM changes WHERE runId = ? ORDER BY seq`, id)
	if err != nil {
		return nil, nil, errors.WrapResource("list", "changes", strconv.FormatInt(id, 10), err)
	}
	defer func() { _ = rows.Close() }()

	var entries []changelog.Entry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, nil, errors.WrapResource("scan", "change", strconv.FormatInt(id, 10), err)
		}
		var e changelog.Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, nil, errors.WrapParse("json", "change", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.WrapResource("list", "changes", strconv.FormatInt(id, 10), err)
	}
	return &run, entries, nil
}

// ProductHistory returns every stored change naming product, oldest first.
// Runs that left the product unchanged are skipped.
func (s *Store) ProductHistory(ctx context.Context, name string) ([]changelog.Entry, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT entryJson FROM changes WHERE (name = ? OR previousName = ?) AND kind != ? ORDER BY runId, seq`,
		name, name, string(changelog.KindUnchanged))
	if err != nil {
		return nil, errors.WrapResource("list", "changes", name, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []changelog.Entry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.WrapResource("scan", "change", name, err)
		}
		var e changelog.Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, errors.WrapParse("json", "change", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run                Run
		startedAt, summary string
		durationMs         int64
		dryRun, wrote      int
		sourceError        sql.NullString
	)
	err := sc.Scan(&run.ID, &run.RunID, &startedAt, &durationMs, &run.SourceURL, &run.CatalogPath,
		&run.Strategy, &dryRun, &wrote, &sourceError, &summary, &run.Products, &run.ImagesFailed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, errors.WrapResource("scan", "run", "", err)
	}

	t, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return run, errors.WrapParse("time", "startedAt", err)
	}
	run.StartedAt = utc.Time{Time: t}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	run.DryRun = dryRun != 0
	run.Wrote = wrote != 0
	run.SourceError = sourceError.String
	if err := json.Unmarshal([]byte(summary), &run.Summary); err != nil {
		return run, errors.WrapParse("json", "summary", err)
	}
	return run, nil
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
