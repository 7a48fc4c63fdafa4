// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists annotations, candidate runs and per-context
// outcomes in a SQLite database with a full-text index over contexts.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/req-anaphora/internal/dataset"
	"github.com/pdiddy/req-anaphora/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "anaphora.db"
)

// ErrNoRuns is returned when a query needs the latest run and none exists.
var ErrNoRuns = errors.New("no runs stored")

// Store manages the run database.
type Store struct {
	db         *sql.DB
	dataDir    string
	maxResults int
	now        func() time.Time
}

// NewStore opens or creates the database at dataDir/index/anaphora.db and
// creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		dataDir:    cfg.DataDir,
		maxResults: maxResults,
		now:        time.Now,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS annotations (
			text TEXT PRIMARY KEY,
			doc TEXT NOT NULL,
			annotated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			contexts INTEGER NOT NULL,
			occurrences INTEGER NOT NULL,
			ids INTEGER NOT NULL,
			row_count INTEGER NOT NULL,
			failed INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS candidates (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			ord INTEGER NOT NULL,
			id TEXT NOT NULL,
			context TEXT NOT NULL,
			pronoun TEXT NOT NULL,
			position INTEGER NOT NULL,
			antecedent TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_run ON candidates(run_id, ord)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_pronoun ON candidates(pronoun)`,
		`CREATE TABLE IF NOT EXISTS context_results (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			context_index INTEGER NOT NULL,
			context TEXT NOT NULL,
			status TEXT NOT NULL,
			occurrences INTEGER NOT NULL,
			row_count INTEGER NOT NULL,
			error TEXT,
			PRIMARY KEY (run_id, context_index)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='candidates_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE candidates_fts USING fts5(context, antecedent, content=candidates, content_rowid=rowid)`,
		`CREATE TRIGGER candidates_ai AFTER INSERT ON candidates BEGIN
			INSERT INTO candidates_fts(rowid, context, antecedent) VALUES (new.rowid, new.context, new.antecedent);
		END`,
		`CREATE TRIGGER candidates_ad AFTER DELETE ON candidates BEGIN
			INSERT INTO candidates_fts(candidates_fts, rowid, context, antecedent) VALUES('delete', old.rowid, old.context, old.antecedent);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// LookupAnnotation returns the cached annotation for text, if any.
func (s *Store) LookupAnnotation(ctx context.Context, text string) (*types.Sentence, bool, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM annotations WHERE text = ?`, text).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("looking up annotation: %w", err)
	}

	var sent types.Sentence
	if err := json.Unmarshal([]byte(doc), &sent); err != nil {
		return nil, false, fmt.Errorf("decoding cached annotation: %w", err)
	}
	if sent.Text == "" {
		sent.Text = text
	}
	return &sent, true, nil
}

// SaveAnnotation stores the annotation for text, replacing any older one.
func (s *Store) SaveAnnotation(ctx context.Context, text string, sent *types.Sentence) error {
	doc, err := json.Marshal(sent)
	if err != nil {
		return fmt.Errorf("encoding annotation: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO annotations (text, doc, annotated_at) VALUES (?, ?, ?)
		 ON CONFLICT(text) DO UPDATE SET doc=excluded.doc, annotated_at=excluded.annotated_at`,
		text, string(doc), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving annotation: %w", err)
	}
	return nil
}

// Run summarizes one stored batch.
type Run struct {
	ID          string    `json:"id" yaml:"id"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time `json:"finished_at" yaml:"finished_at"`
	Contexts    int       `json:"contexts" yaml:"contexts"`
	Occurrences int       `json:"occurrences" yaml:"occurrences"`
	IDs         int       `json:"ids" yaml:"ids"`
	Rows        int       `json:"rows" yaml:"rows"`
	Failed      int       `json:"failed" yaml:"failed"`
}

// SaveRun persists report under a fresh run id in one transaction.
func (s *Store) SaveRun(ctx context.Context, report dataset.Report, startedAt time.Time) (Run, error) {
	run := Run{
		ID:          uuid.NewString(),
		StartedAt:   startedAt.UTC(),
		FinishedAt:  s.now().UTC(),
		Contexts:    report.Total(),
		Occurrences: report.Occurrences,
		IDs:         report.IDs,
		Rows:        len(report.Rows),
		Failed:      report.Failed,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, contexts, occurrences, ids, row_count, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Format(time.RFC3339Nano), run.FinishedAt.Format(time.RFC3339Nano),
		run.Contexts, run.Occurrences, run.IDs, run.Rows, run.Failed,
	)
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}

	candStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO candidates (run_id, ord, id, context, pronoun, position, antecedent)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing candidate insert: %w", err)
	}
	defer candStmt.Close()

	for i, r := range report.Rows {
		if _, err := candStmt.ExecContext(ctx, run.ID, i, r.ID, r.Context, r.Pronoun, r.Position, r.Antecedent); err != nil {
			return Run{}, fmt.Errorf("inserting candidate %s: %w", r.ID, err)
		}
	}

	resStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO context_results (run_id, context_index, context, status, occurrences, row_count, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing context insert: %w", err)
	}
	defer resStmt.Close()

	for _, c := range report.Contexts {
		var msg sql.NullString
		if c.Err != nil {
			msg = sql.NullString{String: c.Err.Error(), Valid: true}
		}
		if _, err := resStmt.ExecContext(ctx,
			run.ID, c.Context.Index, c.Context.Text, string(c.Status), c.Occurrences, c.Rows, msg,
		); err != nil {
			return Run{}, fmt.Errorf("inserting context %d: %w", c.Context.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("committing run: %w", err)
	}
	return run, nil
}

// Runs returns stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, contexts, occurrences, ids, row_count, failed
		 FROM runs ORDER BY finished_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Contexts, &r.Occurrences, &r.IDs, &r.Rows, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestRun returns the most recently finished run.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	runs, err := s.Runs(ctx)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrNoRuns
	}
	return runs[0], nil
}

// ContextResults returns the per-context outcomes of a run in context order.
func (s *Store) ContextResults(ctx context.Context, runID string) ([]dataset.ContextResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT context_index, context, status, occurrences, row_count, error
		 FROM context_results WHERE run_id = ? ORDER BY context_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying context results: %w", err)
	}
	defer rows.Close()

	var out []dataset.ContextResult
	for rows.Next() {
		var (
			r      dataset.ContextResult
			status string
			msg    sql.NullString
		)
		if err := rows.Scan(&r.Context.Index, &r.Context.Text, &status, &r.Occurrences, &r.Rows, &msg); err != nil {
			return nil, fmt.Errorf("scanning context result: %w", err)
		}
		r.Status = dataset.ContextStatus(status)
		if msg.Valid {
			r.Err = errors.New(msg.String)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
