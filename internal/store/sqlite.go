package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/lexgraph/chainbench/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS eval_runs (
	id          TEXT PRIMARY KEY,
	label       TEXT NOT NULL DEFAULT '',
	model       TEXT NOT NULL,
	steps       TEXT NOT NULL,
	instances   INTEGER NOT NULL DEFAULT 0,
	voided      INTEGER NOT NULL DEFAULT 0,
	output_path TEXT NOT NULL DEFAULT '',
	summary     TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS eval_steps (
	run_id      TEXT NOT NULL REFERENCES eval_runs(id),
	instance_id TEXT NOT NULL,
	step_id     TEXT NOT NULL,
	status      TEXT NOT NULL,
	score       REAL NOT NULL DEFAULT 0,
	correct     INTEGER NOT NULL DEFAULT 0,
	voided      INTEGER NOT NULL DEFAULT 0,
	failure     TEXT NOT NULL DEFAULT '',
	latency_ms  REAL NOT NULL DEFAULT 0,
	tokens_in   INTEGER NOT NULL DEFAULT 0,
	tokens_out  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, instance_id, step_id)
);

CREATE INDEX IF NOT EXISTS idx_eval_runs_model ON eval_runs(model);
CREATE INDEX IF NOT EXISTS idx_eval_steps_step ON eval_steps(step_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.EvalRun) error {
	steps, err := json.Marshal(run.Steps)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal steps")
	}
	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO eval_runs (id, label, model, steps, instances, voided, output_path, summary, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   label = excluded.label, model = excluded.model, steps = excluded.steps,
		   instances = excluded.instances, voided = excluded.voided,
		   output_path = excluded.output_path, summary = excluded.summary`,
		run.ID, run.Label, run.Model, string(steps), run.Instances, run.Voided,
		run.OutputPath, nullableJSON(run.Summary), created,
	)
	return eris.Wrapf(err, "sqlite: save run %s", run.ID)
}

func (s *SQLiteStore) SaveSteps(ctx context.Context, runID string, results []*model.RunResult) error {
	rows := flattenSteps(runID, results)
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	query := `INSERT OR REPLACE INTO eval_steps (` + strings.Join(stepColumns, ", ") + `)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare step insert")
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return eris.Wrap(err, "sqlite: insert step row")
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit step rows")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.EvalRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, label, model, steps, instances, voided, output_path, summary, created_at
		 FROM eval_runs WHERE id = ?`, runID)

	run, err := scanEvalRun(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("store: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter Filter) ([]model.EvalRun, error) {
	query := `SELECT id, label, model, steps, instances, voided, output_path, summary, created_at
		 FROM eval_runs`
	var args []any
	if filter.Model != "" {
		query += ` WHERE model = ?`
		args = append(args, filter.Model)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var out []model.EvalRun
	for rows.Next() {
		run, err := scanEvalRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		out = append(out, *run)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvalRun(row rowScanner) (*model.EvalRun, error) {
	var run model.EvalRun
	var steps string
	var summary sql.NullString
	if err := row.Scan(&run.ID, &run.Label, &run.Model, &steps, &run.Instances,
		&run.Voided, &run.OutputPath, &summary, &run.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(steps), &run.Steps); err != nil {
		return nil, eris.Wrap(err, "store: decode steps")
	}
	if summary.Valid && summary.String != "" {
		run.Summary = json.RawMessage(summary.String)
	}
	return &run, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
