package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/lexgraph/chainbench/internal/db"
	"github.com/lexgraph/chainbench/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS eval_runs (
	id          TEXT PRIMARY KEY,
	label       TEXT NOT NULL DEFAULT '',
	model       TEXT NOT NULL,
	steps       JSONB NOT NULL,
	instances   INTEGER NOT NULL DEFAULT 0,
	voided      INTEGER NOT NULL DEFAULT 0,
	output_path TEXT NOT NULL DEFAULT '',
	summary     JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS eval_steps (
	run_id      TEXT NOT NULL REFERENCES eval_runs(id),
	instance_id TEXT NOT NULL,
	step_id     TEXT NOT NULL,
	status      TEXT NOT NULL,
	score       DOUBLE PRECISION NOT NULL DEFAULT 0,
	correct     BOOLEAN NOT NULL DEFAULT FALSE,
	voided      BOOLEAN NOT NULL DEFAULT FALSE,
	failure     TEXT NOT NULL DEFAULT '',
	latency_ms  DOUBLE PRECISION NOT NULL DEFAULT 0,
	tokens_in   INTEGER NOT NULL DEFAULT 0,
	tokens_out  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, instance_id, step_id)
);

CREATE INDEX IF NOT EXISTS idx_eval_runs_model ON eval_runs(model);
CREATE INDEX IF NOT EXISTS idx_eval_steps_step ON eval_steps(step_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.EvalRun) error {
	steps, err := json.Marshal(run.Steps)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal steps")
	}
	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO eval_runs (id, label, model, steps, instances, voided, output_path, summary, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   label = EXCLUDED.label, model = EXCLUDED.model, steps = EXCLUDED.steps,
		   instances = EXCLUDED.instances, voided = EXCLUDED.voided,
		   output_path = EXCLUDED.output_path, summary = EXCLUDED.summary`,
		run.ID, run.Label, run.Model, steps, run.Instances, run.Voided,
		run.OutputPath, nullableJSON(run.Summary), created,
	)
	return eris.Wrapf(err, "postgres: save run %s", run.ID)
}

// SaveSteps bulk-inserts the flattened step rows via the COPY protocol.
func (s *PostgresStore) SaveSteps(ctx context.Context, runID string, results []*model.RunResult) error {
	rows := flattenSteps(runID, results)
	if len(rows) == 0 {
		return nil
	}
	_, err := db.CopyFrom(ctx, s.pool, "eval_steps", stepColumns, rows)
	return eris.Wrapf(err, "postgres: save steps for run %s", runID)
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.EvalRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, label, model, steps, instances, voided, output_path, summary, created_at
		 FROM eval_runs WHERE id = $1`, runID)

	run, err := scanPostgresRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("store: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter Filter) ([]model.EvalRun, error) {
	query := `SELECT id, label, model, steps, instances, voided, output_path, summary, created_at
		 FROM eval_runs`
	var args []any
	if filter.Model != "" {
		args = append(args, filter.Model)
		query += ` WHERE model = $1`
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var out []model.EvalRun
	for rows.Next() {
		run, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		out = append(out, *run)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func scanPostgresRun(row pgx.Row) (*model.EvalRun, error) {
	var run model.EvalRun
	var steps []byte
	var summary []byte
	if err := row.Scan(&run.ID, &run.Label, &run.Model, &steps, &run.Instances,
		&run.Voided, &run.OutputPath, &summary, &run.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(steps, &run.Steps); err != nil {
		return nil, eris.Wrap(err, "store: decode steps")
	}
	if len(summary) > 0 {
		run.Summary = json.RawMessage(summary)
	}
	return &run, nil
}
