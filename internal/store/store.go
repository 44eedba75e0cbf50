// Package store persists evaluation run records: one flat row per batch run
// plus flattened per-step outcome rows for querying.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/lexgraph/chainbench/internal/model"
)

// Filter specifies criteria for listing runs.
type Filter struct {
	Model  string `json:"model,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store is the persistence interface for evaluation runs.
type Store interface {
	// SaveRun inserts or replaces the batch record.
	SaveRun(ctx context.Context, run *model.EvalRun) error
	// SaveSteps flattens per-instance results into step outcome rows.
	SaveSteps(ctx context.Context, runID string, results []*model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.EvalRun, error)
	ListRuns(ctx context.Context, filter Filter) ([]model.EvalRun, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open builds a Store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

// stepColumns is the flattened step row layout shared by both backends.
var stepColumns = []string{
	"run_id", "instance_id", "step_id", "status", "score", "correct",
	"voided", "failure", "latency_ms", "tokens_in", "tokens_out",
}

func flattenSteps(runID string, results []*model.RunResult) [][]any {
	var rows [][]any
	for _, res := range results {
		for _, stepID := range res.StepOrder {
			sr := res.Steps[stepID]
			if sr == nil {
				continue
			}
			rows = append(rows, []any{
				runID, res.InstanceID, sr.StepID, string(sr.Status),
				sr.Score, sr.Correct, sr.Voided, sr.Failure,
				sr.LatencyMS, sr.TokensIn, sr.TokensOut,
			})
		}
	}
	return rows
}
