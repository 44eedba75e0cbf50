package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexgraph/chainbench/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleEvalRun() *model.EvalRun {
	return &model.EvalRun{
		ID:         uuid.New().String(),
		Label:      "nightly",
		Model:      "claude-sonnet-4-5",
		Steps:      []string{"s1", "s2", "s3", "s4", "s5:cb", "s5:rag", "s6", "s7"},
		Instances:  100,
		Voided:     3,
		OutputPath: "results/nightly.jsonl",
		Summary:    json.RawMessage(`{"runs": 100, "void_rate": 0.03}`),
		CreatedAt:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSQLiteSaveAndGetRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run := sampleEvalRun()
	require.NoError(t, s.SaveRun(ctx, run))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Label, got.Label)
	assert.Equal(t, run.Model, got.Model)
	assert.Equal(t, run.Steps, got.Steps)
	assert.Equal(t, run.Instances, got.Instances)
	assert.Equal(t, run.Voided, got.Voided)
	assert.JSONEq(t, string(run.Summary), string(got.Summary))
}

func TestSQLiteSaveRunUpsert(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run := sampleEvalRun()
	require.NoError(t, s.SaveRun(ctx, run))

	run.Instances = 200
	run.Voided = 7
	require.NoError(t, s.SaveRun(ctx, run))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 200, got.Instances)
	assert.Equal(t, 7, got.Voided)
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.GetRun(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteListRuns(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	a := sampleEvalRun()
	a.Model = "mock"
	a.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := sampleEvalRun()
	b.CreatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveRun(ctx, a))
	require.NoError(t, s.SaveRun(ctx, b))

	all, err := s.ListRuns(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID, "newest first")

	mocks, err := s.ListRuns(ctx, Filter{Model: "mock"})
	require.NoError(t, err)
	require.Len(t, mocks, 1)
	assert.Equal(t, a.ID, mocks[0].ID)

	limited, err := s.ListRuns(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteSaveSteps(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run := sampleEvalRun()
	require.NoError(t, s.SaveRun(ctx, run))

	results := []*model.RunResult{
		{
			InstanceID: "pair::a::b",
			StepOrder:  []string{"s1", "s6"},
			Steps: map[string]*model.StepResult{
				"s1": {StepID: "s1", Step: "s1", Status: model.StatusExecuted,
					Score: 1, Correct: true, LatencyMS: 120.5, TokensIn: 900, TokensOut: 40},
				"s6": {StepID: "s6", Step: "s6", Status: model.StatusExecuted,
					Score: 0, Voided: true},
			},
		},
		{
			InstanceID: "pair::c::d",
			StepOrder:  []string{"s1"},
			Steps: map[string]*model.StepResult{
				"s1": {StepID: "s1", Step: "s1", Status: model.StatusSkippedCoverage},
			},
		},
	}
	require.NoError(t, s.SaveSteps(ctx, run.ID, results))

	var count int
	require.NoError(t, s.db.QueryRow(
		`SELECT COUNT(*) FROM eval_steps WHERE run_id = ?`, run.ID).Scan(&count))
	assert.Equal(t, 3, count)

	var voided bool
	require.NoError(t, s.db.QueryRow(
		`SELECT voided FROM eval_steps WHERE run_id = ? AND instance_id = ? AND step_id = 's6'`,
		run.ID, "pair::a::b").Scan(&voided))
	assert.True(t, voided)
}

func TestOpenDispatch(t *testing.T) {
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "open.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
