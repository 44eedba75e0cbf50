package report

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexgraph/chainbench/internal/model"
)

func sampleRun(id string, mutate func(*model.RunResult)) *model.RunResult {
	run := &model.RunResult{
		InstanceID: id,
		StepOrder:  []string{"s1", "s5:cb", "s5:rag", "s6", "s7"},
		Steps: map[string]*model.StepResult{
			"s1": {StepID: "s1", Step: "s1", Status: model.StatusExecuted,
				Score: 1, Correct: true},
			"s5:cb": {StepID: "s5:cb", Step: "s5", Variant: "cb",
				Status: model.StatusExecuted, Score: 1, Correct: true},
			"s5:rag": {StepID: "s5:rag", Step: "s5", Variant: "rag",
				Status: model.StatusExecuted, Score: 1, Correct: true},
			"s6": {StepID: "s6", Step: "s6", Status: model.StatusExecuted,
				Score: 1, Correct: true},
			"s7": {StepID: "s7", Step: "s7", Status: model.StatusExecuted,
				Score: 1, Correct: true},
		},
		Model:     "mock",
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if mutate != nil {
		mutate(run)
	}
	return run
}

func TestWriteAndReadRoundTrip(t *testing.T) {
	runs := []*model.RunResult{
		sampleRun("pair::a::b", nil),
		sampleRun("pair::c::d", func(r *model.RunResult) {
			r.Voided = true
			r.VoidReason = "voided by s7: fabricated citations detected"
		}),
	}

	path := filepath.Join(t.TempDir(), "out", "results.jsonl")
	n, err := WriteFile(path, runs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "pair::a::b", got[0].InstanceID)
	assert.True(t, got[1].Voided)
	assert.Equal(t, runs[0].StepOrder, got[0].StepOrder)
	assert.Equal(t, model.StatusExecuted, got[0].Steps["s1"].Status)
}

func TestReadSkipsBlankLinesAndReportsBadLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(sampleRun("pair::a::b", nil)))
	buf.WriteString("\n")
	require.NoError(t, w.Write(sampleRun("pair::c::d", nil)))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = Read(bytes.NewBufferString("{\"instance_id\": 42}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestSummarize(t *testing.T) {
	runs := []*model.RunResult{
		// Clean, fully correct run.
		sampleRun("a", nil),
		// Backbone wrong, enriched right; synthesis voided.
		sampleRun("b", func(r *model.RunResult) {
			r.Steps["s5:cb"].Correct = false
			r.Steps["s5:cb"].Score = 0
			r.Steps["s6"].Voided = true
			r.Steps["s6"].Score = 0
			r.Steps["s6"].Correct = false
			r.Steps["s7"].Correct = false
			r.Steps["s7"].Score = 0
			r.Voided = true
		}),
		// Coverage failure at the enriched variant.
		sampleRun("c", func(r *model.RunResult) {
			r.Steps["s5:rag"].Status = model.StatusSkippedCoverage
			r.Steps["s5:rag"].Correct = false
			r.Steps["s5:rag"].Score = 0
		}),
		// Backend error on s1; dependents skipped would be unusual, keep executed.
		sampleRun("d", func(r *model.RunResult) {
			r.Steps["s1"].Failure = model.FailureBackendError
			r.Steps["s1"].Correct = false
			r.Steps["s1"].Score = 0
		}),
	}

	s := Summarize(runs)
	assert.Equal(t, 4, s.Runs)
	assert.InDelta(t, 0.5, s.CompletionRate, 1e-9, "runs b and d each have an incorrect step")
	assert.InDelta(t, 0.25, s.VoidRate, 1e-9)
	assert.InDelta(t, 1.5, s.MeanFailurePosition, 1e-9, "first misses at positions 2 and 1")

	s1 := s.Steps["s1"]
	require.NotNil(t, s1)
	assert.Equal(t, 4, s1.Executed)
	assert.Equal(t, 1, s1.BackendErrors)
	assert.InDelta(t, 0.75, s1.Accuracy, 1e-9)
	assert.InDelta(t, 0.75, s1.MeanScore, 1e-9)
	assert.InDelta(t, 1.0, s1.CoverageRate, 1e-9)

	rag := s.Steps["s5:rag"]
	require.NotNil(t, rag)
	assert.Equal(t, 3, rag.Executed)
	assert.Equal(t, 1, rag.SkippedCoverage)
	assert.InDelta(t, 0.75, rag.CoverageRate, 1e-9)

	s6 := s.Steps["s6"]
	require.NotNil(t, s6)
	assert.Equal(t, 1, s6.Voided)

	// Both variants executed in runs a, b, d; rag beat cb once.
	assert.Equal(t, 3, s.ReasoningGapRuns)
	assert.InDelta(t, 1.0/3.0, s.ReasoningGap, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Runs)
	assert.Zero(t, s.CompletionRate)
	assert.Empty(t, s.Steps)
	assert.NotEmpty(t, s.String())
}

func TestSummaryString(t *testing.T) {
	s := Summarize([]*model.RunResult{sampleRun("a", nil)})
	out := s.String()
	assert.Contains(t, out, "runs: 1")
	assert.Contains(t, out, "s5:cb")
	assert.Contains(t, out, "100.0%")
}
