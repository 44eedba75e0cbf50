package chain

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexgraph/chainbench/internal/backend"
	"github.com/lexgraph/chainbench/internal/model"
	"github.com/lexgraph/chainbench/internal/scoring"
)

// stubStep is a configurable step for executor tests.
type stubStep struct {
	id       string
	name     string
	requires []Requirement
	covered  bool
	score    float64
	correct  bool
}

func newStub(id string, covered bool, requires ...Requirement) *stubStep {
	name, _, _ := strings.Cut(id, ":")
	return &stubStep{id: id, name: name, requires: requires, covered: covered, score: 1.0, correct: true}
}

func (s *stubStep) withScore(score float64, correct bool) *stubStep {
	s.score = score
	s.correct = correct
	return s
}

func (s *stubStep) ID() string                        { return s.id }
func (s *stubStep) Name() string                      { return s.name }
func (s *stubStep) Requires() []Requirement           { return s.requires }
func (s *stubStep) Covered(*model.Instance) bool      { return s.covered }
func (s *stubStep) Prompt(*model.RunContext) string   { return "[stub " + s.id + "]" }
func (s *stubStep) Parse(raw string) (any, []string)  { return raw, nil }
func (s *stubStep) GroundTruth(*model.RunContext) any { return nil }
func (s *stubStep) Score(any, any) (float64, bool)    { return s.score, s.correct }

func pairInstance() *model.Instance {
	disposition, party := 3, 1
	return &model.Instance{
		ID: "pair::347_us_483::349_us_294",
		Cited: model.CourtCase{
			USCite:          "347 U.S. 483",
			CaseName:        "Brown v. Board of Education",
			Term:            1954,
			CaseDisposition: &disposition,
			PartyWinning:    &party,
			MajorityOpinion: "Segregation of children in public schools solely on the basis of race deprives minority children of equal educational opportunities.",
		},
		Citing: &model.CourtCase{
			USCite:          "349 U.S. 294",
			CaseName:        "Brown v. Board of Education II",
			Term:            1955,
			MajorityOpinion: "The cases are remanded to the District Courts to enter orders consistent with this opinion.",
		},
		Edge: model.ShepardsEdge{
			CitedUSCite:    "347 U.S. 483",
			CitingUSCite:   "349 U.S. 294",
			CitingCaseName: "Brown v. Board of Education II",
			Shepards:       "followed",
			Agree:          true,
		},
	}
}

func TestExecutorCoverageSkip(t *testing.T) {
	mock := backend.NewMock()
	exec := NewExecutor(mock, []Step{newStub("sA", false)})

	run, err := exec.Execute(context.Background(), pairInstance())
	require.NoError(t, err)

	sr := run.Steps["sA"]
	require.NotNil(t, sr)
	assert.Equal(t, model.StatusSkippedCoverage, sr.Status)
	assert.Empty(t, sr.Prompt)
	assert.Empty(t, mock.Calls(), "uncovered step must not reach the backend")
}

func TestExecutorDependencySkip(t *testing.T) {
	mock := backend.NewMock()
	exec := NewExecutor(mock, []Step{
		newStub("sA", false),
		newStub("sB", true, Exactly("sA")),
	})

	run, err := exec.Execute(context.Background(), pairInstance())
	require.NoError(t, err)

	sr := run.Steps["sB"]
	require.NotNil(t, sr)
	assert.Equal(t, model.StatusSkippedDependency, sr.Status)
	require.Len(t, sr.ModelErrors, 1)
	assert.Contains(t, sr.ModelErrors[0], "sA")
	assert.Empty(t, mock.Calls(), "skipped steps must not reach the backend")
}

func TestExecutorIncorrectStillSatisfies(t *testing.T) {
	mock := backend.NewMock()
	exec := NewExecutor(mock, []Step{
		newStub("sA", true).withScore(0, false),
		newStub("sB", true, Exactly("sA")),
	})

	run, err := exec.Execute(context.Background(), pairInstance())
	require.NoError(t, err)

	assert.Equal(t, model.StatusExecuted, run.Steps["sA"].Status)
	assert.False(t, run.Steps["sA"].Correct)
	assert.Equal(t, model.StatusExecuted, run.Steps["sB"].Status,
		"an executed, incorrect dependency still satisfies")
}

func TestExecutorAnyVariantRequirement(t *testing.T) {
	mock := backend.NewMock()
	exec := NewExecutor(mock, []Step{
		newStub("s5:rag", true),
		newStub("sB", true, AnyVariantOf("s5")),
		newStub("sC", true, Exactly("s5:cb")),
	})

	run, err := exec.Execute(context.Background(), pairInstance())
	require.NoError(t, err)

	assert.Equal(t, model.StatusExecuted, run.Steps["sB"].Status)
	assert.Equal(t, model.StatusSkippedDependency, run.Steps["sC"].Status,
		"exact requirement is never satisfied by a sibling variant")
}

func TestExecutorBackendErrorContained(t *testing.T) {
	mock := backend.NewMock(backend.MockRule{
		Substring: "[stub sA]",
		Err:       eris.New("connection reset"),
	})
	exec := NewExecutor(mock, []Step{
		newStub("sA", true),
		newStub("sB", true, Exactly("sA")),
	})

	run, err := exec.Execute(context.Background(), pairInstance())
	require.NoError(t, err, "backend errors never escape the executor")

	sr := run.Steps["sA"]
	assert.Equal(t, model.StatusExecuted, sr.Status)
	assert.Equal(t, model.FailureBackendError, sr.Failure)
	assert.Contains(t, sr.RawResponse, "[backend_error]")
	assert.Zero(t, sr.Score)
	assert.False(t, sr.Correct)
	assert.Equal(t, model.StatusExecuted, run.Steps["sB"].Status,
		"a failed attempt still counts as executed for dependents")
}

func TestExecutorStepOrderRecorded(t *testing.T) {
	exec := NewExecutor(backend.NewMock(), []Step{
		newStub("sA", true),
		newStub("sB", false),
		newStub("sC", true),
	})

	run, err := exec.Execute(context.Background(), pairInstance())
	require.NoError(t, err)
	assert.Equal(t, []string{"sA", "sB", "sC"}, run.StepOrder)
}

func fullChainBackend(synthesisApplication string) *backend.Mock {
	return fullChainBackendWithGate(synthesisApplication, `{"citations_found": ["349 U.S. 294"]}`)
}

func fullChainBackendWithGate(synthesisApplication, gateResponse string) *backend.Mock {
	return backend.NewMock(
		backend.MockRule{
			Substring: "1. The U.S. Reports citation",
			Response:  `{"us_cite": "347 U.S. 483", "case_name": "Brown v. Board of Education", "term": 1954}`,
		},
		backend.MockRule{
			Substring: "list cases that cite this precedent",
			Response:  `{"citing_cases": [{"us_cite": "349 U.S. 294", "case_name": "Brown v. Board of Education II"}]}`,
		},
		backend.MockRule{
			Substring: "Has this case been overruled",
			Response:  `{"is_overruled": false, "overruling_case": null, "year_overruled": null}`,
		},
		backend.MockRule{
			Substring: "DISPOSITION must be exactly one",
			Response:  `{"disposition": "Reversed", "party_winning": "petitioner", "holding_summary": "Separate educational facilities are inherently unequal."}`,
		},
		backend.MockRule{
			Substring: "Based on the Shepard's signal",
			Response:  `{"agrees": true, "reasoning": "The later case implements the remedy for the precedent."}`,
		},
		backend.MockRule{
			Substring: "CITING CASE OPINION (excerpt)",
			Response:  `{"agrees": true, "reasoning": "The opinion directs enforcement of the earlier holding."}`,
		},
		backend.MockRule{
			Substring: "Write a complete IRAC analysis",
			Response: `{"issue": "Whether racial segregation in public schools violates equal protection.",` +
				` "rule": "The Equal Protection Clause forbids separate educational facilities.",` +
				` "application": "` + synthesisApplication + `",` +
				` "conclusion": "Segregated schooling is unconstitutional and must be dismantled."}`,
		},
		backend.MockRule{
			Substring: "You are a legal citation checker",
			Response:  gateResponse,
		},
	)
}

func fullChainSteps(t *testing.T) []Step {
	t.Helper()
	verifier := scoring.NewVerifier(
		[]string{"999 U.S. 999"},
		[]string{"347 U.S. 483", "349 U.S. 294"},
	)
	steps, err := BuildSteps(DefaultOrder, scoring.DefaultRubric(), verifier)
	require.NoError(t, err)
	return steps
}

func TestExecutorFullChain(t *testing.T) {
	mock := fullChainBackend("The Court applied the clause to school segregation, following 349 U.S. 294.")
	exec := NewExecutor(mock, fullChainSteps(t))

	run, err := exec.Execute(context.Background(), pairInstance())
	require.NoError(t, err)

	for _, id := range DefaultOrder {
		sr := run.Steps[id]
		require.NotNil(t, sr, id)
		assert.Equal(t, model.StatusExecuted, sr.Status, id)
		assert.True(t, sr.Correct, id)
		assert.Empty(t, sr.ModelErrors, id)
	}
	assert.False(t, run.Voided)
	assert.Empty(t, run.VoidReason)
	assert.Equal(t, "mock", run.Model)
	assert.Len(t, mock.Calls(), len(DefaultOrder))
}

func TestExecutorEnrichedVariantSkippedWithoutCitingText(t *testing.T) {
	inst := pairInstance()
	inst.Citing = nil

	mock := fullChainBackend("The Court applied the clause, following 349 U.S. 294.")
	exec := NewExecutor(mock, fullChainSteps(t))

	run, err := exec.Execute(context.Background(), inst)
	require.NoError(t, err)

	assert.Equal(t, model.StatusExecuted, run.Steps["s5:cb"].Status)
	assert.Equal(t, model.StatusSkippedCoverage, run.Steps["s5:rag"].Status)
	assert.Equal(t, model.StatusExecuted, run.Steps["s6"].Status,
		"synthesis depends on the backbone variant only")
}

func TestExecutorGateVoidsSynthesis(t *testing.T) {
	mock := fullChainBackend("The Court relied on the landmark decision in 999 U.S. 999 to extend the holding.")
	exec := NewExecutor(mock, fullChainSteps(t))

	run, err := exec.Execute(context.Background(), pairInstance())
	require.NoError(t, err)

	gate := run.Steps["s7"]
	require.NotNil(t, gate)
	assert.Equal(t, model.StatusExecuted, gate.Status)
	assert.False(t, gate.Correct)

	synth := run.Steps["s6"]
	require.NotNil(t, synth)
	assert.Equal(t, model.StatusExecuted, synth.Status, "voiding never changes status")
	assert.True(t, synth.Voided)
	assert.Equal(t, VoidReasonFabricatedCitations, synth.VoidReason)
	assert.Zero(t, synth.Score)
	assert.False(t, synth.Correct)

	assert.True(t, run.Voided)
	assert.Equal(t, VoidReasonFabricatedCitations, run.VoidReason)
}

func TestExecutorGarbledGateResponseDoesNotVoid(t *testing.T) {
	mock := fullChainBackendWithGate(
		"The Court applied the clause to school segregation, following 349 U.S. 294.",
		"sorry, I cannot answer in JSON")
	exec := NewExecutor(mock, fullChainSteps(t))

	run, err := exec.Execute(context.Background(), pairInstance())
	require.NoError(t, err)

	gate := run.Steps["s7"]
	require.NotNil(t, gate)
	assert.Equal(t, model.StatusExecuted, gate.Status)
	assert.True(t, gate.Correct,
		"the verdict comes from verification of the synthesis output, not the gate response")
	assert.Empty(t, gate.ModelErrors)

	assert.False(t, run.Steps["s6"].Voided)
	assert.False(t, run.Voided)
}

func TestGateVoidingIdempotent(t *testing.T) {
	exec := NewExecutor(backend.NewMock(), nil)
	rc := model.NewRunContext(pairInstance())

	rc.Set("s6", &model.StepResult{
		StepID: "s6", Step: "s6",
		Status: model.StatusExecuted,
		Score:  1.0, Correct: true,
	})
	gate := &model.StepResult{
		StepID: "s7", Step: "s7",
		Status: model.StatusExecuted,
		Score:  0, Correct: false,
	}
	rc.Set("s7", gate)

	exec.applyGateVoiding(rc, gate)
	first := rc.Get("s6")
	exec.applyGateVoiding(rc, gate)
	second := rc.Get("s6")

	assert.True(t, second.Voided)
	assert.Equal(t, first.VoidReason, second.VoidReason)
	assert.Zero(t, second.Score)
	assert.Equal(t, []string{"s6", "s7"}, rc.StepIDs(), "rebinding keeps the original position")
}

func TestGateVoidingNoOpWhenGateCorrectOrTargetMissing(t *testing.T) {
	exec := NewExecutor(backend.NewMock(), nil)

	t.Run("gate correct", func(t *testing.T) {
		rc := model.NewRunContext(pairInstance())
		rc.Set("s6", &model.StepResult{StepID: "s6", Step: "s6", Status: model.StatusExecuted, Correct: true, Score: 1.0})
		gate := &model.StepResult{StepID: "s7", Step: "s7", Status: model.StatusExecuted, Correct: true, Score: 1.0}
		rc.Set("s7", gate)

		exec.applyGateVoiding(rc, gate)
		assert.False(t, rc.Get("s6").Voided)
		assert.Equal(t, 1.0, rc.Get("s6").Score)
	})

	t.Run("gate skipped", func(t *testing.T) {
		rc := model.NewRunContext(pairInstance())
		rc.Set("s6", &model.StepResult{StepID: "s6", Step: "s6", Status: model.StatusExecuted, Correct: true, Score: 1.0})
		gate := &model.StepResult{StepID: "s7", Step: "s7", Status: model.StatusSkippedDependency}
		rc.Set("s7", gate)

		exec.applyGateVoiding(rc, gate)
		assert.False(t, rc.Get("s6").Voided)
	})

	t.Run("target not executed", func(t *testing.T) {
		rc := model.NewRunContext(pairInstance())
		rc.Set("s6", &model.StepResult{StepID: "s6", Step: "s6", Status: model.StatusSkippedCoverage})
		gate := &model.StepResult{StepID: "s7", Step: "s7", Status: model.StatusExecuted, Correct: false}
		rc.Set("s7", gate)

		exec.applyGateVoiding(rc, gate)
		assert.False(t, rc.Get("s6").Voided)
	})

	t.Run("target absent", func(t *testing.T) {
		rc := model.NewRunContext(pairInstance())
		gate := &model.StepResult{StepID: "s7", Step: "s7", Status: model.StatusExecuted, Correct: false}
		rc.Set("s7", gate)

		exec.applyGateVoiding(rc, gate)
		assert.Nil(t, rc.Get("s6"))
	})
}

func TestRunAllBoundedAndSerializedSink(t *testing.T) {
	instances := make([]*model.Instance, 8)
	for i := range instances {
		inst := pairInstance()
		inst.ID = inst.ID + "-" + string(rune('a'+i))
		instances[i] = inst
	}

	exec := NewExecutor(backend.NewMock(), []Step{newStub("sA", true)})

	var got []string
	err := exec.RunAll(context.Background(), instances, 4, func(run *model.RunResult) error {
		got = append(got, run.InstanceID)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, got, len(instances))
}

func TestRunAllSharedBackendRecordsEveryCall(t *testing.T) {
	instances := make([]*model.Instance, 16)
	for i := range instances {
		inst := pairInstance()
		inst.ID = fmt.Sprintf("%s-%d", inst.ID, i)
		instances[i] = inst
	}

	mock := backend.NewMock()
	exec := NewExecutor(mock, []Step{newStub("sA", true), newStub("sB", true)})

	err := exec.RunAll(context.Background(), instances, 8, func(*model.RunResult) error { return nil })
	require.NoError(t, err)
	assert.Len(t, mock.Calls(), 2*len(instances))
}

func TestRunAllPropagatesSinkError(t *testing.T) {
	exec := NewExecutor(backend.NewMock(), []Step{newStub("sA", true)})
	err := exec.RunAll(context.Background(), []*model.Instance{pairInstance()}, 2,
		func(*model.RunResult) error { return eris.New("sink closed") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink closed")
}
