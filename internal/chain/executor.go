package chain

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lexgraph/chainbench/internal/backend"
	"github.com/lexgraph/chainbench/internal/model"
)

// Executor walks an ordered step sequence over one instance at a time. It
// owns the status taxonomy: a step's status is decided by the coverage and
// dependency gates here, never by model output. It also owns the gate
// voiding of the synthesis result.
type Executor struct {
	backend backend.Backend
	steps   []Step

	gateID   string
	targetID string
}

// NewExecutor returns an executor over the given backend and step order.
// The gate step and its voiding target default to "s7" and "s6".
func NewExecutor(b backend.Backend, steps []Step) *Executor {
	return &Executor{
		backend:  b,
		steps:    steps,
		gateID:   "s7",
		targetID: "s6",
	}
}

// Execute runs every step in order on one instance and returns the
// aggregated result. Errors from the backend are contained per step; Execute
// itself fails only on context cancellation.
func (e *Executor) Execute(ctx context.Context, inst *model.Instance) (*model.RunResult, error) {
	started := time.Now()
	rc := model.NewRunContext(inst)

	for _, step := range e.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sr := e.executeStep(ctx, step, rc)
		rc.Set(step.ID(), sr)

		if step.ID() == e.gateID {
			e.applyGateVoiding(rc, sr)
		}
	}

	return e.buildRunResult(rc, started), nil
}

// executeStep runs the coverage gate, then the dependency gate, then the
// attempt itself.
func (e *Executor) executeStep(ctx context.Context, step Step, rc *model.RunContext) *model.StepResult {
	sr := &model.StepResult{
		StepID:    step.ID(),
		Step:      step.Name(),
		Variant:   VariantOf(step.ID()),
		Model:     e.backend.ModelID(),
		Timestamp: time.Now().UTC(),
	}

	if !step.Covered(rc.Instance()) {
		sr.Status = model.StatusSkippedCoverage
		return sr
	}

	if missing := unsatisfied(step.Requires(), rc); len(missing) > 0 {
		sr.Status = model.StatusSkippedDependency
		sr.RawResponse = "missing dependencies: " + strings.Join(missing, ", ")
		sr.ModelErrors = []string{sr.RawResponse}
		return sr
	}

	sr.Status = model.StatusExecuted
	sr.Prompt = step.Prompt(rc)

	start := time.Now()
	completion, err := e.backend.Complete(ctx, sr.Prompt)
	sr.LatencyMS = float64(time.Since(start)) / float64(time.Millisecond)

	if err != nil {
		// Contained: the attempt was made, so the status stays executed and
		// downstream dependencies remain satisfied.
		sr.Failure = model.FailureBackendError
		sr.ModelErrors = append(sr.ModelErrors, fmt.Sprintf("backend error: %v", err))
		zap.L().Warn("chain: backend error",
			zap.String("step", step.ID()),
			zap.String("instance", rc.Instance().ID),
			zap.Error(err))
	}

	sr.RawResponse = completion.Text
	if err != nil {
		sr.RawResponse = "[backend_error] " + err.Error()
	}
	sr.TokensIn = completion.InputTokens
	sr.TokensOut = completion.OutputTokens

	parsed, parseErrs := step.Parse(sr.RawResponse)
	sr.Parsed = parsed
	sr.ModelErrors = append(sr.ModelErrors, parseErrs...)

	sr.GroundTruth = step.GroundTruth(rc)
	if err == nil && len(parseErrs) == 0 {
		sr.Score, sr.Correct = step.Score(parsed, sr.GroundTruth)
	}

	return sr
}

// unsatisfied returns the unmet requirements in sorted render form.
func unsatisfied(reqs []Requirement, rc *model.RunContext) []string {
	var missing []string
	for _, req := range reqs {
		if !req.Satisfied(rc) {
			missing = append(missing, req.String())
		}
	}
	sort.Strings(missing)
	return missing
}

// applyGateVoiding voids the synthesis result when the gate executed and was
// incorrect. Voiding rebinds a fresh value under the target's identifier:
// voided, zero-scored, same status. A gate that skipped, or a target that
// never executed, leaves everything untouched. Re-application is a no-op
// since the rebound value carries the same voided state.
func (e *Executor) applyGateVoiding(rc *model.RunContext, gate *model.StepResult) {
	if gate.Status != model.StatusExecuted || gate.Correct {
		return
	}
	target := rc.Get(e.targetID)
	if target == nil || target.Status != model.StatusExecuted {
		return
	}

	voided := *target
	voided.Voided = true
	voided.VoidReason = VoidReasonFabricatedCitations
	voided.Score = 0
	voided.Correct = false
	rc.Set(e.targetID, &voided)

	zap.L().Info("chain: synthesis voided by integrity gate",
		zap.String("instance", rc.Instance().ID))
}

// buildRunResult snapshots the context. The run-level voided flag mirrors
// the synthesis result's state.
func (e *Executor) buildRunResult(rc *model.RunContext, started time.Time) *model.RunResult {
	run := &model.RunResult{
		InstanceID: rc.Instance().ID,
		Steps:      rc.Results(),
		StepOrder:  rc.StepIDs(),
		Model:      e.backend.ModelID(),
		StartedAt:  started.UTC(),
		DurationMS: float64(time.Since(started)) / float64(time.Millisecond),
	}
	if target := rc.Get(e.targetID); target != nil && target.Voided {
		run.Voided = true
		run.VoidReason = target.VoidReason
	}
	return run
}
