// Package chain implements the legal-reasoning evaluation chain: the step
// contract, the seven concrete steps, and the executor that walks them with
// dependency and coverage gating.
package chain

import (
	"strings"

	"github.com/lexgraph/chainbench/internal/model"
)

// Step is one unit of work in the chain. Implementations are stateless with
// respect to a run: all per-run state lives in the RunContext.
type Step interface {
	// ID returns the unique step identifier, e.g. "s1" or "s5:cb".
	ID() string
	// Name returns the logical step name shared by variants, e.g. "s5".
	Name() string
	// Requires returns the requirements that must be satisfied by executed
	// results before this step may run.
	Requires() []Requirement
	// Covered reports whether the instance carries the data this step needs.
	Covered(inst *model.Instance) bool
	// Prompt builds the instruction text. Deterministic, no side effects.
	Prompt(rc *model.RunContext) string
	// Parse decodes the raw response best-effort. Malformed input yields a
	// zero payload plus error strings, never a panic or error return.
	Parse(raw string) (any, []string)
	// GroundTruth derives the expected payload from the context.
	GroundTruth(rc *model.RunContext) any
	// Score compares parsed output to ground truth. Deterministic,
	// side-effect free, score in [0,1].
	Score(parsed, truth any) (float64, bool)
}

// StepID derives the unique identifier from a logical name and an optional
// variant tag.
func StepID(name, variant string) string {
	if variant == "" {
		return name
	}
	return name + ":" + variant
}

// VariantOf extracts the variant tag from a step identifier, "" when absent.
func VariantOf(stepID string) string {
	if _, variant, ok := strings.Cut(stepID, ":"); ok {
		return variant
	}
	return ""
}

// Requirement is one entry of a step's dependency set. Dependencies are
// declared in identifier space; satisfaction by any variant of a logical name
// is an explicit opt-in, never inferred.
type Requirement struct {
	id         string
	anyVariant bool
}

// Exactly requires the step with this exact identifier to have executed.
func Exactly(stepID string) Requirement {
	return Requirement{id: stepID}
}

// AnyVariantOf requires any variant of the logical step name to have
// executed.
func AnyVariantOf(stepName string) Requirement {
	return Requirement{id: stepName, anyVariant: true}
}

// Satisfied reports whether the requirement is met by the context's executed
// results. Only status "executed" counts; correctness is irrelevant.
func (r Requirement) Satisfied(rc *model.RunContext) bool {
	if r.anyVariant {
		return rc.ExecutedByStep(r.id)
	}
	sr := rc.Get(r.id)
	return sr != nil && sr.Status == model.StatusExecuted
}

// String renders the requirement for diagnostics: "s5:cb" or "s5:*".
func (r Requirement) String() string {
	if r.anyVariant {
		return r.id + ":*"
	}
	return r.id
}
