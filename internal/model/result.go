package model

import "time"

// Status classifies how a step attempt ended. Exactly three values exist;
// only StatusExecuted satisfies downstream dependencies.
type Status string

const (
	// StatusExecuted means an attempt was made: the backend was invoked,
	// even if the call failed or the response did not parse.
	StatusExecuted Status = "executed"
	// StatusSkippedCoverage means a data-availability precondition on the
	// instance was false. A structural gap, not a failure.
	StatusSkippedCoverage Status = "skipped_coverage"
	// StatusSkippedDependency means a required prior step identifier was
	// absent or did not execute.
	StatusSkippedDependency Status = "skipped_dependency"
)

// Failure diagnostics carried on executed results. Internal to operators;
// they never change the public status taxonomy.
const (
	FailureBackendError = "backend_error"
)

// StepResult is the outcome of one step attempt. Created once per attempt by
// the executor; the voiding fields are only ever rewritten by the executor's
// gate routine, which rebinds a fresh value under the same step identifier.
type StepResult struct {
	StepID  string `json:"step_id"`
	Step    string `json:"step"`
	Variant string `json:"variant,omitempty"`

	Status Status `json:"status"`

	Prompt      string `json:"prompt,omitempty"`
	RawResponse string `json:"raw_response,omitempty"`

	Parsed      any `json:"parsed,omitempty"`
	GroundTruth any `json:"ground_truth,omitempty"`

	Score   float64 `json:"score"`
	Correct bool    `json:"correct"`

	Voided     bool   `json:"voided"`
	VoidReason string `json:"void_reason,omitempty"`

	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	LatencyMS float64   `json:"latency_ms,omitempty"`
	TokensIn  int       `json:"tokens_in,omitempty"`
	TokensOut int       `json:"tokens_out,omitempty"`

	// ModelErrors holds parse diagnostics (malformed output is a scoring
	// condition, not a control-flow error).
	ModelErrors []string `json:"model_errors,omitempty"`

	// Failure is the internal diagnostic code for contained system-level
	// failures, e.g. FailureBackendError.
	Failure string `json:"failure,omitempty"`
}

// RunResult aggregates every step result for one instance. Immutable after
// construction; the voided flag mirrors the synthesis step's voided state.
type RunResult struct {
	InstanceID string                 `json:"instance_id"`
	Steps      map[string]*StepResult `json:"step_results"`
	StepOrder  []string               `json:"step_order"`
	Voided     bool                   `json:"voided"`
	VoidReason string                 `json:"void_reason,omitempty"`
	Model      string                 `json:"model,omitempty"`
	StartedAt  time.Time              `json:"started_at,omitzero"`
	DurationMS float64                `json:"duration_ms,omitempty"`
}
