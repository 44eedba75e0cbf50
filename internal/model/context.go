package model

// RunContext carries mutable state across the steps of one run. It is owned
// by exactly one executor invocation for its whole lifetime, so no locking is
// needed. Results are keyed by unique step identifier; insertion order is the
// execution order.
type RunContext struct {
	instance *Instance
	order    []string
	results  map[string]*StepResult
}

// NewRunContext returns an empty context for one instance.
func NewRunContext(inst *Instance) *RunContext {
	return &RunContext{
		instance: inst,
		results:  make(map[string]*StepResult),
	}
}

// Instance returns the instance under evaluation.
func (rc *RunContext) Instance() *Instance {
	return rc.instance
}

// Get returns the result recorded for a step identifier, or nil.
func (rc *RunContext) Get(stepID string) *StepResult {
	return rc.results[stepID]
}

// Set records a result under a step identifier. Rebinding an identifier
// keeps its original position in the execution order.
func (rc *RunContext) Set(stepID string, result *StepResult) {
	if _, ok := rc.results[stepID]; !ok {
		rc.order = append(rc.order, stepID)
	}
	rc.results[stepID] = result
}

// HasStep reports whether any variant of a logical step name has a result.
func (rc *RunContext) HasStep(stepName string) bool {
	return rc.FirstByStep(stepName) != nil
}

// FirstByStep returns the earliest-recorded result whose logical step name
// matches, or nil.
func (rc *RunContext) FirstByStep(stepName string) *StepResult {
	for _, id := range rc.order {
		if sr := rc.results[id]; sr != nil && sr.Step == stepName {
			return sr
		}
	}
	return nil
}

// ExecutedIDs returns the set of step identifiers whose status is
// StatusExecuted. Used for dependency gating.
func (rc *RunContext) ExecutedIDs() map[string]struct{} {
	out := make(map[string]struct{}, len(rc.results))
	for id, sr := range rc.results {
		if sr.Status == StatusExecuted {
			out[id] = struct{}{}
		}
	}
	return out
}

// ExecutedByStep reports whether any variant of a logical step name has a
// result with status StatusExecuted.
func (rc *RunContext) ExecutedByStep(stepName string) bool {
	for _, sr := range rc.results {
		if sr.Step == stepName && sr.Status == StatusExecuted {
			return true
		}
	}
	return false
}

// StepIDs returns the recorded step identifiers in execution order.
func (rc *RunContext) StepIDs() []string {
	out := make([]string, len(rc.order))
	copy(out, rc.order)
	return out
}

// Results returns a copy of the identifier → result map.
func (rc *RunContext) Results() map[string]*StepResult {
	out := make(map[string]*StepResult, len(rc.results))
	for id, sr := range rc.results {
		out[id] = sr
	}
	return out
}
