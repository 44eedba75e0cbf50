package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lexgraph/chainbench/internal/model"
)

// StepSummary aggregates one step identifier across runs.
type StepSummary struct {
	StepID            string  `json:"step_id"`
	Executed          int     `json:"executed"`
	SkippedCoverage   int     `json:"skipped_coverage"`
	SkippedDependency int     `json:"skipped_dependency"`
	Correct           int     `json:"correct"`
	Voided            int     `json:"voided"`
	BackendErrors     int     `json:"backend_errors"`
	Accuracy          float64 `json:"accuracy"`
	MeanScore         float64 `json:"mean_score"`
	CoverageRate      float64 `json:"coverage_rate"`
}

// Summary aggregates a result set.
type Summary struct {
	Runs  int                     `json:"runs"`
	Steps map[string]*StepSummary `json:"steps"`

	// CompletionRate is the share of runs in which every executed step was
	// correct. Skipped steps do not count against completion.
	CompletionRate float64 `json:"completion_rate"`
	// MeanFailurePosition is the mean 1-based chain position of the first
	// incorrect executed step, over runs that have one.
	MeanFailurePosition float64 `json:"mean_failure_position,omitempty"`
	// VoidRate is the share of runs voided by the integrity gate.
	VoidRate float64 `json:"void_rate"`
	// ReasoningGap is the enriched-variant accuracy minus the backbone
	// accuracy for the distinguish step, over runs where both executed.
	ReasoningGap     float64 `json:"reasoning_gap"`
	ReasoningGapRuns int     `json:"reasoning_gap_runs"`
}

// Summarize folds run results into a summary. Accuracy and mean score are
// computed over executed attempts only; skipped steps dilute coverage, not
// accuracy.
func Summarize(runs []*model.RunResult) *Summary {
	s := &Summary{
		Runs:  len(runs),
		Steps: make(map[string]*StepSummary),
	}

	completed := 0
	failurePositions := 0
	failureRuns := 0
	voided := 0
	gapBothCorrectDelta := 0
	gapRuns := 0

	for _, run := range runs {
		if run.Voided {
			voided++
		}

		failedAt := 0
		for pos, stepID := range run.StepOrder {
			sr := run.Steps[stepID]
			if sr == nil {
				continue
			}
			step := s.step(stepID)
			switch sr.Status {
			case model.StatusExecuted:
				step.Executed++
				if sr.Correct {
					step.Correct++
				}
				step.MeanScore += sr.Score
				if sr.Voided {
					step.Voided++
				}
				if sr.Failure != "" {
					step.BackendErrors++
				}
			case model.StatusSkippedCoverage:
				step.SkippedCoverage++
			case model.StatusSkippedDependency:
				step.SkippedDependency++
			}
			if sr.Status == model.StatusExecuted && !sr.Correct && failedAt == 0 {
				failedAt = pos + 1
			}
		}

		if failedAt == 0 {
			completed++
		} else {
			failureRuns++
			failurePositions += failedAt
		}

		cb, rag := run.Steps["s5:cb"], run.Steps["s5:rag"]
		if cb != nil && rag != nil &&
			cb.Status == model.StatusExecuted && rag.Status == model.StatusExecuted {
			gapRuns++
			if rag.Correct && !cb.Correct {
				gapBothCorrectDelta++
			}
			if cb.Correct && !rag.Correct {
				gapBothCorrectDelta--
			}
		}
	}

	for _, step := range s.Steps {
		if step.Executed > 0 {
			step.Accuracy = float64(step.Correct) / float64(step.Executed)
			step.MeanScore /= float64(step.Executed)
		}
		total := step.Executed + step.SkippedCoverage + step.SkippedDependency
		if total > 0 {
			step.CoverageRate = float64(step.Executed) / float64(total)
		}
	}

	if s.Runs > 0 {
		s.CompletionRate = float64(completed) / float64(s.Runs)
		s.VoidRate = float64(voided) / float64(s.Runs)
	}
	if failureRuns > 0 {
		s.MeanFailurePosition = float64(failurePositions) / float64(failureRuns)
	}
	if gapRuns > 0 {
		s.ReasoningGap = float64(gapBothCorrectDelta) / float64(gapRuns)
		s.ReasoningGapRuns = gapRuns
	}
	return s
}

func (s *Summary) step(stepID string) *StepSummary {
	step, ok := s.Steps[stepID]
	if !ok {
		step = &StepSummary{StepID: stepID}
		s.Steps[stepID] = step
	}
	return step
}

// StepIDs returns the summarized step identifiers in sorted order.
func (s *Summary) StepIDs() []string {
	out := make([]string, 0, len(s.Steps))
	for id := range s.Steps {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "runs: %d  completion: %.1f%%  voided: %.1f%%\n",
		s.Runs, 100*s.CompletionRate, 100*s.VoidRate)
	if s.MeanFailurePosition > 0 {
		fmt.Fprintf(&b, "mean failure position: %.2f\n", s.MeanFailurePosition)
	}
	if s.ReasoningGapRuns > 0 {
		fmt.Fprintf(&b, "distinguish gap (rag - cb): %+.3f over %d runs\n",
			s.ReasoningGap, s.ReasoningGapRuns)
	}
	fmt.Fprintf(&b, "%-8s %8s %8s %8s %9s %9s %7s\n",
		"step", "exec", "skip_cov", "skip_dep", "accuracy", "mean", "voided")
	for _, id := range s.StepIDs() {
		step := s.Steps[id]
		fmt.Fprintf(&b, "%-8s %8d %8d %8d %8.1f%% %9.3f %7d\n",
			id, step.Executed, step.SkippedCoverage, step.SkippedDependency,
			100*step.Accuracy, step.MeanScore, step.Voided)
	}
	return b.String()
}
