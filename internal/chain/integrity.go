package chain

import (
	"fmt"

	"github.com/lexgraph/chainbench/internal/cite"
	"github.com/lexgraph/chainbench/internal/model"
	"github.com/lexgraph/chainbench/internal/scoring"
)

// VoidReasonFabricatedCitations is the fixed reason bound to a synthesis
// result voided by the integrity gate.
const VoidReasonFabricatedCitations = "voided by s7: fabricated citations detected"

// IntegrityPayload is the parsed payload for the integrity step: the
// citations the model itself reported. Informational only; the verdict comes
// from deterministic verification in the ground truth.
type IntegrityPayload struct {
	CitationsFound []string `json:"citations_found"`
}

// IntegrityTruth is the deterministic verification verdict over the
// synthesis output.
type IntegrityTruth struct {
	Checks   []scoring.CitationCheck `json:"checks"`
	AllValid bool                    `json:"all_valid"`
}

const integrityPrompt = `You are a legal citation checker. The following is a legal analysis. List every U.S. Reports citation that appears in it.

ANALYSIS:
%s

Return a JSON object with:
- "citations_found": An array of citation strings, e.g. ["347 U.S. 483"]

%s`

// Integrity (s7) is the gate step: it verifies that every citation in the
// synthesis output exists. The verdict is deterministic, computed against
// the verifier's canonical sets; the model response is recorded but does not
// decide the outcome. An incorrect gate voids the synthesis result
// post hoc (the executor owns that rebinding).
type Integrity struct {
	verifier *scoring.Verifier
}

// NewIntegrity returns the s7 gate step backed by the given verifier.
func NewIntegrity(verifier *scoring.Verifier) *Integrity {
	return &Integrity{verifier: verifier}
}

func (*Integrity) ID() string   { return "s7" }
func (*Integrity) Name() string { return "s7" }

func (*Integrity) Requires() []Requirement {
	return []Requirement{Exactly("s6")}
}

func (*Integrity) Covered(inst *model.Instance) bool {
	return inst.HasCitedText()
}

func (*Integrity) Prompt(rc *model.RunContext) string {
	return fmt.Sprintf(integrityPrompt, synthesisText(rc), jsonOnlyFooter)
}

// synthesisText returns the combined synthesis output recorded in the
// context, "" when absent.
func synthesisText(rc *model.RunContext) string {
	sr := rc.Get("s6")
	if sr == nil || sr.Status != model.StatusExecuted {
		return ""
	}
	payload, ok := sr.Parsed.(*IRACPayload)
	if !ok || payload == nil {
		return ""
	}
	return payload.Text()
}

// Parse never reports errors: the payload is informational, and a garbled
// gate response must not flip the deterministic verdict. Non-JSON responses
// fall back to scanning the raw text for citations.
func (*Integrity) Parse(raw string) (any, []string) {
	data, errs := decodeObject(raw)
	if errs != nil {
		return &IntegrityPayload{CitationsFound: cite.Extract(raw)}, nil
	}
	payload := &IntegrityPayload{}
	list, _ := data["citations_found"].([]any)
	for _, entry := range list {
		if c := asString(entry); c != "" {
			payload.CitationsFound = append(payload.CitationsFound, c)
		}
	}
	return payload, nil
}

// GroundTruth runs the deterministic verification: extract citations from
// the recorded synthesis output and look each one up.
func (s *Integrity) GroundTruth(rc *model.RunContext) any {
	citations := cite.Extract(synthesisText(rc))
	checks, allValid := s.verifier.CheckAll(citations)
	return &IntegrityTruth{Checks: checks, AllValid: allValid}
}

// Score is decided entirely by the verification verdict. Incorrect here is
// what triggers voiding downstream.
func (*Integrity) Score(_, truth any) (float64, bool) {
	verdict, ok := truth.(*IntegrityTruth)
	if !ok {
		return 0, false
	}
	return scoring.BinaryMatch(verdict.AllValid, true)
}
