package chain

import (
	"fmt"

	"github.com/lexgraph/chainbench/internal/model"
	"github.com/lexgraph/chainbench/internal/scoring"
)

// CitedRef is one predicted citing case.
type CitedRef struct {
	USCite   string `json:"us_cite"`
	CaseName string `json:"case_name,omitempty"`
}

// CitingCasesPayload is the parsed payload for the unknown-authority step:
// the model's ranked list of citing cases.
type CitingCasesPayload struct {
	CitingCases []CitedRef `json:"citing_cases"`
}

// CitingCaseTruth is the ground-truth citing case from the Shepard's edge.
type CitingCaseTruth struct {
	USCite   string `json:"citing_case_us_cite"`
	CaseName string `json:"citing_case_name,omitempty"`
}

const unknownAuthorityPrompt = `You are a legal research assistant. Given the following Supreme Court case, list cases that cite this precedent.

CASE:
- Citation: %s
- Name: %s
- Term: %d
- Holding: %s

List up to 20 Supreme Court cases that cite this case, ranked by relevance/importance.
For each case, provide the U.S. Reports citation and case name.

Return a JSON object with:
- "citing_cases": An array of objects, each with "us_cite" and "case_name"

Example format:
{
  "citing_cases": [
    {"us_cite": "349 U.S. 294", "case_name": "Bolling v. Sharpe"},
    {"us_cite": "350 U.S. 123", "case_name": "Another Case"}
  ]
}

%s`

// UnknownAuthority (s2) asks the model to predict which cases cite the
// anchor case. Scored as ranked retrieval against the edge's citing case:
// reciprocal rank for score, hit@10 for correctness.
type UnknownAuthority struct{}

// NewUnknownAuthority returns the s2 step.
func NewUnknownAuthority() *UnknownAuthority { return &UnknownAuthority{} }

func (*UnknownAuthority) ID() string   { return "s2" }
func (*UnknownAuthority) Name() string { return "s2" }

func (*UnknownAuthority) Requires() []Requirement {
	return []Requirement{Exactly("s1")}
}

func (*UnknownAuthority) Covered(inst *model.Instance) bool {
	return inst.HasCitedText()
}

func (*UnknownAuthority) Prompt(rc *model.RunContext) string {
	cited := rc.Instance().Cited

	holding := "(No holding summary available)"
	if facts, ok := parsedFacts(rc); ok && facts.HoldingSummary != "" {
		holding = facts.HoldingSummary
	}

	return fmt.Sprintf(unknownAuthorityPrompt,
		cited.USCite, cited.CaseName, cited.Term, holding, jsonOnlyFooter)
}

func (*UnknownAuthority) Parse(raw string) (any, []string) {
	data, errs := decodeObject(raw)
	if errs != nil {
		return &CitingCasesPayload{}, errs
	}

	payload := &CitingCasesPayload{}
	list, _ := data["citing_cases"].([]any)
	for _, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		usCite := asString(obj["us_cite"])
		if usCite == "" {
			continue
		}
		payload.CitingCases = append(payload.CitingCases, CitedRef{
			USCite:   usCite,
			CaseName: asString(obj["case_name"]),
		})
	}
	return payload, nil
}

func (*UnknownAuthority) GroundTruth(rc *model.RunContext) any {
	edge := rc.Instance().Edge
	return &CitingCaseTruth{
		USCite:   edge.CitingUSCite,
		CaseName: edge.CitingCaseName,
	}
}

func (*UnknownAuthority) Score(parsed, truth any) (float64, bool) {
	payload, ok := parsed.(*CitingCasesPayload)
	expected, ok2 := truth.(*CitingCaseTruth)
	if !ok || !ok2 {
		return 0, false
	}

	preds := make([]string, len(payload.CitingCases))
	for i, ref := range payload.CitingCases {
		preds[i] = ref.USCite
	}
	return scoring.RankCitations(preds, expected.USCite).Primary()
}
