package chain

import (
	"fmt"

	"github.com/lexgraph/chainbench/internal/model"
	"github.com/lexgraph/chainbench/internal/scoring"
)

// OverruleAnswer is the payload (and ground-truth) shape for the
// validate-authority step.
type OverruleAnswer struct {
	IsOverruled    bool   `json:"is_overruled"`
	OverrulingCase string `json:"overruling_case,omitempty"`
	YearOverruled  int    `json:"year_overruled,omitempty"`
}

const validateAuthorityPrompt = `You are a legal research assistant. Determine if the following Supreme Court case has been overruled.

CASE:
- Citation: %s
- Name: %s
- Term: %d

Has this case been overruled by a later Supreme Court decision?

Return a JSON object with:
- "is_overruled": true if the case has been overruled, false otherwise
- "overruling_case": The name of the overruling case (null if not overruled)
- "year_overruled": The year it was overruled (null if not overruled)

%s`

// ValidateAuthority (s3) checks whether the anchor case has been overruled.
// Ground truth comes from the instance's overrule record; its absence means
// "not overruled", a valid terminal state.
type ValidateAuthority struct{}

// NewValidateAuthority returns the s3 step.
func NewValidateAuthority() *ValidateAuthority { return &ValidateAuthority{} }

func (*ValidateAuthority) ID() string   { return "s3" }
func (*ValidateAuthority) Name() string { return "s3" }

func (*ValidateAuthority) Requires() []Requirement {
	return []Requirement{Exactly("s1")}
}

func (*ValidateAuthority) Covered(inst *model.Instance) bool {
	return inst.HasCitedText()
}

func (*ValidateAuthority) Prompt(rc *model.RunContext) string {
	cited := rc.Instance().Cited
	return fmt.Sprintf(validateAuthorityPrompt,
		cited.USCite, cited.CaseName, cited.Term, jsonOnlyFooter)
}

func (*ValidateAuthority) Parse(raw string) (any, []string) {
	data, errs := decodeObject(raw)
	if errs != nil {
		return &OverruleAnswer{}, errs
	}
	answer := &OverruleAnswer{
		IsOverruled:    asBool(data["is_overruled"]),
		OverrulingCase: asString(data["overruling_case"]),
	}
	if year, ok := asInt(data["year_overruled"]); ok {
		answer.YearOverruled = year
	}
	return answer, nil
}

func (*ValidateAuthority) GroundTruth(rc *model.RunContext) any {
	overrule := rc.Instance().Overrule
	if overrule == nil {
		return &OverruleAnswer{IsOverruled: false}
	}
	return &OverruleAnswer{
		IsOverruled:    true,
		OverrulingCase: overrule.OverrulingCaseName,
		YearOverruled:  overrule.YearOverruled,
	}
}

// Score compares only the overruled flag; the overruling case name and year
// are informational.
func (*ValidateAuthority) Score(parsed, truth any) (float64, bool) {
	answer, ok := parsed.(*OverruleAnswer)
	expected, ok2 := truth.(*OverruleAnswer)
	if !ok || !ok2 {
		return 0, false
	}
	return scoring.BinaryMatch(answer.IsOverruled, expected.IsOverruled)
}
