package chain

import (
	"fmt"

	"github.com/lexgraph/chainbench/internal/cite"
	"github.com/lexgraph/chainbench/internal/model"
)

// AuthorityAnswer is the payload (and ground-truth) shape for the
// known-authority step: the anchor case's citation, name and term.
type AuthorityAnswer struct {
	USCite   string `json:"us_cite"`
	CaseName string `json:"case_name"`
	Term     int    `json:"term,omitempty"`
}

const knownAuthorityPrompt = `You are a legal research assistant. Read the following Supreme Court opinion and extract:
1. The U.S. Reports citation (e.g., "347 U.S. 483")
2. The case name (e.g., "Brown v. Board of Education")
3. The term (year the case was decided)

OPINION:
%s

Return a single JSON object with these fields:
- "us_cite": The U.S. Reports citation
- "case_name": The case name
- "term": The term year (integer)

%s`

// KnownAuthority (s1) asks the model to identify the anchor case from its
// majority opinion. First step of the chain, no dependencies.
type KnownAuthority struct{}

// NewKnownAuthority returns the s1 step.
func NewKnownAuthority() *KnownAuthority { return &KnownAuthority{} }

func (*KnownAuthority) ID() string   { return "s1" }
func (*KnownAuthority) Name() string { return "s1" }

func (*KnownAuthority) Requires() []Requirement { return nil }

// Covered requires anchor opinion text.
func (*KnownAuthority) Covered(inst *model.Instance) bool {
	return inst.HasCitedText()
}

func (*KnownAuthority) Prompt(rc *model.RunContext) string {
	opinion := truncate(rc.Instance().Cited.MajorityOpinion, anchorOpinionLimit)
	return fmt.Sprintf(knownAuthorityPrompt, opinion, jsonOnlyFooter)
}

func (*KnownAuthority) Parse(raw string) (any, []string) {
	data, errs := decodeObject(raw)
	if errs != nil {
		return &AuthorityAnswer{}, errs
	}
	answer := &AuthorityAnswer{
		USCite:   asString(data["us_cite"]),
		CaseName: asString(data["case_name"]),
	}
	if term, ok := asInt(data["term"]); ok {
		answer.Term = term
	}
	return answer, nil
}

func (*KnownAuthority) GroundTruth(rc *model.RunContext) any {
	cited := rc.Instance().Cited
	return &AuthorityAnswer{
		USCite:   cited.USCite,
		CaseName: cited.CaseName,
		Term:     cited.Term,
	}
}

// Score matches the canonicalized citation and the exact term. Both must
// match for correct; one of two earns half credit. The case name is too
// fuzzy to score.
func (*KnownAuthority) Score(parsed, truth any) (float64, bool) {
	answer, ok := parsed.(*AuthorityAnswer)
	expected, ok2 := truth.(*AuthorityAnswer)
	if !ok || !ok2 {
		return 0, false
	}

	predCite := cite.Canonicalize(answer.USCite)
	citeMatch := predCite != "" && predCite == cite.Canonicalize(expected.USCite)
	termMatch := answer.Term != 0 && answer.Term == expected.Term

	switch {
	case citeMatch && termMatch:
		return 1.0, true
	case citeMatch || termMatch:
		return 0.5, false
	default:
		return 0.0, false
	}
}
