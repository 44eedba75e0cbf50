package chain

import (
	"fmt"
	"strings"

	"github.com/lexgraph/chainbench/internal/model"
	"github.com/lexgraph/chainbench/internal/scoring"
)

// IRACPayload is the parsed payload for the synthesis step: a four-part
// legal analysis.
type IRACPayload struct {
	Issue       string `json:"issue"`
	Rule        string `json:"rule"`
	Application string `json:"application"`
	Conclusion  string `json:"conclusion"`
}

// Components returns the payload as a rubric component map.
func (p *IRACPayload) Components() map[string]string {
	return map[string]string{
		"issue":       p.Issue,
		"rule":        p.Rule,
		"application": p.Application,
		"conclusion":  p.Conclusion,
	}
}

// Text concatenates the four components; used for citation extraction.
func (p *IRACPayload) Text() string {
	return strings.Join([]string{p.Issue, p.Rule, p.Application, p.Conclusion}, "\n\n")
}

// RubricTruth is the synthesis step's ground truth: the rubric itself, since
// no external answer exists for free-text analysis.
type RubricTruth struct {
	Rubric scoring.Rubric `json:"rubric"`
}

const synthesisPrompt = `You are a legal research assistant. Synthesize the following information into a complete IRAC legal analysis.

CASE INFORMATION:
- Citation: %s
- Name: %s
- Term: %d

EXTRACTED FACTS:
- Disposition: %s
- Party Winning: %s
- Holding: %s

AUTHORITY STATUS:
%s

RELATIONSHIP ANALYSIS:
%s

CITING CASES:
%s

Write a complete IRAC analysis of this case:

1. ISSUE: State the central legal question the Court addressed.

2. RULE: Identify the legal rule or principle the Court applied.

3. APPLICATION: Explain how the Court applied the rule to the facts.

4. CONCLUSION: State the Court's holding and its significance.

Return a JSON object with these fields:
- "issue": The legal issue (1-2 sentences)
- "rule": The applicable rule (1-2 sentences)
- "application": How the rule was applied (2-3 sentences)
- "conclusion": The holding and significance (1-2 sentences)

%s`

// Synthesis (s6) folds the recorded outputs of the earlier steps into an
// IRAC analysis. It depends on the backbone distinguish variant specifically:
// the enriched variant covers fewer instances and would shrink the chain.
// Scored against a presence rubric; subject to post-hoc voiding by the
// integrity gate.
type Synthesis struct {
	rubric scoring.Rubric
}

// NewSynthesis returns the s6 step scored with the given rubric.
func NewSynthesis(rubric scoring.Rubric) *Synthesis {
	return &Synthesis{rubric: rubric}
}

func (*Synthesis) ID() string   { return "s6" }
func (*Synthesis) Name() string { return "s6" }

func (*Synthesis) Requires() []Requirement {
	return []Requirement{
		Exactly("s1"),
		Exactly("s2"),
		Exactly("s3"),
		Exactly("s4"),
		Exactly("s5:cb"),
	}
}

func (*Synthesis) Covered(inst *model.Instance) bool {
	return inst.HasCitedText()
}

func (*Synthesis) Prompt(rc *model.RunContext) string {
	cited := rc.Instance().Cited

	disposition, party, holding := "unknown", "unknown", ""
	if facts, ok := parsedFacts(rc); ok {
		disposition = facts.Disposition
		party = facts.PartyWinning
		holding = facts.HoldingSummary
	}
	if holding == "" {
		holding = "(No holding summary available)"
	}

	return fmt.Sprintf(synthesisPrompt,
		cited.USCite, cited.CaseName, cited.Term,
		disposition, party, holding,
		authorityStatus(rc), relationshipAnalysis(rc), citingCasesSection(rc),
		jsonOnlyFooter)
}

// authorityStatus renders the validate-authority outcome for the prompt.
func authorityStatus(rc *model.RunContext) string {
	sr := rc.Get("s3")
	if sr == nil || sr.Status != model.StatusExecuted {
		return "Authority status unknown."
	}
	answer, ok := sr.Parsed.(*OverruleAnswer)
	if !ok || answer == nil {
		return "Authority status unknown."
	}
	if !answer.IsOverruled {
		return "This case remains good law (not overruled)."
	}
	name := answer.OverrulingCase
	if name == "" {
		name = "Unknown"
	}
	year := "Unknown"
	if answer.YearOverruled != 0 {
		year = fmt.Sprintf("%d", answer.YearOverruled)
	}
	return fmt.Sprintf("This case was OVERRULED by %s in %s.", name, year)
}

// relationshipAnalysis renders the backbone distinguish outcome.
func relationshipAnalysis(rc *model.RunContext) string {
	sr := rc.Get("s5:cb")
	if sr == nil || sr.Status != model.StatusExecuted {
		return "No relationship analysis available."
	}
	relation, ok := sr.Parsed.(*RelationPayload)
	if !ok || relation == nil {
		return "Relationship unclear."
	}
	verb := "DISTINGUISHES"
	if relation.Agrees {
		verb = "AGREES with"
	}
	return strings.TrimSpace(fmt.Sprintf("The citing case %s this precedent. %s", verb, relation.Reasoning))
}

// citingCasesSection renders the top predicted citing cases.
func citingCasesSection(rc *model.RunContext) string {
	sr := rc.Get("s2")
	if sr == nil || sr.Status != model.StatusExecuted {
		return "No citing cases available."
	}
	payload, ok := sr.Parsed.(*CitingCasesPayload)
	if !ok || payload == nil || len(payload.CitingCases) == 0 {
		return "No citing cases identified."
	}

	var b strings.Builder
	b.WriteString("Cases that cite this precedent:\n")
	for i, ref := range payload.CitingCases {
		if i == 5 {
			break
		}
		name := ref.CaseName
		if name == "" {
			name = "Unknown"
		}
		fmt.Fprintf(&b, "  - %s (%s)\n", name, ref.USCite)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (*Synthesis) Parse(raw string) (any, []string) {
	data, errs := decodeObject(raw)
	if errs != nil {
		return &IRACPayload{}, errs
	}
	return &IRACPayload{
		Issue:       asString(data["issue"]),
		Rule:        asString(data["rule"]),
		Application: asString(data["application"]),
		Conclusion:  asString(data["conclusion"]),
	}, nil
}

func (s *Synthesis) GroundTruth(*model.RunContext) any {
	return &RubricTruth{Rubric: s.rubric}
}

func (s *Synthesis) Score(parsed, truth any) (float64, bool) {
	payload, ok := parsed.(*IRACPayload)
	if !ok {
		return 0, false
	}
	rubric := s.rubric
	if rt, ok := truth.(*RubricTruth); ok {
		rubric = rt.Rubric
	}
	score, correct, _ := rubric.Score(payload.Components())
	return score, correct
}
