package chain

import (
	"fmt"

	"github.com/lexgraph/chainbench/internal/model"
	"github.com/lexgraph/chainbench/internal/scoring"
)

// RelationPayload is the parsed payload for the distinguish step: does the
// citing case agree with the precedent, and why.
type RelationPayload struct {
	Agrees    bool   `json:"agrees"`
	Reasoning string `json:"reasoning,omitempty"`
}

// RelationTruth is the edge-derived ground truth for the distinguish step.
type RelationTruth struct {
	Agrees bool `json:"agrees"`
}

const distinguishBackbonePrompt = `You are a legal research assistant analyzing the relationship between two Supreme Court cases.

CITED CASE (the precedent):
- Citation: %s
- Name: %s
- Term: %d
- Disposition: %s
- Party Winning: %s
- Holding: %s

CITING CASE (the later case):
- Citation: %s
- Name: %s

Based on the Shepard's signal %q, determine whether the citing case AGREES with or DISTINGUISHES the cited case.

A case AGREES if it follows, applies, or extends the precedent.
A case DISTINGUISHES if it criticizes, limits, questions, or overrules the precedent.

Return a JSON object with:
- "agrees": true if the citing case agrees with the precedent, false if it distinguishes
- "reasoning": A brief explanation of your determination

%s`

const distinguishEnrichedPrompt = `You are a legal research assistant analyzing the relationship between two Supreme Court cases.

CITED CASE (the precedent):
- Citation: %s
- Name: %s
- Term: %d
- Disposition: %s
- Party Winning: %s
- Holding: %s

CITING CASE (the later case):
- Citation: %s
- Name: %s

CITING CASE OPINION (excerpt):
%s

Based on the citing case's treatment of the precedent, determine whether it AGREES with or DISTINGUISHES the cited case.

A case AGREES if it follows, applies, or extends the precedent.
A case DISTINGUISHES if it criticizes, limits, questions, or overrules the precedent.

Return a JSON object with:
- "agrees": true if the citing case agrees with the precedent, false if it distinguishes
- "reasoning": A brief explanation based on the opinion text

%s`

// Distinguish (s5) decides whether the citing case agrees with the anchor
// precedent. Two variants share the logical name: the backbone variant works
// from metadata and extracted facts only, the enriched variant additionally
// sees the citing opinion text and therefore needs both opinions.
type Distinguish struct {
	variant string
}

// NewDistinguishBackbone returns the metadata-only s5:cb variant.
func NewDistinguishBackbone() *Distinguish { return &Distinguish{variant: "cb"} }

// NewDistinguishEnriched returns the opinion-grounded s5:rag variant.
func NewDistinguishEnriched() *Distinguish { return &Distinguish{variant: "rag"} }

func (d *Distinguish) ID() string   { return StepID("s5", d.variant) }
func (d *Distinguish) Name() string { return "s5" }

func (*Distinguish) Requires() []Requirement {
	return []Requirement{Exactly("s1"), Exactly("s4")}
}

func (d *Distinguish) Covered(inst *model.Instance) bool {
	if d.variant == "rag" {
		return inst.HasCitedText() && inst.HasCitingText()
	}
	return inst.HasCitedText()
}

func (d *Distinguish) Prompt(rc *model.RunContext) string {
	inst := rc.Instance()
	cited := inst.Cited
	edge := inst.Edge

	disposition, party, holding := "unknown", "unknown", ""
	if facts, ok := parsedFacts(rc); ok {
		disposition = facts.Disposition
		party = facts.PartyWinning
		holding = facts.HoldingSummary
	}

	citingName := edge.CitingCaseName
	if citingName == "" {
		if inst.Citing != nil {
			citingName = inst.Citing.CaseName
		}
		if citingName == "" {
			citingName = "Unknown"
		}
	}

	if d.variant == "rag" {
		var citingOpinion string
		if inst.Citing != nil {
			citingOpinion = truncate(inst.Citing.MajorityOpinion, counterpartOpinionLimit)
		}
		return fmt.Sprintf(distinguishEnrichedPrompt,
			cited.USCite, cited.CaseName, cited.Term, disposition, party, holding,
			edge.CitingUSCite, citingName, citingOpinion, jsonOnlyFooter)
	}

	shepards := edge.Shepards
	if shepards == "" {
		shepards = "cited"
	}
	return fmt.Sprintf(distinguishBackbonePrompt,
		cited.USCite, cited.CaseName, cited.Term, disposition, party, holding,
		edge.CitingUSCite, citingName, shepards, jsonOnlyFooter)
}

func (*Distinguish) Parse(raw string) (any, []string) {
	data, errs := decodeObject(raw)
	if errs != nil {
		return &RelationPayload{}, errs
	}
	return &RelationPayload{
		Agrees:    asBool(data["agrees"]),
		Reasoning: asString(data["reasoning"]),
	}, nil
}

func (*Distinguish) GroundTruth(rc *model.RunContext) any {
	return &RelationTruth{Agrees: rc.Instance().Edge.Agree}
}

func (*Distinguish) Score(parsed, truth any) (float64, bool) {
	relation, ok := parsed.(*RelationPayload)
	expected, ok2 := truth.(*RelationTruth)
	if !ok || !ok2 {
		return 0, false
	}
	return scoring.BinaryMatch(relation.Agrees, expected.Agrees)
}
