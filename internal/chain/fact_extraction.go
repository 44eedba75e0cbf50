package chain

import (
	"fmt"
	"strings"

	"github.com/lexgraph/chainbench/internal/model"
	"github.com/lexgraph/chainbench/internal/scoring"
)

// CaseFactsPayload is the parsed payload for the fact-extraction step. The
// disposition and party fields are closed enumerations, folded to lowercase
// during parsing.
type CaseFactsPayload struct {
	Disposition    string `json:"disposition"`
	PartyWinning   string `json:"party_winning"`
	HoldingSummary string `json:"holding_summary"`
}

// CaseFactsTruth is the SCDB-derived ground truth for fact extraction. The
// raw codes travel along for reporting.
type CaseFactsTruth struct {
	Disposition      string `json:"disposition"`
	PartyWinning     string `json:"party_winning"`
	DispositionCode  *int   `json:"disposition_code,omitempty"`
	PartyWinningCode *int   `json:"party_winning_code,omitempty"`
}

const factExtractionPrompt = `You are a legal research assistant. Read the following Supreme Court opinion and extract:

1. The disposition of the case (how the Court ruled)
2. Which party won (petitioner, respondent, or unclear)
3. A brief summary of the holding

OPINION:
%s

DISPOSITION must be exactly one of these values:
%s

PARTY_WINNING must be exactly one of:
%s

Return a JSON object with these fields:
- "disposition": The disposition (from the list above)
- "party_winning": Which party won (from the list above)
- "holding_summary": A 1-2 sentence summary of the holding

%s`

// FactExtraction (s4) pulls the disposition, winning party and holding
// summary out of the anchor opinion. Downstream steps reuse the holding
// summary when available.
type FactExtraction struct{}

// NewFactExtraction returns the s4 step.
func NewFactExtraction() *FactExtraction { return &FactExtraction{} }

func (*FactExtraction) ID() string   { return "s4" }
func (*FactExtraction) Name() string { return "s4" }

func (*FactExtraction) Requires() []Requirement {
	return []Requirement{Exactly("s1")}
}

func (*FactExtraction) Covered(inst *model.Instance) bool {
	return inst.HasCitedText()
}

func (*FactExtraction) Prompt(rc *model.RunContext) string {
	opinion := truncate(rc.Instance().Cited.MajorityOpinion, anchorOpinionLimit)
	return fmt.Sprintf(factExtractionPrompt,
		opinion, enumList(model.DispositionCodes, 1), enumList(model.PartyWinningCodes, 0),
		jsonOnlyFooter)
}

// enumList renders a closed code table as a quoted bullet list, in code
// order starting at first.
func enumList(codes map[int]string, first int) string {
	var b strings.Builder
	for code := first; code < first+len(codes); code++ {
		fmt.Fprintf(&b, "- %q\n", codes[code])
	}
	return strings.TrimRight(b.String(), "\n")
}

func (*FactExtraction) Parse(raw string) (any, []string) {
	data, errs := decodeObject(raw)
	if errs != nil {
		return &CaseFactsPayload{}, errs
	}
	return &CaseFactsPayload{
		Disposition:    scoring.FoldLabel(asString(data["disposition"])),
		PartyWinning:   scoring.FoldLabel(asString(data["party_winning"])),
		HoldingSummary: asString(data["holding_summary"]),
	}, nil
}

func (*FactExtraction) GroundTruth(rc *model.RunContext) any {
	cited := rc.Instance().Cited
	return &CaseFactsTruth{
		Disposition:      model.DispositionText(cited.CaseDisposition),
		PartyWinning:     model.PartyWinningText(cited.PartyWinning),
		DispositionCode:  cited.CaseDisposition,
		PartyWinningCode: cited.PartyWinning,
	}
}

// Score matches disposition and party jointly; the holding summary is too
// fuzzy to score here.
func (*FactExtraction) Score(parsed, truth any) (float64, bool) {
	facts, ok := parsed.(*CaseFactsPayload)
	expected, ok2 := truth.(*CaseFactsTruth)
	if !ok || !ok2 {
		return 0, false
	}
	return scoring.JointMatch(
		facts.Disposition, expected.Disposition,
		facts.PartyWinning, expected.PartyWinning)
}

// parsedFacts returns the fact-extraction payload recorded in the context,
// when s4 executed and parsed cleanly.
func parsedFacts(rc *model.RunContext) (*CaseFactsPayload, bool) {
	sr := rc.Get("s4")
	if sr == nil || sr.Status != model.StatusExecuted {
		return nil, false
	}
	facts, ok := sr.Parsed.(*CaseFactsPayload)
	return facts, ok && facts != nil
}
